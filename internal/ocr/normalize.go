// Package ocr turns noisy multi-variant text recognition output into a single
// plate-number hypothesis.
package ocr

import "strings"

// arabicDigits maps Arabic-Indic digit glyphs to Western digits.
var arabicDigits = map[rune]rune{
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

// charSubstitutions corrects the usual digit/letter confusions seen in plate
// reads. Applied after Arabic-Indic conversion; the order of the two steps
// matters because both feed the final digit filter.
var charSubstitutions = map[rune]rune{
	'O': '0', 'o': '0', 'I': '1', 'l': '1', 'i': '1',
	'S': '5', 's': '5', 'B': '8', 'Z': '2', 'z': '2',
	'G': '6', 'g': '9', 'q': '9', 'A': '4', 'D': '0',
	'b': '6', 'T': '7', '|': '1',
}

// ConvertArabicDigits maps Arabic-Indic digits to Western digits, leaving all
// other characters unchanged.
func ConvertArabicDigits(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if d, ok := arabicDigits[r]; ok {
			b.WriteRune(d)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SubstituteConfusions replaces commonly confused characters with the digits
// they usually stand for.
func SubstituteConfusions(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if d, ok := charSubstitutions[r]; ok {
			b.WriteRune(d)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeDigits runs the full normalization pipeline: Arabic-Indic
// conversion, confusion substitution, then stripping everything that is not
// a Western digit. Idempotent.
func NormalizeDigits(text string) string {
	text = ConvertArabicDigits(text)
	text = SubstituteConfusions(text)
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripLeadingZeros removes leading zeros from a digit string, keeping a
// single zero for all-zero input. Non-digit strings are returned unchanged.
func StripLeadingZeros(digits string) string {
	if digits == "" {
		return digits
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return digits
		}
	}
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
