package ocr

import "testing"

func TestConvertArabicDigits(t *testing.T) {
	// All ten glyphs round-trip to Western digits.
	if got := ConvertArabicDigits("٠١٢٣٤٥٦٧٨٩"); got != "0123456789" {
		t.Errorf("ConvertArabicDigits = %q, want 0123456789", got)
	}
	// Western digits and other characters pass through unchanged.
	if got := ConvertArabicDigits("AB 0129-xyz"); got != "AB 0129-xyz" {
		t.Errorf("ConvertArabicDigits left input changed: %q", got)
	}
}

func TestSubstituteConfusions(t *testing.T) {
	cases := []struct{ in, want string }{
		{"O", "0"}, {"o", "0"}, {"I", "1"}, {"l", "1"}, {"i", "1"},
		{"S", "5"}, {"s", "5"}, {"B", "8"}, {"Z", "2"}, {"z", "2"},
		{"G", "6"}, {"g", "9"}, {"q", "9"}, {"A", "4"}, {"D", "0"},
		{"b", "6"}, {"T", "7"}, {"|", "1"},
		{"IG330B", "163308"},
	}
	for _, tc := range cases {
		if got := SubstituteConfusions(tc.in); got != tc.want {
			t.Errorf("SubstituteConfusions(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeDigits(t *testing.T) {
	cases := []struct{ in, want string }{
		{"١٦٣٣٠٣", "163303"},
		{"I633O3", "163303"},
		{" 53-421 ", "53421"},
		{"صنعاء", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeDigits(tc.in); got != tc.want {
			t.Errorf("NormalizeDigits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeDigitsIdempotent(t *testing.T) {
	inputs := []string{"١٦٣٣٠٣", "I633O3", "53421", "abc", "", "٣B|"}
	for _, in := range inputs {
		once := NormalizeDigits(in)
		if twice := NormalizeDigits(once); twice != once {
			t.Errorf("NormalizeDigits not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestStripLeadingZeros(t *testing.T) {
	cases := []struct{ in, want string }{
		{"03", "3"},
		{"000", "0"},
		{"3", "3"},
		{"120", "120"},
		{"", ""},
		{"a3", "a3"},
	}
	for _, tc := range cases {
		if got := StripLeadingZeros(tc.in); got != tc.want {
			t.Errorf("StripLeadingZeros(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
