// Package governorate decodes the single-digit Yemeni governorate code
// printed in the left margin of a license plate.
package governorate

import (
	"encoding/json"
	"fmt"
	"os"
)

// defaultTable maps governorate codes to names for Yemen's 20 governorates.
var defaultTable = map[string]string{
	"1":  "أمانة العاصمة",
	"2":  "محافظة صنعاء",
	"3":  "تعز",
	"4":  "عدن",
	"5":  "الحديدة",
	"6":  "إب",
	"7":  "ذمار",
	"8":  "حضرموت",
	"9":  "لحج",
	"10": "أبين",
	"11": "شبوة",
	"12": "المهرة",
	"13": "الجوف",
	"14": "مأرب",
	"15": "ريمة",
	"16": "المحويت",
	"17": "حجة",
	"18": "صعدة",
	"19": "البيضاء",
	"20": "سقطرى",
}

// DefaultTable returns a copy of the built-in code-to-name table.
func DefaultTable() map[string]string {
	table := make(map[string]string, len(defaultTable))
	for code, name := range defaultTable {
		table[code] = name
	}
	return table
}

// LoadTable reads a code-to-name table from a JSON file of the form
// {"1": "name", ...}. An empty path returns the built-in table.
func LoadTable(path string) (map[string]string, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read governorate table: %w", err)
	}
	var table map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse governorate table %s: %w", path, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("governorate table %s is empty", path)
	}
	return table, nil
}
