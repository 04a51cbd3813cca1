// Package symbols maps the exchange's localized product and participant
// vocabulary onto the canonical short codes used as table and column values.
package symbols

import "strings"

// mapping is ordered longest-first so that composite names are rewritten
// before their shorter prefixes.
var mapping = []struct {
	Name string
	Code string
}{
	{"外資及陸資(不含外資自營商)", "FOR"},
	{"自營商(自行買賣)", "DEA"},
	{"自營商(避險)", "DEA_H"},
	{"小型臺指期貨", "MTX"},
	{"外資自營商", "FOR_D"},
	{"外資及陸資", "FOR"},
	{"臺指選擇權", "TXO"},
	{"臺股期貨", "TX"},
	{"電子期貨", "TE"},
	{"金融期貨", "TF"},
	{"自營商", "DEA"},
	{"外資", "FOR"},
	{"投信", "INV"},
	{"買權", "CALL"},
	{"賣權", "PUT"},
}

var codes = func() map[string]struct{} {
	set := make(map[string]struct{}, len(mapping))
	for _, m := range mapping {
		set[m.Code] = struct{}{}
	}
	return set
}()

// Resolve returns the canonical code for a localized name.
func Resolve(name string) (string, bool) {
	for _, m := range mapping {
		if m.Name == name {
			return m.Code, true
		}
	}
	return "", false
}

// ReplaceAll rewrites every localized name in s with its code. Used on whole
// report dumps before line parsing.
func ReplaceAll(s string) string {
	for _, m := range mapping {
		s = strings.ReplaceAll(s, m.Name, m.Code)
	}
	return s
}

// IsCode reports whether s is one of the canonical codes.
func IsCode(s string) bool {
	_, ok := codes[s]
	return ok
}
