package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormaliseText strips leading/trailing whitespace and collapses internal whitespace.
func NormaliseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FoldASCII removes diacritics, "Jardim Botânico" becomes "Jardim Botanico".
// Runes with no ASCII base form are dropped.
func FoldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, folded)
}

// FileName turns a display title into a file name stem: ASCII-folded, with
// spaces and path-hostile characters removed.
func FileName(title string) string {
	folded := FoldASCII(title)
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return -1
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			return -1
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, folded)
	name = strings.Trim(name, ".")
	if name == "" {
		return "target"
	}
	return name
}
