package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

var dashReplacer = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"−", "-", // minus sign
	"﹣", "-",
	"－", "-",
	"_", "-",
)

// NormalizeCode returns the canonical form of a group or faculty code:
// surrounding whitespace removed, inner whitespace dropped, full-width
// characters folded, every dash variant turned into '-', and letters
// upper-cased.
func NormalizeCode(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = width.Fold.String(value)
	value = dashReplacer.Replace(value)
	value = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
	return cases.Upper(language.Und).String(value)
}

// IsDigits reports whether value is non-empty and made only of ASCII digits.
func IsDigits(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}
