package canonical

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unaccent strips combining marks, e.g. "Luján" becomes "Lujan".
func Unaccent(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName produces the lookup key for a display name: accents
// removed, case folded and whitespace collapsed.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(Unaccent(s)), " "))
}
