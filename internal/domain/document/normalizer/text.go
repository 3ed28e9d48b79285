// Package normalizer folds case and strips diacritics so that document text and
// pattern keywords compare as plain upper-case base letters.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize upper-cases text, decomposes it (NFD) and drops combining marks.
// "Utilización" becomes "UTILIZACION". The result is stable under a second pass.
//
// Marks are stripped both before and after case mapping: some precomposed
// letters have no upper-case form of their own, and their base letter only
// upper-cases once the mark is gone.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return stripMarks(cases.Upper(language.Und).String(stripMarks(text)))
}

// Equal reports whether a and b are the same after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Contains reports whether needle occurs in haystack after normalizing both.
func Contains(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		// transform only fails on invalid state, never on input content;
		// fall back to the untouched string so Normalize stays total.
		return s
	}
	return out
}
