package util

import (
	"strings"
	"unicode"

	"github.com/aiwolfdial/imposter-server/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lower-cases s, strips diacritics, collapses every run of
// non-alphanumeric characters into a single '-' and trims leading and
// trailing separators.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	lowered := cases.Lower(language.Und).String(stripped)

	var builder strings.Builder
	pendingSep := false
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			pendingSep = false
			builder.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return builder.String()
}

func CustomTopicKey(name string) string {
	return model.CustomTopicKeyPrefix + Slugify(name)
}

// SameTopicName compares two topic names case-insensitively.
func SameTopicName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(a)) == fold.String(strings.TrimSpace(b))
}

// NormalizeWords trims every word and drops blanks.
func NormalizeWords(words []string) []string {
	normalized := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			normalized = append(normalized, w)
		}
	}
	return normalized
}
