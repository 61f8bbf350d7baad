package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, folds accented letters to their base letter, replaces
// every run of other characters with a single hyphen and trims hyphens from
// both ends. The result may be empty.
func Slugify(s string) string {
	lower := strings.ToLower(s)

	// Chained transformers carry state, so each call gets its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, lower)
	if err != nil {
		folded = lower
	}

	return strings.Trim(nonAlphanumeric.ReplaceAllString(folded, "-"), "-")
}
