package posts

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var multiHyphen = regexp.MustCompile(`-{2,}`)

// Slugify converts a post title into a URL-safe ASCII slug: accents are
// decomposed and stripped, everything non-alphanumeric becomes a hyphen.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, title)
	if err != nil {
		normalized = title
	}
	lowered := strings.ToLower(normalized)
	mapped := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return '-'
	}, lowered)
	mapped = multiHyphen.ReplaceAllString(mapped, "-")
	return strings.Trim(mapped, "-")
}
