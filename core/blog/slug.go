package blog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugRegex = regexp.MustCompile(`[^a-z0-9]+`)
	maxSlugLen   = 80
)

// Slugify makes a lower-case ASCII, dash separated slug out of s. "Poomsae Día 1!" -> "poomsae-dia-1"
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}
	slug := strings.Trim(nonSlugRegex.ReplaceAllString(strings.ToLower(ascii), "-"), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}
