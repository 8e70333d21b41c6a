package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes characters and strips combining marks, so "Café"
// slugs as "cafe" rather than dropping the letter.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a title into a URL-safe slug: accents stripped,
// lowercased, runs of anything outside [a-z0-9] collapsed into single
// hyphens. Returns "" when nothing usable remains.
func Slugify(s string) string {
	clean, _, err := transform.String(deaccent, s)
	if err != nil {
		clean = s
	}
	clean = strings.ToLower(clean)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range clean {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
