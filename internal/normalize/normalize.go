// Package normalize derives comparison keys from noisy artist and title
// strings. All functions are pure: same input, same output, no side effects.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Parenthetical annotations like "(Live)" or "(Radio Edit)".
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)

	// Trailing guest-credit clauses: "feat. X", "ft. X", "featuring X", ...
	featClause = regexp.MustCompile(`(?i)\s+\b(feat|featuring|ft|with|vs)\b\.?\s+.*$`)
)

// Multi-artist credit separators, checked in order. The first separator
// found splits the credit; everything after it is discarded.
var separators = []string{" & ", " × ", " x ", " + ", " / ", ";", " and "}

// stripMarks decomposes accented characters and removes the combining marks,
// so "Novák" folds to "Novak".
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Key returns the comparison key for an artist credit: the primary artist
// with annotations stripped, accent-folded to ASCII and casefolded.
func Key(s string) string {
	return fold(PrimaryArtist(s))
}

// TitleKey returns the comparison key for a track title.
func TitleKey(s string) string {
	return fold(CleanTitle(s))
}

// CacheKey returns the lookup key for track-level caches.
func CacheKey(artist, title string) string {
	return Key(artist) + "|" + TitleKey(title)
}

// CleanArtist strips parenthetical annotations and trailing guest-credit
// clauses, then collapses whitespace.
func CleanArtist(s string) string {
	s = parenthetical.ReplaceAllString(s, "")
	s = featClause.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// CleanTitle collapses whitespace without touching the title text itself.
func CleanTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PrimaryArtist extracts the first artist from a multi-artist credit and
// reorders a "Surname, Given" form to "Given Surname".
func PrimaryArtist(raw string) string {
	s := CleanArtist(strings.TrimSpace(raw))
	for _, sep := range separators {
		if i := strings.Index(s, sep); i >= 0 {
			s = strings.TrimSpace(s[:i])
			break
		}
	}
	return reorderIfSurnameFirst(s)
}

// SwapNameOrder swaps a two-token name ("Rolincova Darina" -> "Darina
// Rolincova"). Catalogs sometimes index solo artists given-name first while
// the station credits them surname first; this is the retry form. Names
// that are not exactly two tokens, or whose tokens look like initials, are
// returned unchanged.
func SwapNameOrder(name string) string {
	parts := strings.Fields(name)
	if len(parts) != 2 {
		return name
	}
	if len(parts[0]) <= 2 || len(parts[1]) <= 2 {
		return name
	}
	return parts[1] + " " + parts[0]
}

// reorderIfSurnameFirst turns "Patejdl, Vaso" into "Vaso Patejdl".
func reorderIfSurnameFirst(name string) string {
	left, right, ok := strings.Cut(name, ",")
	if !ok {
		return name
	}
	left = strings.TrimSpace(left)
	right = strings.TrimSpace(right)
	if left == "" || right == "" {
		return name
	}
	return right + " " + left
}

// fold converts s to a casefolded ASCII form by NFKD decomposition,
// dropping combining marks and any rune that still is not ASCII.
func fold(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
