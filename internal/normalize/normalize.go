// Package normalize produces the stable matching keys used to group events
// into applications. Normalization is deterministic and total: two strings
// that differ only by case, surrounding whitespace, or unicode form yield the
// same key.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold decomposes, strips combining marks, and recomposes, so "Café" and
// "Café" collapse to the same key.
var fold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFKC,
)

// Key returns the canonical matching key for a free-text company or role
// string: unicode-folded, lowercased, trimmed, internal whitespace collapsed.
func Key(s string) string {
	out, _, err := transform.String(fold, s)
	if err != nil {
		// Fold failures fall back to the raw string; lowercase+trim still
		// satisfies the matching contract.
		out = s
	}
	out = strings.ToLower(strings.TrimSpace(out))
	return strings.Join(strings.Fields(out), " ")
}
