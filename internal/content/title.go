package content

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// TitleKey canonicalizes a title for reconciliation matching.
//
// Titles typed in the builder and titles echoed back by the backend can
// differ in Unicode composition (decomposed vs. precomposed accents)
// and in incidental whitespace, even when a human would call them the
// same title. Matching on a canonical key instead of the raw string
// keeps reconciliation from treating such pairs as different entities.
//
// Canonicalization: trim surrounding whitespace, normalize to NFC,
// then apply Unicode case folding.
func TitleKey(s string) string {
	// cases.Fold returns a stateful Caser; create one per call rather
	// than sharing across goroutines.
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}
