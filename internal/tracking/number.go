package tracking

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalNumber trims and uppercases a tracking number. NFKC folds
// full-width characters that sneak in through manual entry on phones.
func CanonicalNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(s)))
}
