package boundary

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// NormalizeName standardizes a place name for index keys and queries by:
//  1. Trimming whitespace
//  2. Folding diacritics (Peñablanca -> penablanca)
//  3. Converting to lowercase
//  4. Collapsing multiple spaces into single spaces
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	// Decompose, drop combining marks, recompose. The chain carries state,
	// so build it per call rather than sharing a package-level transformer.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, name); err == nil {
		name = folded
	}

	name = strings.ToLower(name)
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
