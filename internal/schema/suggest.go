package schema

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// editCosts counts a substitution as one edit, like a typo.
var editCosts = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// closest returns the candidate nearest to s by edit distance, or "" when
// nothing is close enough to be a plausible typo. Ties go to the earlier
// candidate, so callers pass candidates in a stable order.
func closest(s string, candidates []string) string {
	target := []rune(strings.ToLower(s))
	limit := max(2, len(target)/3)

	best, bestDist := "", limit+1
	for _, c := range candidates {
		d := levenshtein.DistanceForStrings(target, []rune(strings.ToLower(c)), editCosts)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
