package match

import (
	"cmp"
	"slices"
)

// Levenshtein computes the edit distance between two strings.
//
// Time complexity: O(len(a) * len(b))
// Space complexity: O(min(len(a), len(b))).
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	if len(a) == 0 {
		return len(b)
	}

	if len(b) == 0 {
		return len(a)
	}

	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			curr[i] = min(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[len(a)]
}

// Similarity returns 1 - distance/maxLen of the normalized identifiers:
// 1.0 for identical names, 0.0 for completely different ones.
func Similarity(a, b string) float64 {
	na, nb := NormalizeIdent(a), NormalizeIdent(b)
	if len(na) == 0 && len(nb) == 0 {
		return 1.0
	}

	return 1.0 - float64(Levenshtein(na, nb))/float64(max(len(na), len(nb)))
}

// DefaultSuggestScore is the minimum similarity for a suggestion.
const DefaultSuggestScore = 0.6

// Suggest returns up to limit candidates similar to name, best first.
// Ties keep candidate order.
func Suggest(name string, candidates []string, limit int) []string {
	type scored struct {
		name  string
		score float64
	}

	var ranked []scored

	for _, c := range candidates {
		if c == name {
			continue
		}

		if s := Similarity(name, c); s >= DefaultSuggestScore {
			ranked = append(ranked, scored{c, s})
		}
	}

	slices.SortStableFunc(ranked, func(x, y scored) int {
		return cmp.Compare(y.score, x.score)
	})

	out := make([]string, 0, min(limit, len(ranked)))
	for i := 0; i < len(ranked) && i < limit; i++ {
		out = append(out, ranked[i].name)
	}

	return out
}
