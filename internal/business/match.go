package business

import (
	"strings"
	"unicode"
)

// tokens splits s into distinct lowercase words.
func tokens(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[f] = struct{}{}
	}
	return out
}

// Score counts the distinct words query and candidate have in common.
func Score(query, candidate string) int {
	q := tokens(query)
	n := 0
	for t := range tokens(candidate) {
		if _, ok := q[t]; ok {
			n++
		}
	}
	return n
}

// BestMatch picks the item whose name shares the most words with query.
// Items must be in insertion order: on a tie the earlier item wins. No item
// is returned when nothing overlaps.
func BestMatch[T any](query string, items []T, name func(T) string) (T, bool) {
	var (
		best      T
		bestScore int
	)
	for _, it := range items {
		if sc := Score(query, name(it)); sc > bestScore {
			best, bestScore = it, sc
		}
	}
	return best, bestScore > 0
}
