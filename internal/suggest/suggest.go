// Package suggest provides fuzzy matching for task ids, option ids and
// command names using Levenshtein distance.
package suggest

import (
	"sort"
	"strings"
)

// levenshtein calculates the edit distance between two strings
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Closest returns up to three candidates near unknown, best first.
// Comparison ignores case and leading dashes.
func Closest(unknown string, candidates []string) []string {
	norm := func(s string) string { return strings.ToLower(strings.TrimLeft(s, "-")) }
	target := norm(unknown)

	type scored struct {
		value string
		score int
	}
	var found []scored
	maxDist := max(2, len(target)/2)
	for _, c := range candidates {
		if d := levenshtein(target, norm(c)); d <= maxDist {
			found = append(found, scored{c, d})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].score < found[j].score })

	var result []string
	for i := 0; i < len(found) && i < 3; i++ {
		result = append(result, found[i].value)
	}
	return result
}

// Hint formats Closest's result as a "did you mean" suffix, or "" when
// nothing is close.
func Hint(unknown string, candidates []string) string {
	matches := Closest(unknown, candidates)
	if len(matches) == 0 {
		return ""
	}
	return " (did you mean " + strings.Join(matches, ", ") + "?)"
}
