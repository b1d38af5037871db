// Package jaccard measures string dissimilarity over k-shingle sets.
package jaccard

import (
	"regexp"
)

var whitespace = regexp.MustCompile(`\s+`)

// Shingles returns the set of k-rune substrings of s after collapsing
// whitespace runs to a single space. Strings shorter than k yield an empty set.
func Shingles(s string, k int) map[string]struct{} {
	runes := []rune(whitespace.ReplaceAllString(s, " "))
	set := make(map[string]struct{})

	for i := 0; i+k <= len(runes); i++ {
		set[string(runes[i:i+k])] = struct{}{}
	}

	return set
}

// Similarity returns |A ∩ B| / |A ∪ B| over the k-shingles of a and b.
// Equal strings are fully similar; distinct strings with no shingles at all
// are fully dissimilar.
func Similarity(a, b string, k int) float64 {
	if a == b {
		return 1
	}

	sa, sb := Shingles(a, k), Shingles(b, k)

	inter := 0

	for sh := range sa {
		if _, ok := sb[sh]; ok {
			inter++
		}
	}

	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}

	return float64(inter) / float64(union)
}

// Distance returns 1 - Similarity(a, b, k).
func Distance(a, b string, k int) float64 {
	return 1 - Similarity(a, b, k)
}

// Bigram returns the bigram Jaccard distance between a and b.
func Bigram(a, b string) float64 {
	return Distance(a, b, 2)
}
