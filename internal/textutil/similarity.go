package textutil

import (
	"slices"
	"strings"
)

// TitleSimilarity compares two titles after folding and article removal. It is
// the better of the plain edit-distance ratio and the token-sort ratio, so word
// order ("Matrix, The") does not count against a match.
func TitleSimilarity(a, b string) float64 {
	fa := StripArticle(Fold(a))
	fb := StripArticle(Fold(b))
	if fa == "" || fb == "" {
		return 0
	}
	if fa == fb {
		return 1
	}
	return max(LevenshteinRatio(fa, fb), TokenSortRatio(fa, fb))
}

// TokenSortRatio compares the sorted token sequences of a and b.
func TokenSortRatio(a, b string) float64 {
	return LevenshteinRatio(sortedTokens(a), sortedTokens(b))
}

// LevenshteinRatio returns 1 - distance/maxLen over runes. Two empty strings
// are identical.
func LevenshteinRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
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
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}
