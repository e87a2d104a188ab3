// Package reliance computes LCS-based reliance metrics: how much of a
// final essay is attributable to accepted autocomplete suggestions.
package reliance

import "strings"

// LongestOverlap computes the character-level longest common subsequence
// of essay and suggestion and returns the substring of the suggestion made
// of the characters that participated in it, in suggestion order.
//
// This approximates how much of the suggestion the user kept: insertions
// the user made inside accepted text do not break the match, because a
// subsequence need not be contiguous in the essay.
func LongestOverlap(essay, suggestion string) string {
	a := []rune(essay)
	b := []rune(suggestion)
	if len(a) == 0 || len(b) == 0 {
		return ""
	}

	// Standard LCS table: dp[i][j] is the LCS length of a[:i] and b[:j].
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	// Backtrack, collecting the suggestion-side characters. They come out
	// in reverse suggestion order.
	kept := make([]rune, 0, dp[len(a)][len(b)])
	i, j := len(a), len(b)
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			kept = append(kept, b[j-1])
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}

	for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
		kept[l], kept[r] = kept[r], kept[l]
	}
	return string(kept)
}

// removeFirst deletes the first exact occurrence of sub from s. If sub
// does not occur contiguously (the user interleaved their own text), s is
// returned unchanged. Only one occurrence is ever consumed, so shared
// characters are not attributed to two different suggestions.
func removeFirst(s, sub string) string {
	if sub == "" {
		return s
	}
	idx := strings.Index(s, sub)
	if idx < 0 {
		return s
	}
	return s[:idx] + s[idx+len(sub):]
}
