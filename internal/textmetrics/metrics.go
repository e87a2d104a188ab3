package textmetrics

import "strings"

// TypeTokenRatio returns the count of distinct lowercased word tokens
// divided by the total word token count. Punctuation tokens are not
// counted. Empty text yields 0.
func TypeTokenRatio(text string) float64 {
	tokens := Tokenize(text)
	seen := make(map[string]bool)
	total := 0
	for _, tok := range tokens {
		if isPunctuation(tok) {
			continue
		}
		total++
		seen[strings.ToLower(tok)] = true
	}
	if total == 0 {
		return 0
	}
	return float64(len(seen)) / float64(total)
}

// NGrams returns the n-grams of the text's content words: tokens are
// lowercased, punctuation and stopwords removed, then joined over a
// sliding window of size n with single spaces.
func NGrams(text string, n int) []string {
	if n <= 0 {
		return nil
	}
	var words []string
	for _, tok := range Tokenize(text) {
		if isPunctuation(tok) {
			continue
		}
		lower := strings.ToLower(tok)
		if englishStopwords[lower] {
			continue
		}
		words = append(words, lower)
	}
	if len(words) < n {
		return nil
	}
	grams := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		grams = append(grams, strings.Join(words[i:i+n], " "))
	}
	return grams
}

// NGramOverlap returns the fraction of a's n-grams that also occur in b.
// 0 when a has no n-grams.
func NGramOverlap(a, b string, n int) float64 {
	aGrams := NGrams(a, n)
	if len(aGrams) == 0 {
		return 0
	}
	bGrams := NGrams(b, n)
	inB := make(map[string]bool, len(bGrams))
	for _, g := range bGrams {
		inB[g] = true
	}
	hits := 0
	for _, g := range aGrams {
		if inB[g] {
			hits++
		}
	}
	return float64(hits) / float64(len(aGrams))
}
