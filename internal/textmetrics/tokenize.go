// Package textmetrics provides tokenization-based measures over essay
// text: type-token ratio and n-gram extraction.
package textmetrics

import (
	"strings"
	"unicode"
)

// Tokenize splits text into word and punctuation tokens. Contiguous runs
// of letters/digits (plus internal apostrophes and hyphens) form word
// tokens; each other non-space rune is its own token.
func Tokenize(text string) []string {
	var tokens []string
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	runes := []rune(text)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		case (r == '\'' || r == '-') && word.Len() > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			// Keep word-internal apostrophes and hyphens ("don't",
			// "well-known") inside the token.
			word.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, string(r))
		}
	}
	flush()
	return tokens
}

// englishStopwords is the usual short list of high-frequency function
// words removed before n-gram comparison.
var englishStopwords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"all": true, "am": true, "an": true, "and": true, "any": true,
	"are": true, "as": true, "at": true, "be": true, "because": true,
	"been": true, "before": true, "being": true, "below": true,
	"between": true, "both": true, "but": true, "by": true, "can": true,
	"did": true, "do": true, "does": true, "doing": true, "down": true,
	"during": true, "each": true, "few": true, "for": true, "from": true,
	"further": true, "had": true, "has": true, "have": true,
	"having": true, "he": true, "her": true, "here": true, "hers": true,
	"him": true, "his": true, "how": true, "i": true, "if": true,
	"in": true, "into": true, "is": true, "it": true, "its": true,
	"just": true, "me": true, "more": true, "most": true, "my": true,
	"no": true, "nor": true, "not": true, "now": true, "of": true,
	"off": true, "on": true, "once": true, "only": true, "or": true,
	"other": true, "our": true, "out": true, "over": true, "own": true,
	"same": true, "she": true, "so": true, "some": true, "such": true,
	"than": true, "that": true, "the": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true,
	"this": true, "those": true, "through": true, "to": true, "too": true,
	"under": true, "until": true, "up": true, "very": true, "was": true,
	"we": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "who": true, "whom": true, "why": true,
	"will": true, "with": true, "you": true, "your": true, "yours": true,
}

// IsStopword reports whether token is an English stopword (case
// insensitive).
func IsStopword(token string) bool {
	return englishStopwords[strings.ToLower(token)]
}

// isPunctuation reports whether the token is a single punctuation rune.
func isPunctuation(token string) bool {
	r := []rune(token)
	if len(r) != 1 {
		return false
	}
	return unicode.IsPunct(r[0]) || unicode.IsSymbol(r[0])
}
