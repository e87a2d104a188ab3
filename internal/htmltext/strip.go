// Package htmltext extracts plain text from the study client's essay markup.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// Strip removes markup from an HTML fragment and returns the text content.
// Text nodes are trimmed and joined with a single space; non-breaking
// spaces are normalized to plain spaces.
func Strip(fragment string) string {
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		// The tokenizer recovers from any byte sequence; Parse only fails
		// on reader errors, which strings.Reader never produces.
		return fragment
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(strings.ReplaceAll(n.Data, " ", " ")); s != "" {
				parts = append(parts, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	return strings.Join(parts, " ")
}
