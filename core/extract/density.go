// ABOUTME: Text density gate for extractor acceptance
// ABOUTME: Measures visible text against raw markup size using x/net/html

package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// visibleText walks the parsed document and collects text nodes, skipping
// script and style subtrees.
func visibleText(raw []byte) string {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}

// textDensity returns the ratio of visible text length to raw markup
// length. Pages that are mostly boilerplate markup score low even when the
// extractor returns some text.
func textDensity(visible string, rawLen int) float64 {
	if rawLen <= 0 {
		return 0
	}
	return float64(len(visible)) / float64(rawLen)
}
