// Package textclean normalizes scraped and generated text.
package textclean

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// DefaultMaxChars is the Truncate limit used by Normalize.
const DefaultMaxChars = 500

const ellipsis = "..."

// CleanHTML returns the visible text of an HTML fragment with whitespace
// collapsed. Script and style contents are dropped. Unparseable input is
// returned whitespace-collapsed.
func CleanHTML(raw string) string {
	if raw == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return CleanWhitespace(raw)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return CleanWhitespace(b.String())
}

// CleanWhitespace collapses every run of whitespace to one space and trims
// the ends.
func CleanWhitespace(text string) string {
	return strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
}

// Truncate limits text to maxChars runes, appending "..." when it cut
// anything.
func Truncate(text string, maxChars int) string {
	clipped := Clip(text, maxChars)
	if len(clipped) < len(text) {
		return clipped + ellipsis
	}
	return text
}

// Clip limits text to maxChars runes without marking the cut.
func Clip(text string, maxChars int) string {
	if maxChars < 0 {
		maxChars = 0
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}

// Normalize cleans HTML and whitespace.
func Normalize(text string) string {
	return CleanWhitespace(CleanHTML(text))
}
