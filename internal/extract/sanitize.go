package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Sanitize reduces an HTML fragment to readable text: tags are dropped,
// entities decoded and whitespace collapsed to single spaces. Script and
// style contents never make it into the output.
func Sanitize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return collapseSpace(raw)
	}
	var b strings.Builder
	collectText(root, &b)
	return collapseSpace(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
