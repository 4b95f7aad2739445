package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Labels that mark an ingredient section, most specific first. The
// index in this list is the candidate priority: a match on a specific
// label always beats a match on a generic one, regardless of document
// order.
var inciTabLabels = []string{
	"lista completa de ingredientes",
	"full ingredient list",
	"composição completa",
	"composição do produto",
	"composição",
	"composicao",
	"ingredientes",
	"ingredients",
	"inci",
}

// UI text that leaks into tab content from filter buttons.
var tabNoisePrefixes = []string{
	"todos", "all", "ver todos", "mostrar todos", "ver mais",
}

// Containers used by collapsible/tab widgets whose label sits in the
// preceding sibling.
var tabContentClasses = []string{
	"collapse__content", "tab-content", "tab-pane", "accordion-content",
}

type inciCandidate struct {
	content  string
	locator  string
	priority int
}

// extractInciByLabels scans the page for ingredient sections anchored
// to a known label. Every labelled element contributes candidates from
// several positions (inline remainder, siblings, downstream paragraph,
// parent section); the lowest-priority candidate wins, ties going to
// the first one gathered.
func extractInciByLabels(doc *goquery.Document) (content, locator string, ok bool) {
	var cands []inciCandidate
	add := func(raw, loc string, priority int) {
		text := cleanTabContent(collapseSpace(raw))
		if qualifiesAsInci(text) {
			cands = append(cands, inciCandidate{content: text, locator: loc, priority: priority})
		}
	}

	doc.Find("button, h2, h3, h4, a, span, div").Each(func(_ int, el *goquery.Selection) {
		text := collapseSpace(el.Text())
		label, priority, matched := matchInciLabel(text)
		if !matched {
			return
		}

		// Wrapper: the element's own text runs past the label. Inside a
		// wrapper, a paragraph that already looks like an ingredient list
		// beats the raw remainder, which may mix in marketing copy.
		if rest := afterLabel(text, label); utf8.RuneCountInString(rest) >= 30 {
			wrapped := rest
			el.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
				if t := collapseSpace(p.Text()); qualifiesAsInci(t) {
					wrapped = t
					return false
				}
				return true
			})
			add(wrapped, "tab-wrapper:"+label, priority)
		}

		if sib := el.Next(); sib.Length() > 0 {
			add(sib.Text(), "tab-label:"+label, priority)
		}

		if isHeading(el) {
			if p := nextParagraphText(el); p != "" {
				add(p, "tab-heading-p:"+label, priority)
			}
		}

		if parent := el.Parent(); parent.Length() > 0 {
			ptext := collapseSpace(parent.Text())
			if rest := afterLabelAnywhere(ptext, label); rest != "" {
				add(rest, "tab-parent:"+label, priority)
			}
			if ps := parent.Next(); ps.Length() > 0 {
				add(ps.Text(), "tab-label-parent:"+label, priority)
			}
		}
	})

	for _, cls := range tabContentClasses {
		doc.Find("." + cls).Each(func(_ int, el *goquery.Selection) {
			prev := el.Prev()
			if prev.Length() == 0 {
				return
			}
			ptext := strings.ToLower(collapseSpace(prev.Text()))
			for i, label := range inciTabLabels {
				if strings.Contains(ptext, label) {
					add(el.Text(), "."+cls, i)
					break
				}
			}
		})
	}

	best := -1
	for i, c := range cands {
		if best == -1 || c.priority < cands[best].priority {
			best = i
		}
	}
	if best == -1 {
		return "", "", false
	}
	return cands[best].content, cands[best].locator, true
}

// matchInciLabel reports whether text reads as (or starts with) one of
// the known labels, returning the label and its priority.
func matchInciLabel(text string) (string, int, bool) {
	runes := []rune(text)
	for i, label := range inciTabLabels {
		n := utf8.RuneCountInString(label)
		if len(runes) < n {
			continue
		}
		if strings.EqualFold(string(runes[:n]), label) {
			return label, i, true
		}
	}
	return "", 0, false
}

// afterLabel returns the text following a leading label, or "" when the
// label is not a prefix.
func afterLabel(text, label string) string {
	runes := []rune(text)
	n := utf8.RuneCountInString(label)
	if len(runes) < n || !strings.EqualFold(string(runes[:n]), label) {
		return ""
	}
	return strings.TrimSpace(string(runes[n:]))
}

// afterLabelAnywhere returns the text following the first occurrence of
// the label anywhere in text, or "" when absent.
func afterLabelAnywhere(text, label string) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, label)
	if idx < 0 || idx+len(label) > len(text) {
		return ""
	}
	return strings.TrimSpace(text[idx+len(label):])
}

// qualifiesAsInci is the minimum bar for candidate content: long enough
// to be a list and carrying at least one list separator.
func qualifiesAsInci(text string) bool {
	return utf8.RuneCountInString(text) > 30 && strings.ContainsAny(text, ",●•·")
}

func cleanTabContent(text string) string {
	for _, prefix := range tabNoisePrefixes {
		if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
			text = strings.TrimSpace(text[len(prefix):])
		}
	}
	return text
}

func isHeading(el *goquery.Selection) bool {
	if len(el.Nodes) == 0 || el.Nodes[0].Type != html.ElementNode {
		return false
	}
	switch el.Nodes[0].Data {
	case "h2", "h3", "h4":
		return true
	}
	return false
}

// nextParagraphText finds the first <p> after the element in document
// order, at any depth.
func nextParagraphText(el *goquery.Selection) string {
	if len(el.Nodes) == 0 {
		return ""
	}
	for n := skipChildren(el.Nodes[0]); n != nil; n = nextNode(n) {
		if n.Type == html.ElementNode && n.Data == "p" {
			var b strings.Builder
			collectText(n, &b)
			return collapseSpace(b.String())
		}
	}
	return ""
}

// skipChildren positions the walk just before the node's next sibling
// so the element's own subtree is not revisited.
func skipChildren(n *html.Node) *html.Node {
	for n != nil && n.NextSibling == nil {
		n = n.Parent
	}
	if n == nil {
		return nil
	}
	return n.NextSibling
}

// nextNode advances one step in a depth-first walk of the document.
func nextNode(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for n != nil {
		if n.NextSibling != nil {
			return n.NextSibling
		}
		n = n.Parent
	}
	return nil
}
