package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonldProduct is the subset of a schema.org Product node the
// extractor reads.
type jsonldProduct struct {
	Name        string
	Image       string
	Description string
	Price       *float64
	Currency    string
}

// extractJSONLD returns the first Product node found in the page's
// ld+json script blocks, or nil. Nodes may appear at the top level, in
// a list or under @graph.
func extractJSONLD(doc *goquery.Document) *jsonldProduct {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if node := findProductNode(data); node != nil {
			found = node
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}

	// Descriptions in ld+json blocks routinely carry embedded markup.
	p := &jsonldProduct{
		Name:        stringField(found["name"]),
		Image:       imageURL(found["image"]),
		Description: Sanitize(stringField(found["description"])),
	}
	offers := found["offers"]
	if list, ok := offers.([]any); ok && len(list) > 0 {
		offers = list[0]
	}
	if offer, ok := offers.(map[string]any); ok {
		if price, ok := parsePrice(offer["price"]); ok {
			p.Price = &price
			p.Currency = stringField(offer["priceCurrency"])
			if p.Currency == "" {
				p.Currency = "BRL"
			}
		}
	}
	return p
}

func findProductNode(v any) map[string]any {
	switch node := v.(type) {
	case map[string]any:
		if isProductType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"].([]any); ok {
			return findProductNode(graph)
		}
	case []any:
		for _, item := range node {
			if p := findProductNode(item); p != nil {
				return p
			}
		}
	}
	return nil
}

func isProductType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Product"
	case []any:
		for _, item := range t {
			if item == "Product" {
				return true
			}
		}
	}
	return false
}

func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// imageURL accepts the schema.org image shapes seen in the wild: a
// plain URL, a list of URLs, or an ImageObject.
func imageURL(v any) string {
	switch img := v.(type) {
	case string:
		return strings.TrimSpace(img)
	case []any:
		if len(img) > 0 {
			return imageURL(img[0])
		}
	case map[string]any:
		return stringField(img["url"])
	}
	return ""
}

func parsePrice(v any) (float64, bool) {
	switch price := v.(type) {
	case float64:
		return price, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
