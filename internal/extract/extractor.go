package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hairdata/haira/internal/models"
)

// Options carries the blueprint selector lists for a brand. Empty lists
// fall back to selectors that cover the common storefront themes.
type Options struct {
	NameSelectors  []string
	InciSelectors  []string
	ImageSelectors []string
}

// Result holds the raw field values pulled from one product page. The
// ingredient text is raw: validation and splitting happen downstream.
type Result struct {
	ProductName  string
	ImageURLMain string
	InciRaw      string
	InciLocator  string
	Description  string
	Price        *float64
	Currency     string
	Method       models.ExtractionMethod
	Evidence     []models.Evidence
}

var (
	defaultNameSelectors = []string{"h1.product-name", "h1", ".product-title"}
	defaultInciSelectors = []string{
		".product-ingredients p", ".product-ingredients",
		"#composicao", "#ingredientes",
		"[data-tab='ingredientes']",
	}
	defaultImageSelectors = []string{".product-image", "img.product-img"}
)

// Extract runs the deterministic strategy chain over one product page.
// Structured data is read first, then blueprint CSS selectors fill the
// gaps, then the label-proximity heuristic for ingredients, then the
// Open Graph image as a last resort. Later strategies never overwrite a
// field an earlier one set.
func Extract(pageHTML, pageURL string, opts Options) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	res := &Result{}

	if p := extractJSONLD(doc); p != nil {
		if p.Name != "" {
			res.ProductName = p.Name
			res.Evidence = append(res.Evidence, NewEvidence(
				"product_name", pageURL, "json-ld @type=Product .name", p.Name, models.MethodJSONLD))
		}
		if p.Image != "" {
			res.ImageURLMain = p.Image
			res.Evidence = append(res.Evidence, NewEvidence(
				"image_url_main", pageURL, "json-ld @type=Product .image", p.Image, models.MethodJSONLD))
		}
		if p.Description != "" {
			res.Description = p.Description
			res.Evidence = append(res.Evidence, NewEvidence(
				"description", pageURL, "json-ld @type=Product .description", p.Description, models.MethodJSONLD))
		}
		if p.Price != nil {
			res.Price = p.Price
			res.Currency = p.Currency
		}
		res.Method = models.MethodJSONLD
	}

	nameSels := opts.NameSelectors
	if len(nameSels) == 0 {
		nameSels = defaultNameSelectors
	}
	inciSels := opts.InciSelectors
	if len(inciSels) == 0 {
		inciSels = defaultInciSelectors
	}
	imageSels := opts.ImageSelectors
	if len(imageSels) == 0 {
		imageSels = defaultImageSelectors
	}

	if res.ProductName == "" {
		for _, sel := range nameSels {
			if text := collapseSpace(doc.Find(sel).First().Text()); text != "" {
				res.ProductName = text
				res.Evidence = append(res.Evidence, NewEvidence(
					"product_name", pageURL, sel, text, models.MethodHTMLSelector))
				break
			}
		}
	}

	for _, sel := range inciSels {
		if text := collapseSpace(doc.Find(sel).First().Text()); text != "" {
			res.InciRaw = text
			res.InciLocator = sel
			break
		}
	}
	if res.InciRaw == "" {
		if content, locator, ok := extractInciByLabels(doc); ok {
			res.InciRaw = content
			res.InciLocator = locator
		}
	}
	if res.InciRaw != "" {
		res.Evidence = append(res.Evidence, NewEvidence(
			"inci_ingredients", pageURL, res.InciLocator, TruncateBytes(res.InciRaw, 500), models.MethodHTMLSelector))
		if res.Method == "" {
			res.Method = models.MethodHTMLSelector
		}
	}

	if res.ImageURLMain == "" {
		for _, sel := range imageSels {
			el := doc.Find(sel).First()
			if el.Length() == 0 {
				continue
			}
			src, ok := el.Attr("src")
			if !ok || src == "" {
				src, _ = el.Attr("data-src")
			}
			if src != "" {
				res.ImageURLMain = src
				res.Evidence = append(res.Evidence, NewEvidence(
					"image_url_main", pageURL, sel, src, models.MethodHTMLSelector))
				break
			}
		}
	}
	if res.ImageURLMain == "" {
		if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && content != "" {
			res.ImageURLMain = content
			res.Evidence = append(res.Evidence, NewEvidence(
				"image_url_main", pageURL, `meta[property="og:image"]`, content, models.MethodHTMLSelector))
		}
	}

	return res, nil
}
