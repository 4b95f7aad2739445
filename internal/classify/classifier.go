// Package classify tags candidate URLs before extraction. The classifier is
// total: any string in, one of the five URL types out, never an error.
package classify

import (
	"regexp"
	"strings"

	"github.com/hairdata/haira/internal/models"
	"github.com/hairdata/haira/internal/taxonomy"
)

var categoryIndicators = []string{
	"/cabelos/", "/cabelo/", "/hair/", "/produtos/", "/products/",
	"/collections/", "/categoria/", "/category/",
	"/shampoo/", "/condicionador/", "/tratamento/", "/finalizacao/",
	"/masculino/", "/men/",
	"/busca/", "/search/", "/busca?",
}

var productIndicators = []*regexp.Regexp{
	regexp.MustCompile(`-\d+ml`),
	regexp.MustCompile(`-\d+g`),
	regexp.MustCompile(`/p$`),
	regexp.MustCompile(`/p/`),
	regexp.MustCompile(`/p\?`),
	regexp.MustCompile(`-shampoo-`),
	regexp.MustCompile(`-condicionador-`),
	regexp.MustCompile(`-mascara-`),
}

// Informational pages that are never products.
var nonProductPaths = map[string]bool{
	"about": true, "sobre": true, "contato": true, "contact": true, "fale-conosco": true,
	"blog": true, "politica": true, "privacy": true, "terms": true, "termos": true,
	"institucional": true, "quem-somos": true, "faq": true, "ajuda": true, "help": true,
	"trabalhe-conosco": true, "careers": true, "imprensa": true, "press": true,
	"loja-fisica": true, "stores": true, "store-locator": true,
}

// Classify tags a URL as product, category, kit, non_hair, or other.
// productURLPattern is the blueprint-supplied override, nil when absent.
// Matching is case-insensitive; the decision order is fixed and the first
// rule that fires wins.
func Classify(rawURL string, productURLPattern *regexp.Regexp) models.URLType {
	lower := strings.ToLower(rawURL)
	path := lower
	query := ""
	if i := strings.Index(lower, "?"); i >= 0 {
		path = lower[:i]
		query = lower[i+1:]
	}

	if taxonomy.IsKitURL(lower) {
		return models.URLTypeKit
	}

	// Exclusion keywords appear in URLs both verbatim and hyphenated
	// ("body lotion" vs /body-lotion/).
	for _, kw := range taxonomy.ExcludeKeywords {
		for _, form := range []string{kw, strings.ReplaceAll(kw, " ", "-")} {
			if strings.Contains(lower, "/"+form+"/") || strings.HasSuffix(path, "/"+form) {
				return models.URLTypeNonHair
			}
		}
	}

	for _, seg := range pathSegments(path) {
		clean := strings.TrimSuffix(seg, ".html")
		if nonProductPaths[clean] {
			return models.URLTypeOther
		}
	}

	if strings.Contains(query, "cgid=") || strings.Contains(query, "category=") {
		return models.URLTypeCategory
	}

	for _, indicator := range categoryIndicators {
		if !strings.Contains(lower, indicator) {
			continue
		}
		if strings.HasSuffix(strings.TrimRight(lower, "/"), strings.TrimRight(indicator, "/")) {
			return models.URLTypeCategory
		}
		// Short paths with a category segment and no product suffix are
		// listing pages.
		if strings.Count(lower, "/") <= 4 && !matchesProductIndicator(lower) {
			return models.URLTypeCategory
		}
	}

	if productURLPattern != nil && productURLPattern.MatchString(lower) {
		return models.URLTypeProduct
	}
	if matchesProductIndicator(lower) {
		return models.URLTypeProduct
	}

	// Lexical fallback: a hair keyword in a deep or long-slug path reads as
	// a product page, in a shallow path as a category.
	if hasHairKeyword(lower) {
		segs := pathSegments(path)
		if len(segs) >= 2 {
			return models.URLTypeProduct
		}
		if len(segs) == 1 && len(strings.Split(segs[0], "-")) >= 3 {
			return models.URLTypeProduct
		}
		return models.URLTypeCategory
	}

	return models.URLTypeOther
}

func matchesProductIndicator(lower string) bool {
	for _, p := range productIndicators {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// hasHairKeyword checks the high-precision head of the keyword table in its
// URL-shaped forms (hyphenated and collapsed).
func hasHairKeyword(lower string) bool {
	head := taxonomy.HairKeywords
	if len(head) > 20 {
		head = head[:20]
	}
	for _, kw := range head {
		if strings.Contains(lower, strings.ReplaceAll(kw, " ", "-")) ||
			strings.Contains(lower, strings.ReplaceAll(kw, " ", "")) {
			return true
		}
	}
	return false
}

// pathSegments returns the path parts after the scheme and host; relative
// inputs yield whatever follows their first three slash-separated parts,
// mirroring how absolute URLs are sliced.
func pathSegments(path string) []string {
	parts := strings.Split(path, "/")
	if len(parts) <= 3 {
		return nil
	}
	var segs []string
	for _, s := range parts[3:] {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
