package discovery

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hairdata/haira/internal/fetch"
	"github.com/hairdata/haira/internal/models"
)

// sz=500 pulls a whole category grid in one request on Demandware
// storefronts.
const sfccPageSize = 500

var sfccSkipPaths = []string{"/on/demandware", "/busca/", "/carrinho", "/login", "/wishlist"}

// SFCCAdapter walks Demandware/SFCC category grids through the
// storefront's ajax search endpoint. Each product tile contributes its
// first .html link. Only runs when the blueprint lists sfcc_categories.
type SFCCAdapter struct {
	client    *http.Client
	userAgent string
}

func NewSFCCAdapter(userAgent string) *SFCCAdapter {
	return &SFCCAdapter{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: userAgent,
	}
}

func (a *SFCCAdapter) Name() string { return "sfcc_ajax" }

func (a *SFCCAdapter) Discover(ctx context.Context, bp *Blueprint) ([]models.DiscoveredURL, error) {
	cats := bp.Discovery.SFCCCategories
	if len(cats) == 0 {
		return nil, nil
	}
	base := sfccBase(bp)
	if base == "" {
		return nil, nil
	}
	pattern := bp.ProductPattern()

	seen := make(map[string]bool)
	var ordered []string
	for _, cat := range cats {
		gridURL := fmt.Sprintf("%s/busca/?cgid=%s&format=ajax&start=0&sz=%d",
			base, url.QueryEscape(cat), sfccPageSize)
		pageHTML, err := a.get(ctx, gridURL)
		if err != nil {
			log.Printf("failed category %q: %v", cat, err)
			continue
		}
		links := tileLinks(pageHTML, base, bp.AllowedDomains)
		log.Printf("category %q: %d product links", cat, len(links))
		for _, u := range links {
			if !seen[u] {
				seen[u] = true
				ordered = append(ordered, u)
			}
		}
	}
	if max := bp.Discovery.maxPages(); len(ordered) > max {
		ordered = ordered[:max]
	}

	discovered := make([]models.DiscoveredURL, 0, len(ordered))
	for _, u := range ordered {
		discovered = append(discovered, classified(u, "sfcc_ajax", pattern))
	}
	return discovered, nil
}

// sfccBase prefers the scheme and host of the first parseable
// entrypoint; the bare domain is the https fallback.
func sfccBase(bp *Blueprint) string {
	for _, ep := range bp.Entrypoints {
		if parsed, err := url.Parse(ep); err == nil && parsed.Scheme != "" && parsed.Host != "" {
			return parsed.Scheme + "://" + parsed.Host
		}
	}
	if bp.Domain != "" {
		return "https://" + bp.Domain
	}
	return ""
}

func (a *SFCCAdapter) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// tileLinks takes the first product link out of each grid tile,
// skipping navigation chrome like cart and login links.
func tileLinks(pageHTML, base string, allowedDomains []string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}
	baseURL, err := url.Parse(base + "/")
	if err != nil {
		return nil
	}

	var links []string
	doc.Find(".grid-tile, .product-tile").Each(func(_ int, tile *goquery.Selection) {
		tile.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, _ := sel.Attr("href")
			if !strings.Contains(href, ".html") {
				return true
			}
			for _, skip := range sfccSkipPaths {
				if strings.Contains(href, skip) {
					return true
				}
			}
			href, _, _ = strings.Cut(href, "?")
			ref, err := url.Parse(href)
			if err != nil {
				return true
			}
			full := baseURL.ResolveReference(ref)
			if !fetch.AllowedDomain(full.String(), allowedDomains) {
				return true
			}
			links = append(links, full.String())
			return false
		})
	})
	return links
}
