package discovery

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hairdata/haira/internal/fetch"
	"github.com/hairdata/haira/internal/models"
)

// DOMCrawlAdapter renders each entrypoint through the shared fetcher
// and harvests same-domain anchors. The fallback for storefronts
// without a usable sitemap.
type DOMCrawlAdapter struct {
	fetcher fetch.Fetcher
}

func NewDOMCrawlAdapter(f fetch.Fetcher) *DOMCrawlAdapter {
	return &DOMCrawlAdapter{fetcher: f}
}

func (a *DOMCrawlAdapter) Name() string { return "dom_crawl" }

func (a *DOMCrawlAdapter) Discover(ctx context.Context, bp *Blueprint) ([]models.DiscoveredURL, error) {
	if a.fetcher == nil {
		log.Printf("no fetcher configured, skipping dom crawl")
		return nil, nil
	}
	pattern := bp.ProductPattern()

	seen := make(map[string]bool)
	var ordered []string
	for _, ep := range bp.Entrypoints {
		pageHTML, err := a.fetcher.Fetch(ctx, ep, bp.Extraction.WaitForSelector)
		if err != nil {
			log.Printf("failed to crawl %s: %v", ep, err)
			continue
		}
		links := extractLinks(pageHTML, ep, bp.AllowedDomains)
		log.Printf("crawled %d links from %s", len(links), ep)
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
		discovered = append(discovered, classified(u, "dom_crawl", pattern))
	}
	return discovered, nil
}

// extractLinks resolves every anchor against the page URL, keeps the
// allowed-domain ones, and strips query strings and fragments.
func extractLinks(pageHTML, baseURL string, allowedDomains []string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		full := base.ResolveReference(ref)
		if !fetch.AllowedDomain(full.String(), allowedDomains) {
			return
		}
		clean := full.Scheme + "://" + full.Host + full.Path
		if !seen[clean] {
			seen[clean] = true
			links = append(links, clean)
		}
	})
	return links
}
