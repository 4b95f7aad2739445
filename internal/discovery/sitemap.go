package discovery

import (
	"context"
	"encoding/xml"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hairdata/haira/internal/models"
)

// SitemapAdapter reads the blueprint's sitemap URLs, following nested
// sitemap indexes. Sitemaps are static XML, so the adapter carries its
// own short-timeout HTTP client instead of the rendering fetcher.
type SitemapAdapter struct {
	client *http.Client
}

func NewSitemapAdapter() *SitemapAdapter {
	return &SitemapAdapter{client: &http.Client{Timeout: 15 * time.Second}}
}

func (a *SitemapAdapter) Name() string { return "sitemap" }

// Tag names have no namespace so both plain and namespaced sitemaps
// unmarshal.
type sitemapDoc struct {
	Sitemaps []sitemapLoc `xml:"sitemap"`
	URLs     []sitemapLoc `xml:"url"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

func (a *SitemapAdapter) Discover(ctx context.Context, bp *Blueprint) ([]models.DiscoveredURL, error) {
	pattern := bp.ProductPattern()

	seen := make(map[string]bool)
	var ordered []string
	for _, sitemapURL := range bp.Discovery.SitemapURLs {
		text := a.fetchSitemap(ctx, sitemapURL)
		if text == "" {
			continue
		}
		parsed := a.parseURLs(ctx, text)
		log.Printf("found %d URLs in %s", len(parsed), sitemapURL)
		for _, u := range parsed {
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
		discovered = append(discovered, classified(u, "sitemap", pattern))
	}
	return discovered, nil
}

func (a *SitemapAdapter) fetchSitemap(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	resp, err := a.client.Do(req)
	if err != nil {
		log.Printf("failed to fetch sitemap %s: %v", rawURL, err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return text
}

// parseURLs collects page URLs, recursing into any referenced child
// sitemaps.
func (a *SitemapAdapter) parseURLs(ctx context.Context, xmlText string) []string {
	var doc sitemapDoc
	if err := xml.Unmarshal([]byte(xmlText), &doc); err != nil {
		log.Printf("failed to parse sitemap xml: %v", err)
		return nil
	}

	var urls []string
	for _, sm := range doc.Sitemaps {
		loc := strings.TrimSpace(sm.Loc)
		if loc == "" {
			continue
		}
		if child := a.fetchSitemap(ctx, loc); child != "" {
			urls = append(urls, a.parseURLs(ctx, child)...)
		}
	}
	for _, u := range doc.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls
}
