package discovery

import (
	"context"
	"log"
	"regexp"

	"github.com/hairdata/haira/internal/classify"
	"github.com/hairdata/haira/internal/models"
)

// Adapter is one strategy for finding product URLs on a storefront.
type Adapter interface {
	Name() string
	Discover(ctx context.Context, bp *Blueprint) ([]models.DiscoveredURL, error)
}

// Discoverer fans a blueprint out to every adapter and merges the
// results. The first adapter to report a URL wins; later duplicates
// are dropped.
type Discoverer struct {
	adapters []Adapter
}

func NewDiscoverer(adapters ...Adapter) *Discoverer {
	return &Discoverer{adapters: adapters}
}

// Discover runs all adapters. Adapter failures are logged and skipped;
// a storefront with a broken sitemap can still be crawled.
func (d *Discoverer) Discover(ctx context.Context, bp *Blueprint) []models.DiscoveredURL {
	seen := make(map[string]bool)
	var merged []models.DiscoveredURL

	for _, a := range d.adapters {
		results, err := a.Discover(ctx, bp)
		if err != nil {
			log.Printf("adapter %s failed: %v", a.Name(), err)
			continue
		}
		log.Printf("adapter %s: found %d URLs", a.Name(), len(results))
		for _, item := range results {
			if seen[item.URL] {
				continue
			}
			seen[item.URL] = true
			merged = append(merged, item)
		}
	}

	hair, kits := 0, 0
	for _, item := range merged {
		if item.HairRelevant {
			hair++
		}
		if item.IsKit {
			kits++
		}
	}
	log.Printf("total discovered: %d URLs (%d hair-relevant, %d kits)", len(merged), hair, kits)
	return merged
}

// classified tags one URL with its type verdict.
func classified(rawURL, sourceType string, pattern *regexp.Regexp) models.DiscoveredURL {
	t := classify.Classify(rawURL, pattern)
	return models.DiscoveredURL{
		URL:                 rawURL,
		SourceType:          sourceType,
		HairRelevant:        t == models.URLTypeProduct || t == models.URLTypeCategory,
		HairRelevanceReason: "url_type=" + string(t),
		IsKit:               t == models.URLTypeKit,
	}
}
