// Package discovery turns a brand record into a crawlable surface: a
// per-brand blueprint describing where products live, and the adapters
// that walk those surfaces to produce candidate URLs.
package discovery

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hairdata/haira/internal/models"
)

// Blueprint is the per-brand configuration file. Unknown YAML keys are
// ignored on load so older blueprints keep working.
type Blueprint struct {
	BrandSlug      string           `yaml:"brand_slug"`
	BrandName      string           `yaml:"brand_name"`
	Platform       string           `yaml:"platform"`
	Domain         string           `yaml:"domain"`
	AllowedDomains []string         `yaml:"allowed_domains"`
	Entrypoints    []string         `yaml:"entrypoints"`
	Discovery      DiscoveryConfig  `yaml:"discovery"`
	Extraction     ExtractionConfig `yaml:"extraction"`
	Version        int              `yaml:"version"`
}

type DiscoveryConfig struct {
	Strategy          string     `yaml:"strategy"`
	SitemapURLs       []string   `yaml:"sitemap_urls"`
	ProductURLPattern string     `yaml:"product_url_pattern"`
	MaxPages          int        `yaml:"max_pages"`
	SFCCCategories    []string   `yaml:"sfcc_categories,omitempty"`
	Pagination        Pagination `yaml:"pagination"`
}

type Pagination struct {
	Type     string `yaml:"type"`
	MaxPages int    `yaml:"max_pages"`
}

type ExtractionConfig struct {
	InciSelectors   []string `yaml:"inci_selectors"`
	NameSelectors   []string `yaml:"name_selectors"`
	ImageSelectors  []string `yaml:"image_selectors"`
	WaitForSelector string   `yaml:"wait_for_selector"`
	UseLLMFallback  bool     `yaml:"use_llm_fallback"`
}

const defaultMaxPages = 500

func (d DiscoveryConfig) maxPages() int {
	if d.MaxPages <= 0 {
		return defaultMaxPages
	}
	return d.MaxPages
}

// ProductPattern compiles the blueprint's product_url_pattern. Returns
// nil when unset or invalid; the classifier then falls back to its
// built-in indicators.
func (b *Blueprint) ProductPattern() *regexp.Regexp {
	if b.Discovery.ProductURLPattern == "" {
		return nil
	}
	re, err := regexp.Compile(b.Discovery.ProductURLPattern)
	if err != nil {
		log.Printf("invalid product_url_pattern for %s: %v", b.BrandSlug, err)
		return nil
	}
	return re
}

var platformPatterns = []struct {
	name     string
	patterns []*regexp.Regexp
}{
	{"vtex", compilePatterns(
		`\.vtexcommercestable\.com`, `\.vteximg\.com`,
		`/api/catalog_system/`, `vtex`,
	)},
	{"shopify", compilePatterns(
		`\.myshopify\.com`, `/collections/`, `cdn\.shopify\.com`,
	)},
	{"woocommerce", compilePatterns(
		`/wp-content/`, `/wp-json/wc/`, `woocommerce`,
	)},
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return res
}

// Selector packs that usually find the ingredient block on each shop
// platform. Platforms without a pack share the custom one.
var defaultInciSelectors = map[string][]string{
	"vtex": {
		".vtex-store-components-3-x-productDescriptionText p",
		".vtex-tab-layout-0-x-contentContainer p",
		"#tab-ingredientes p", "#tab-composicao p",
	},
	"shopify": {
		".product__description p", ".product-single__description p",
		".product-description p",
	},
	"custom": {
		".product-ingredients p", ".product-ingredients",
		"#ingredientes p", "#composicao p",
		"[data-tab='ingredientes'] p",
		".product-description p",
	},
}

// DetectPlatform guesses the shop platform from markers in the URL.
func DetectPlatform(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, p := range platformPatterns {
		for _, re := range p.patterns {
			if re.MatchString(lower) {
				return p.name
			}
		}
	}
	return "custom"
}

// Generate builds a fresh blueprint for a brand. Pass platform "" to
// detect it from the brand's root URL.
func Generate(brand models.Brand, platform string) *Blueprint {
	if platform == "" {
		platform = DetectPlatform(brand.OfficialURLRoot)
	}

	domain := ""
	if parsed, err := url.Parse(brand.OfficialURLRoot); err == nil {
		domain = parsed.Hostname()
	}

	entrypoints := append([]string(nil), brand.CatalogEntrypoints...)
	if len(entrypoints) == 0 && brand.OfficialURLRoot != "" {
		entrypoints = []string{brand.OfficialURLRoot}
	}

	var allowed []string
	if domain != "" {
		allowed = []string{domain}
	}

	inci, ok := defaultInciSelectors[platform]
	if !ok {
		inci = defaultInciSelectors["custom"]
	}

	return &Blueprint{
		BrandSlug:      brand.BrandSlug,
		BrandName:      brand.BrandName,
		Platform:       platform,
		Domain:         domain,
		AllowedDomains: allowed,
		Entrypoints:    entrypoints,
		Discovery: DiscoveryConfig{
			Strategy:    "sitemap_first",
			SitemapURLs: []string{strings.TrimRight(brand.OfficialURLRoot, "/") + "/sitemap.xml"},
			MaxPages:    defaultMaxPages,
			Pagination:  Pagination{Type: "scroll", MaxPages: 10},
		},
		Extraction: ExtractionConfig{
			InciSelectors:  inci,
			NameSelectors:  []string{"h1.product-name", "h1", ".product-title", ".product-name"},
			ImageSelectors: []string{".product-image img", "img.product-img", ".gallery img"},
			UseLLMFallback: true,
		},
		Version: 1,
	}
}

// Save writes the blueprint to <dir>/<slug>.yaml, creating the
// directory when needed. Returns the written path.
func Save(bp *Blueprint, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create blueprints dir: %w", err)
	}
	data, err := yaml.Marshal(bp)
	if err != nil {
		return "", fmt.Errorf("marshal blueprint: %w", err)
	}
	path := filepath.Join(dir, bp.BrandSlug+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blueprint: %w", err)
	}
	log.Printf("saved blueprint to %s", path)
	return path, nil
}

// Load reads <dir>/<slug>.yaml. A missing file returns nil without an
// error so callers can decide whether to generate one.
func Load(brandSlug, dir string) (*Blueprint, error) {
	path := filepath.Join(dir, brandSlug+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read blueprint: %w", err)
	}
	var bp Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("parse blueprint %s: %w", path, err)
	}
	return &bp, nil
}
