package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hairdata/haira/internal/classify"
	"github.com/hairdata/haira/internal/config"
	"github.com/hairdata/haira/internal/discovery"
	"github.com/hairdata/haira/internal/models"
	"github.com/hairdata/haira/internal/pipeline"
	"github.com/hairdata/haira/internal/qa"
	"github.com/hairdata/haira/internal/registry"
)

var (
	reconBrand  string
	reconSample int
)

var reconCmd = &cobra.Command{
	Use:   "recon",
	Short: "Discover a brand's URLs and extract a small sample, without persisting",
	RunE:  runRecon,
}

func init() {
	reconCmd.Flags().StringVar(&reconBrand, "brand", "", "Brand slug (required)")
	reconCmd.Flags().IntVar(&reconSample, "sample", 3, "Product pages to sample-extract")
	reconCmd.MarkFlagRequired("brand")
}

func runRecon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	bp, err := loadBlueprint(cfg, reconBrand)
	if err != nil {
		return err
	}

	ctx, stop := runContext()
	defer stop()

	fetcher := newFetcher(cfg, bp)
	defer fetcher.Close()

	discovered := newDiscoverer(cfg, fetcher).Discover(ctx, bp)

	pattern := bp.ProductPattern()
	counts := make(map[models.URLType]int)
	var productURLs []string
	for _, d := range discovered {
		urlType := classify.Classify(d.URL, pattern)
		counts[urlType]++
		if urlType == models.URLTypeProduct {
			productURLs = append(productURLs, d.URL)
		}
	}

	fmt.Printf("Discovery for %s: %d URLs\n", reconBrand, len(discovered))
	for _, urlType := range []models.URLType{
		models.URLTypeProduct, models.URLTypeCategory, models.URLTypeKit,
		models.URLTypeNonHair, models.URLTypeOther,
	} {
		fmt.Printf("  %-8s %d\n", string(urlType)+":", counts[urlType])
	}

	if len(productURLs) == 0 {
		fmt.Println("No product URLs to sample.")
		return nil
	}
	if reconSample < len(productURLs) {
		productURLs = productURLs[:reconSample]
	}

	// Sample extraction stays off the database and off the LLM budget.
	engine := pipeline.NewEngine(nil, fetcher, nil, qa.DefaultConfig())
	fmt.Printf("\nSampling %d product pages:\n", len(productURLs))
	for i, pageURL := range productURLs {
		product, err := engine.ExtractProduct(ctx, pageURL, bp)
		switch {
		case err != nil:
			fmt.Printf("  %d. %s error: %v\n", i+1, pageURL, err)
		case product == nil:
			fmt.Printf("  %d. %s skipped\n", i+1, pageURL)
		default:
			fmt.Printf("  %d. %s inci_terms=%d confidence=%.2f method=%s\n",
				i+1, product.ProductName, len(product.InciIngredients), product.Confidence, product.Method)
		}
	}
	return nil
}

// loadBlueprint reads the brand's blueprint, generating a default one
// from the registry entry when none exists yet.
func loadBlueprint(cfg *config.Config, brandSlug string) (*discovery.Blueprint, error) {
	bp, err := discovery.Load(brandSlug, cfg.Blueprints.Dir)
	if err != nil {
		return nil, err
	}
	if bp != nil {
		return bp, nil
	}

	brands, err := registry.LoadBrands(cfg.Registry.BrandsFile)
	if err != nil {
		return nil, fmt.Errorf("no blueprint for %s and no registry to generate one: %w", brandSlug, err)
	}
	brand := registry.FindBrand(brands, brandSlug)
	if brand == nil {
		return nil, fmt.Errorf("brand %s not in registry %s", brandSlug, cfg.Registry.BrandsFile)
	}
	generated := discovery.Generate(*brand, discovery.DetectPlatform(platformProbeURL(*brand)))
	if _, err := discovery.Save(generated, cfg.Blueprints.Dir); err != nil {
		return nil, err
	}
	fmt.Printf("Generated blueprint for %s\n", brandSlug)
	return generated, nil
}
