package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hairdata/haira/internal/config"
	"github.com/hairdata/haira/internal/db"
	"github.com/hairdata/haira/internal/llm"
	"github.com/hairdata/haira/internal/models"
	"github.com/hairdata/haira/internal/pipeline"
	"github.com/hairdata/haira/internal/qa"
	"github.com/hairdata/haira/internal/registry"
)

var (
	scrapeBrand     string
	scrapePriority  int
	scrapeMaxBrands int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run the full pipeline for one or more brands",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeBrand, "brand", "", "Brand slug (single brand)")
	scrapeCmd.Flags().IntVar(&scrapePriority, "priority", 0, "Run brands with this priority level")
	scrapeCmd.Flags().IntVar(&scrapeMaxBrands, "max-brands", 10, "Max brands to process")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := runContext()
	defer stop()

	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	queries := db.New(pool)

	brands, err := selectBrands(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Scraping %d brands\n", len(brands))

	// One goroutine per brand. Each gets its own fetcher session and
	// its own LLM budget; a failing brand logs and leaves the others
	// running.
	var g errgroup.Group
	for _, brand := range brands {
		brand := brand
		g.Go(func() error {
			scrapeBrandRun(ctx, cfg, queries, brand)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Println("Scrape finished; see brand coverage for results.")
	return nil
}

func scrapeBrandRun(ctx context.Context, cfg *config.Config, queries *db.Queries, brand models.Brand) {
	bp, err := loadBlueprint(cfg, brand.BrandSlug)
	if err != nil {
		log.Printf("brand %s: %v", brand.BrandSlug, err)
		return
	}

	fetcher := newFetcher(cfg, bp)
	defer fetcher.Close()

	var grounded pipeline.GroundedExtractor
	var client *llm.Client
	if cfg.LLM.APIKey != "" {
		client = llm.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.MaxCallsPerBrand)
		grounded = client
	}

	discovered := newDiscoverer(cfg, fetcher).Discover(ctx, bp)
	engine := pipeline.NewEngine(queries, fetcher, grounded, qa.Config{
		MinInciTerms:  cfg.Pipeline.MinInciTerms,
		MinConfidence: cfg.Pipeline.MinConfidence,
	})
	report := engine.ProcessBrand(ctx, bp, discovered)
	fmt.Printf("%s: %d extracted, %d verified, %d quarantined\n",
		brand.BrandSlug, report.ExtractedTotal, report.VerifiedInciTotal, report.QuarantinedTotal)
	if client != nil {
		s := client.CostSummary()
		log.Printf("brand %s llm usage: %d calls, %d/%d tokens in/out, %d budget left",
			brand.BrandSlug, s.TotalCalls, s.TotalInputTokens, s.TotalOutputTokens, s.BudgetRemaining)
	}
}

// selectBrands resolves the flags to a roster slice: a single slug, a
// priority level, or the head of the roster, always capped.
func selectBrands(cfg *config.Config) ([]models.Brand, error) {
	brands, err := registry.LoadBrands(cfg.Registry.BrandsFile)
	if err != nil {
		return nil, err
	}

	var selected []models.Brand
	switch {
	case scrapeBrand != "":
		brand := registry.FindBrand(brands, scrapeBrand)
		if brand == nil {
			return nil, fmt.Errorf("brand %s not in registry %s", scrapeBrand, cfg.Registry.BrandsFile)
		}
		selected = []models.Brand{*brand}
	case scrapePriority > 0:
		selected = registry.ByPriority(brands, scrapePriority)
		if len(selected) == 0 {
			return nil, fmt.Errorf("no brands with priority %d", scrapePriority)
		}
	default:
		selected = brands
	}

	if scrapeMaxBrands > 0 && len(selected) > scrapeMaxBrands {
		selected = selected[:scrapeMaxBrands]
	}
	return selected, nil
}
