package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hairdata/haira/internal/config"
	"github.com/hairdata/haira/internal/db"
	"github.com/hairdata/haira/internal/models"
)

var (
	reportBrand     string
	reportAllBrands bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show coverage for one brand or the whole catalog",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportBrand, "brand", "", "Brand slug")
	reportCmd.Flags().BoolVar(&reportAllBrands, "all-brands", false, "Report for all brands")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportBrand == "" && !reportAllBrands {
		return fmt.Errorf("pass --brand or --all-brands")
	}

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
	queries := db.New(pool)

	var coverages []models.BrandCoverage
	if reportBrand != "" {
		cov, err := queries.GetBrandCoverage(ctx, reportBrand)
		if err != nil {
			return err
		}
		if cov == nil {
			return fmt.Errorf("no coverage recorded for %s", reportBrand)
		}
		coverages = []models.BrandCoverage{*cov}
	} else {
		coverages, err = queries.GetAllBrandCoverages(ctx)
		if err != nil {
			return err
		}
	}

	fmt.Printf("%-24s %11s %10s %9s %9s %12s %8s\n",
		"BRAND", "DISCOVERED", "EXTRACTED", "VERIFIED", "RATE", "QUARANTINED", "STATUS")
	for _, cov := range coverages {
		lastRun := "never"
		if cov.LastRun != nil {
			lastRun = cov.LastRun.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-24s %11d %10d %9d %8.1f%% %12d %8s  %s\n",
			cov.BrandSlug, cov.DiscoveredTotal, cov.ExtractedTotal, cov.VerifiedInciTotal,
			cov.VerifiedInciRate*100, cov.QuarantinedTotal, cov.Status, lastRun)
	}
	return nil
}
