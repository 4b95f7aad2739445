package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hairdata/haira/internal/config"
	"github.com/hairdata/haira/internal/db"
	"github.com/hairdata/haira/internal/discovery"
	"github.com/hairdata/haira/internal/fieldcheck"
	"github.com/hairdata/haira/internal/qa"
)

var auditBrand string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Re-run the quality gate and field checks over a brand's stored products",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditBrand, "brand", "", "Brand slug (required)")
	auditCmd.MarkFlagRequired("brand")
}

const auditPageSize = 200

func runAudit(cmd *cobra.Command, args []string) error {
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

	bp, err := discovery.Load(auditBrand, cfg.Blueprints.Dir)
	if err != nil {
		return err
	}
	if bp == nil {
		return fmt.Errorf("no blueprint for %s; the gate needs its allowed domains", auditBrand)
	}

	gateCfg := qa.Config{
		MinInciTerms:  cfg.Pipeline.MinInciTerms,
		MinConfidence: cfg.Pipeline.MinConfidence,
	}

	total, err := queries.CountProducts(ctx, db.Filter{BrandSlug: auditBrand})
	if err != nil {
		return err
	}
	fmt.Printf("Auditing %d stored products for %s\n", total, auditBrand)

	audited, drifted, withFieldErrors := 0, 0, 0
	for offset := 0; ; offset += auditPageSize {
		page, err := queries.GetProducts(ctx, db.Filter{BrandSlug: auditBrand}, auditPageSize, offset)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		for _, product := range page {
			audited++

			verdict := qa.Run(&product.ProductExtraction, bp.AllowedDomains, gateCfg)
			if verdict.Status != product.VerificationStatus {
				drifted++
				fmt.Printf("  drift %s: stored=%s gate=%s", product.ProductURL, product.VerificationStatus, verdict.Status)
				if verdict.RejectionReason != nil {
					fmt.Printf(" (%s)", *verdict.RejectionReason)
				}
				fmt.Println()
			}

			if report := fieldcheck.Validate(fieldcheck.InputFrom(product.ProductExtraction)); report.HasErrors() {
				withFieldErrors++
				fmt.Printf("  fields %s: %d errors, %d warnings (score %d)\n",
					product.ProductURL, report.ErrorCount(), report.WarningCount(), report.Score)
			}
		}
	}

	fmt.Printf("Audited %d products for %s\n", audited, auditBrand)
	fmt.Printf("  Status drift: %d\n", drifted)
	fmt.Printf("  Field errors: %d products\n", withFieldErrors)
	return nil
}
