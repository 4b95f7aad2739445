package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hairdata/haira/internal/config"
	"github.com/hairdata/haira/internal/discovery"
	"github.com/hairdata/haira/internal/models"
	"github.com/hairdata/haira/internal/registry"
)

var (
	blueprintBrand      string
	blueprintRegenerate bool
)

var blueprintCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "Generate or update the blueprint YAML for a brand",
	RunE:  runBlueprint,
}

func init() {
	blueprintCmd.Flags().StringVar(&blueprintBrand, "brand", "", "Brand slug (required)")
	blueprintCmd.Flags().BoolVar(&blueprintRegenerate, "regenerate", false, "Force regenerate blueprint")
	blueprintCmd.MarkFlagRequired("brand")
}

func runBlueprint(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	brands, err := registry.LoadBrands(cfg.Registry.BrandsFile)
	if err != nil {
		return err
	}
	brand := registry.FindBrand(brands, blueprintBrand)
	if brand == nil {
		return fmt.Errorf("brand %s not in registry %s", blueprintBrand, cfg.Registry.BrandsFile)
	}

	if !blueprintRegenerate {
		existing, err := discovery.Load(blueprintBrand, cfg.Blueprints.Dir)
		if err != nil {
			return err
		}
		if existing != nil {
			fmt.Printf("Blueprint for %s already exists (version %d); use --regenerate to overwrite\n",
				blueprintBrand, existing.Version)
			return nil
		}
	}

	platform := discovery.DetectPlatform(platformProbeURL(*brand))
	bp := discovery.Generate(*brand, platform)
	path, err := discovery.Save(bp, cfg.Blueprints.Dir)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote blueprint for %s (platform %s) to %s\n", blueprintBrand, platform, path)
	return nil
}

func platformProbeURL(brand models.Brand) string {
	if brand.OfficialURLRoot != "" {
		return brand.OfficialURLRoot
	}
	if len(brand.CatalogEntrypoints) > 0 {
		return brand.CatalogEntrypoints[0]
	}
	return ""
}
