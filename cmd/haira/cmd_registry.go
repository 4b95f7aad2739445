package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hairdata/haira/internal/registry"
)

var (
	registryInput  string
	registryOutput string
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Import the brand registry from an Excel workbook",
	RunE:  runRegistry,
}

func init() {
	registryCmd.Flags().StringVar(&registryInput, "input", "", "Path to Excel file (required)")
	registryCmd.Flags().StringVar(&registryOutput, "output", "config/brands.json", "Output JSON path")
	registryCmd.MarkFlagRequired("input")
}

func runRegistry(cmd *cobra.Command, args []string) error {
	brands, err := registry.LoadExcel(registryInput)
	if err != nil {
		return err
	}
	if err := registry.ExportJSON(brands, registryOutput); err != nil {
		return err
	}
	fmt.Printf("Exported %d brands to %s\n", len(brands), registryOutput)

	withSite, withPriority := 0, 0
	for _, b := range brands {
		if b.OfficialURLRoot != "" {
			withSite++
		}
		if b.Priority != nil {
			withPriority++
		}
	}
	fmt.Printf("  With official site: %d\n", withSite)
	fmt.Printf("  Priority brands: %d\n", withPriority)
	return nil
}
