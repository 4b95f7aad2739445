// Package registry turns the curated brand workbook into the JSON
// roster the rest of the pipeline reads. The workbook has three sheets:
// national brands, international brands, and a hand-ordered priority
// sheet whose row order is the crawl order.
package registry

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/xuri/excelize/v2"

	"github.com/hairdata/haira/internal/models"
)

const (
	sheetNational      = "Nacionais"
	sheetInternational = "Internacionais"
	sheetPriority      = "Marcas Principais"
)

// LoadExcel reads the brand workbook. Duplicate slugs across sheets
// merge: the national sheet wins over the international one, and the
// priority sheet annotates whichever row is already registered. Result
// order is first-seen order.
func LoadExcel(path string) ([]models.Brand, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	bySlug := make(map[string]*models.Brand)
	var order []string
	register := func(b models.Brand) {
		if _, ok := bySlug[b.BrandSlug]; !ok {
			order = append(order, b.BrandSlug)
		}
		bySlug[b.BrandSlug] = &b
	}

	if hasSheet(f, sheetNational) {
		rows, err := f.GetRows(sheetNational)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheetNational, err)
		}
		for _, row := range skipHeader(rows) {
			name := strings.TrimSpace(cell(row, 0))
			if name == "" {
				continue
			}
			s := slug.Make(name)
			if s == "" {
				continue
			}
			b := models.NewBrand(name, s, cleanURL(cell(row, 2)))
			b.Country = strPtr("Brasil")
			if hasInci := strings.TrimSpace(cell(row, 3)); hasInci != "" {
				b.Notes = strPtr("inci_on_site=" + hasInci)
			}
			register(b)
		}
	}

	if hasSheet(f, sheetInternational) {
		rows, err := f.GetRows(sheetInternational)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheetInternational, err)
		}
		for _, row := range skipHeader(rows) {
			name := strings.TrimSpace(cell(row, 0))
			if name == "" {
				continue
			}
			s := slug.Make(name)
			if s == "" {
				continue
			}
			if _, ok := bySlug[s]; ok {
				continue
			}
			b := models.NewBrand(name, s, cleanURL(cell(row, 3)))
			b.Country = strPtr(strings.TrimSpace(cell(row, 1)))
			register(b)
		}
	}

	if hasSheet(f, sheetPriority) {
		rows, err := f.GetRows(sheetPriority)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheetPriority, err)
		}
		currentSlug := ""
		priority := 1
		for _, row := range skipHeader(rows) {
			name := strings.TrimSpace(cell(row, 0))
			site := cell(row, 1)
			extract := cell(row, 3)
			obs := strings.TrimSpace(cell(row, 4))

			if name != "" {
				s := slug.Make(name)
				currentSlug = s
				if b, ok := bySlug[s]; ok {
					p := priority
					b.Priority = &p
					if site != "" {
						b.OfficialURLRoot = cleanURL(site)
					}
					if obs != "" {
						b.Notes = strPtr(obs)
					}
				} else {
					b := models.NewBrand(name, s, cleanURL(site))
					p := priority
					b.Priority = &p
					if obs != "" {
						b.Notes = strPtr(obs)
					}
					register(b)
				}
				priority++
			}

			// Continuation rows (empty name) add entrypoints to the
			// brand above them.
			b, ok := bySlug[currentSlug]
			if currentSlug == "" || !ok {
				continue
			}
			switch {
			case strings.HasPrefix(extract, "http"):
				appendEntrypoint(b, cleanURL(extract))
			case name != "" && strings.HasPrefix(site, "http"):
				appendEntrypoint(b, cleanURL(site))
			}
		}
	}

	brands := make([]models.Brand, 0, len(order))
	for _, s := range order {
		brands = append(brands, *bySlug[s])
	}
	log.Printf("loaded %d brands from %s", len(brands), path)
	return brands, nil
}

// ExportJSON writes the roster, creating parent directories as needed.
func ExportJSON(brands []models.Brand, outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(brands, "", "  ")
	if err != nil {
		return fmt.Errorf("encode brands: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write brands file: %w", err)
	}
	log.Printf("exported %d brands to %s", len(brands), outputPath)
	return nil
}

// LoadBrands reads a roster previously written by ExportJSON.
func LoadBrands(path string) ([]models.Brand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brands file: %w", err)
	}
	var brands []models.Brand
	if err := json.Unmarshal(data, &brands); err != nil {
		return nil, fmt.Errorf("decode brands file: %w", err)
	}
	return brands, nil
}

// FindBrand returns the brand with the given slug, or nil.
func FindBrand(brands []models.Brand, brandSlug string) *models.Brand {
	for i := range brands {
		if brands[i].BrandSlug == brandSlug {
			return &brands[i]
		}
	}
	return nil
}

// ByPriority returns the brands with the given priority level, in
// roster order.
func ByPriority(brands []models.Brand, priority int) []models.Brand {
	var out []models.Brand
	for _, b := range brands {
		if b.Priority != nil && *b.Priority == priority {
			out = append(out, b)
		}
	}
	return out
}

func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

func skipHeader(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

// cell is bounds-safe: short rows read as empty cells.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func cleanURL(raw string) string {
	return strings.TrimSpace(raw)
}

func appendEntrypoint(b *models.Brand, url string) {
	for _, existing := range b.CatalogEntrypoints {
		if existing == url {
			return
		}
	}
	b.CatalogEntrypoints = append(b.CatalogEntrypoints, url)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
