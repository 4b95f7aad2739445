package pipeline

import (
	"math"
	"time"

	"github.com/hairdata/haira/internal/models"
)

// BrandReport accumulates counters for one brand run and becomes the
// coverage_report payload when the run finishes.
type BrandReport struct {
	BrandSlug         string     `json:"brand_slug"`
	DiscoveredTotal   int        `json:"discovered_total"`
	HairTotal         int        `json:"hair_total"`
	KitsTotal         int        `json:"kits_total"`
	NonHairTotal      int        `json:"non_hair_total"`
	ExtractedTotal    int        `json:"extracted_total"`
	VerifiedInciTotal int        `json:"verified_inci_total"`
	CatalogOnlyTotal  int        `json:"catalog_only_total"`
	QuarantinedTotal  int        `json:"quarantined_total"`
	Errors            []string   `json:"errors"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at"`

	BlueprintVersion int `json:"-"`
}

func NewBrandReport(brandSlug string) *BrandReport {
	return &BrandReport{
		BrandSlug:        brandSlug,
		Errors:           []string{},
		StartedAt:        time.Now().UTC(),
		BlueprintVersion: 1,
	}
}

// VerifiedInciRate is verified products over extracted products, zero
// before anything was extracted.
func (r *BrandReport) VerifiedInciRate() float64 {
	if r.ExtractedTotal == 0 {
		return 0
	}
	return float64(r.VerifiedInciTotal) / float64(r.ExtractedTotal)
}

// FailureRate is quarantined products over extracted products. The
// stop-the-line check watches this ratio.
func (r *BrandReport) FailureRate() float64 {
	if r.ExtractedTotal == 0 {
		return 0
	}
	return float64(r.QuarantinedTotal) / float64(r.ExtractedTotal)
}

func (r *BrandReport) Complete() {
	now := time.Now().UTC()
	r.CompletedAt = &now
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

// asMap renders the report for the coverage_report jsonb column.
func (r *BrandReport) asMap() map[string]any {
	var completed any
	if r.CompletedAt != nil {
		completed = r.CompletedAt.Format(time.RFC3339)
	}
	return map[string]any{
		"brand_slug":          r.BrandSlug,
		"discovered_total":    r.DiscoveredTotal,
		"hair_total":          r.HairTotal,
		"kits_total":          r.KitsTotal,
		"non_hair_total":      r.NonHairTotal,
		"extracted_total":     r.ExtractedTotal,
		"verified_inci_total": r.VerifiedInciTotal,
		"catalog_only_total":  r.CatalogOnlyTotal,
		"quarantined_total":   r.QuarantinedTotal,
		"verified_inci_rate":  round4(r.VerifiedInciRate()),
		"failure_rate":        round4(r.FailureRate()),
		"errors":              r.Errors,
		"started_at":          r.StartedAt.Format(time.RFC3339),
		"completed_at":        completed,
	}
}

// ToCoverage maps the finished report onto the brand_coverage row.
func (r *BrandReport) ToCoverage() models.BrandCoverage {
	return models.BrandCoverage{
		BrandSlug:         r.BrandSlug,
		DiscoveredTotal:   r.DiscoveredTotal,
		HairTotal:         r.HairTotal,
		KitsTotal:         r.KitsTotal,
		NonHairTotal:      r.NonHairTotal,
		ExtractedTotal:    r.ExtractedTotal,
		VerifiedInciTotal: r.VerifiedInciTotal,
		VerifiedInciRate:  round4(r.VerifiedInciRate()),
		CatalogOnlyTotal:  r.CatalogOnlyTotal,
		QuarantinedTotal:  r.QuarantinedTotal,
		Status:            "done",
		BlueprintVersion:  r.BlueprintVersion,
		CoverageReport:    r.asMap(),
	}
}
