package models

import (
	"time"

	"github.com/google/uuid"
)

// URLType classifies a discovered URL before extraction.
type URLType string

const (
	URLTypeProduct  URLType = "product"
	URLTypeCategory URLType = "category"
	URLTypeKit      URLType = "kit"
	URLTypeNonHair  URLType = "non_hair"
	URLTypeOther    URLType = "other"
)

// VerificationStatus is the quality-gate verdict attached to a product.
type VerificationStatus string

const (
	StatusCatalogOnly  VerificationStatus = "catalog_only"
	StatusVerifiedInci VerificationStatus = "verified_inci"
	StatusQuarantined  VerificationStatus = "quarantined"
)

// ExtractionMethod records which strategy produced a value.
type ExtractionMethod string

const (
	MethodJSONLD       ExtractionMethod = "jsonld"
	MethodHTMLSelector ExtractionMethod = "html_selector"
	MethodJSDOM        ExtractionMethod = "js_dom"
	MethodLLMGrounded  ExtractionMethod = "llm_grounded"
	MethodManual       ExtractionMethod = "manual"

	// Label engine methods share the evidence table.
	MethodTextKeyword   ExtractionMethod = "text_keyword"
	MethodImgElement    ExtractionMethod = "html_img_element"
	MethodInciInference ExtractionMethod = "inci_inference"
)

// GenderTarget is the audience a product is marketed to.
type GenderTarget string

const (
	GenderMen     GenderTarget = "men"
	GenderWomen   GenderTarget = "women"
	GenderUnisex  GenderTarget = "unisex"
	GenderKids    GenderTarget = "kids"
	GenderUnknown GenderTarget = "unknown"
)

// Severity ranks a cross-field validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Brand is the immutable identity loaded from the registry.
type Brand struct {
	BrandName          string   `json:"brand_name"`
	BrandSlug          string   `json:"brand_slug"`
	OfficialURLRoot    string   `json:"official_url_root"`
	Country            *string  `json:"country"`
	Priority           *int     `json:"priority"`
	Notes              *string  `json:"notes"`
	CatalogEntrypoints []string `json:"catalog_entrypoints"`
	Status             string   `json:"status"` // active, paused
}

// NewBrand fills the defaults the registry relies on.
func NewBrand(name, slug, urlRoot string) Brand {
	return Brand{
		BrandName:          name,
		BrandSlug:          slug,
		OfficialURLRoot:    urlRoot,
		CatalogEntrypoints: []string{},
		Status:             "active",
	}
}

// DiscoveredURL is a transient discovery result, consumed by the classifier.
type DiscoveredURL struct {
	URL                 string `json:"url"`
	SourceType          string `json:"source_type"` // sitemap, dom_crawl, sfcc_ajax
	HairRelevant        bool   `json:"hair_relevant"`
	HairRelevanceReason string `json:"hair_relevance_reason"`
	IsKit               bool   `json:"is_kit"`
}

// Evidence ties one extracted value back to its literal source location.
// Rows are append-only; ID and ProductID are set by the store.
type Evidence struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	ProductID       uuid.UUID        `json:"product_id" db:"product_id"`
	FieldName       string           `json:"field_name" db:"field_name"`
	SourceURL       string           `json:"source_url" db:"source_url"`
	EvidenceLocator string           `json:"evidence_locator" db:"evidence_locator"`
	RawSourceText   string           `json:"raw_source_text" db:"raw_source_text"`
	Method          ExtractionMethod `json:"extraction_method" db:"extraction_method"`
	ExtractedAt     time.Time        `json:"extracted_at" db:"extracted_at"`
}

// LabelResult is the seal-detection output attached to a product.
type LabelResult struct {
	Detected           []string   `json:"detected"`
	Inferred           []string   `json:"inferred"`
	Confidence         float64    `json:"confidence"`
	Sources            []string   `json:"sources"` // official_text, html_img_element, inci_analysis
	Evidence           []Evidence `json:"evidence,omitempty"`
	ManuallyVerified   bool       `json:"manually_verified"`
	ManuallyOverridden bool       `json:"manually_overridden"`
}

// Variant is a size/color option listed on the product page.
type Variant struct {
	Name  string   `json:"name"`
	Size  string   `json:"size,omitempty"`
	Price *float64 `json:"price,omitempty"`
	URL   string   `json:"url,omitempty"`
}

// ProductExtraction is the in-flight record built by the extractor and
// handed to the quality gate. It has no identity row yet; the repository
// assigns one on upsert.
type ProductExtraction struct {
	BrandSlug   string `json:"brand_slug"`
	ProductURL  string `json:"product_url"`
	ProductName string `json:"product_name"`

	ImageURLMain     *string  `json:"image_url_main"`
	ImageURLsGallery []string `json:"image_urls_gallery,omitempty"`

	GenderTarget          GenderTarget `json:"gender_target"`
	ProductTypeRaw        *string      `json:"product_type_raw"`
	ProductTypeNormalized *string      `json:"product_type_normalized"`
	ProductCategory       *string      `json:"product_category"`
	HairRelevanceReason   string       `json:"hair_relevance_reason"`

	Description       *string   `json:"description"`
	UsageInstructions *string   `json:"usage_instructions"`
	BenefitsClaims    []string  `json:"benefits_claims,omitempty"`
	InciIngredients   []string  `json:"inci_ingredients,omitempty"`
	SizeVolume        *string   `json:"size_volume"`
	Price             *float64  `json:"price"`
	Currency          *string   `json:"currency"`
	LineCollection    *string   `json:"line_collection"`
	Variants          []Variant `json:"variants,omitempty"`

	Confidence float64          `json:"confidence"`
	Method     ExtractionMethod `json:"extraction_method"`
	Labels     *LabelResult     `json:"product_labels,omitempty"`

	Evidence []Evidence `json:"evidence,omitempty"`
}

// Product is the persisted row: a ProductExtraction plus identity, the gate
// verdict, and timestamps.
type Product struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	ExtractedAt        *time.Time         `json:"extracted_at" db:"extracted_at"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`

	ProductExtraction
}

// QAResult is the quality-gate verdict for one extraction.
type QAResult struct {
	Status          VerificationStatus `json:"status"`
	Passed          bool               `json:"passed"`
	ChecksPassed    []string           `json:"checks_passed"`
	ChecksFailed    []string           `json:"checks_failed"`
	RejectionReason *string            `json:"rejection_reason"`
}

// QuarantineDetail tracks the human review of a quarantined product.
type QuarantineDetail struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	ProductID       uuid.UUID  `json:"product_id" db:"product_id"`
	RejectionReason string     `json:"rejection_reason" db:"rejection_reason"`
	RejectionCode   string     `json:"rejection_code" db:"rejection_code"`
	ReviewStatus    string     `json:"review_status" db:"review_status"` // pending, approved, rejected
	ReviewerNotes   *string    `json:"reviewer_notes" db:"reviewer_notes"`
	ReviewedAt      *time.Time `json:"reviewed_at" db:"reviewed_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// QuarantineItem is a quarantine row joined with its product, the shape
// review listings work with.
type QuarantineItem struct {
	QuarantineDetail
	ProductName string `json:"product_name"`
	ProductURL  string `json:"product_url"`
	BrandSlug   string `json:"brand_slug"`
}

// BrandCoverage is the per-brand rollup, one row per brand.
type BrandCoverage struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	BrandSlug         string         `json:"brand_slug" db:"brand_slug"`
	DiscoveredTotal   int            `json:"discovered_total" db:"discovered_total"`
	HairTotal         int            `json:"hair_total" db:"hair_total"`
	KitsTotal         int            `json:"kits_total" db:"kits_total"`
	NonHairTotal      int            `json:"non_hair_total" db:"non_hair_total"`
	ExtractedTotal    int            `json:"extracted_total" db:"extracted_total"`
	VerifiedInciTotal int            `json:"verified_inci_total" db:"verified_inci_total"`
	VerifiedInciRate  float64        `json:"verified_inci_rate" db:"verified_inci_rate"`
	CatalogOnlyTotal  int            `json:"catalog_only_total" db:"catalog_only_total"`
	QuarantinedTotal  int            `json:"quarantined_total" db:"quarantined_total"`
	Status            string         `json:"status" db:"status"` // active, done, stopped
	LastRun           *time.Time     `json:"last_run" db:"last_run"`
	BlueprintVersion  int            `json:"blueprint_version" db:"blueprint_version"`
	CoverageReport    map[string]any `json:"coverage_report" db:"coverage_report"`
}
