// Package pipeline runs the extraction loop for one brand: bucket the
// discovered URLs, fetch and extract each product page, gate the
// result, persist it, and keep a running report. A brand whose failure
// rate climbs past the threshold is stopped mid-run so a broken
// blueprint cannot fill the catalog with garbage.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/hairdata/haira/internal/classify"
	"github.com/hairdata/haira/internal/discovery"
	"github.com/hairdata/haira/internal/extract"
	"github.com/hairdata/haira/internal/fetch"
	"github.com/hairdata/haira/internal/fieldcheck"
	"github.com/hairdata/haira/internal/inci"
	"github.com/hairdata/haira/internal/labels"
	"github.com/hairdata/haira/internal/llm"
	"github.com/hairdata/haira/internal/models"
	"github.com/hairdata/haira/internal/qa"
	"github.com/hairdata/haira/internal/taxonomy"
)

// Repository is the slice of the store the engine writes through.
type Repository interface {
	UpsertProduct(ctx context.Context, extraction models.ProductExtraction, result models.QAResult) (uuid.UUID, error)
	UpdateProductLabels(ctx context.Context, productID uuid.UUID, result models.LabelResult) error
	UpsertBrandCoverage(ctx context.Context, cov models.BrandCoverage) error
}

// GroundedExtractor recovers fields from page text when deterministic
// extraction comes up empty, and settles relevance for pages the keyword
// taxonomy could not place. Implementations answer only from the text
// they are given.
type GroundedExtractor interface {
	CanCall() bool
	ExtractProductFields(ctx context.Context, productName, pageText string) (*llm.GroundedFields, error)
	ClassifyHairRelevance(ctx context.Context, productName, pageSnippet string) (*llm.RelevanceVerdict, error)
}

const (
	stopTheLineThreshold    = 0.50
	stopTheLineMinExtracted = 5
)

var sizeVolumeRe = regexp.MustCompile(`(?i)(\d+\s?(?:ml|g|l|kg))\b`)

// Engine processes one brand at a time. Callers running brands in
// parallel give each goroutine its own Engine and fetcher.
type Engine struct {
	repo    Repository
	fetcher fetch.Fetcher
	llm     GroundedExtractor
	labels  *labels.Engine
	qa      qa.Config
}

func NewEngine(repo Repository, fetcher fetch.Fetcher, grounded GroundedExtractor, qaCfg qa.Config) *Engine {
	return &Engine{
		repo:    repo,
		fetcher: fetcher,
		llm:     grounded,
		labels:  labels.NewEngine(nil),
		qa:      qaCfg,
	}
}

// ProcessBrand walks the discovered URLs for one brand and returns the
// finished report. The coverage row is upserted on every exit path,
// including stop-the-line and context cancellation, so a partial run
// still shows up in the coverage table.
func (e *Engine) ProcessBrand(ctx context.Context, bp *discovery.Blueprint, discovered []models.DiscoveredURL) *BrandReport {
	report := NewBrandReport(bp.BrandSlug)
	if bp.Version > 0 {
		report.BlueprintVersion = bp.Version
	}
	report.DiscoveredTotal = len(discovered)

	pattern := bp.ProductPattern()
	var queue []string
	for _, d := range discovered {
		switch classify.Classify(d.URL, pattern) {
		case models.URLTypeKit:
			report.KitsTotal++
		case models.URLTypeProduct:
			report.HairTotal++
			queue = append(queue, d.URL)
		case models.URLTypeCategory:
			report.HairTotal++
		default:
			report.NonHairTotal++
		}
	}
	log.Printf("brand %s: %d product URLs queued of %d discovered", bp.BrandSlug, len(queue), len(discovered))

	for _, pageURL := range queue {
		if ctx.Err() != nil {
			break
		}

		product, err := e.ExtractProduct(ctx, pageURL, bp)
		if err != nil {
			log.Printf("error extracting %s: %v", pageURL, err)
			report.Errors = append(report.Errors, fmt.Sprintf("extraction_error: %s: %v", pageURL, err))
			continue
		}
		if product == nil {
			continue
		}

		result := qa.Run(product, bp.AllowedDomains, e.qa)
		logFieldIssues(pageURL, product)

		productID, err := e.repo.UpsertProduct(ctx, *product, result)
		if err != nil {
			log.Printf("error storing %s: %v", pageURL, err)
			report.Errors = append(report.Errors, fmt.Sprintf("extraction_error: %s: %v", pageURL, err))
			continue
		}
		if product.Labels != nil {
			if err := e.repo.UpdateProductLabels(ctx, productID, *product.Labels); err != nil {
				log.Printf("error storing labels for %s: %v", pageURL, err)
			}
		}

		report.ExtractedTotal++
		switch result.Status {
		case models.StatusVerifiedInci:
			report.VerifiedInciTotal++
		case models.StatusQuarantined:
			report.QuarantinedTotal++
		default:
			report.CatalogOnlyTotal++
		}

		if report.ExtractedTotal >= stopTheLineMinExtracted && report.FailureRate() > stopTheLineThreshold {
			log.Printf("Stop-the-line triggered for %s: failure_rate=%.2f%%", bp.BrandSlug, report.FailureRate()*100)
			report.Errors = append(report.Errors, fmt.Sprintf(
				"stop_the_line: failure_rate=%.2f%% after %d products", report.FailureRate()*100, report.ExtractedTotal))
			break
		}
	}

	report.Complete()
	if err := e.repo.UpsertBrandCoverage(ctx, report.ToCoverage()); err != nil {
		log.Printf("error storing coverage for %s: %v", bp.BrandSlug, err)
	}
	log.Printf("Brand %s complete: %d extracted, %d verified (%.1f%%), %d quarantined",
		bp.BrandSlug, report.ExtractedTotal, report.VerifiedInciTotal, report.VerifiedInciRate()*100, report.QuarantinedTotal)
	return report
}

// ExtractProduct fetches one page and builds the extraction record. A
// nil product with a nil error means the page was skipped: fetch
// failures and nameless pages are run noise, not run errors.
func (e *Engine) ExtractProduct(ctx context.Context, pageURL string, bp *discovery.Blueprint) (*models.ProductExtraction, error) {
	if e.fetcher == nil {
		log.Printf("no fetcher configured, skipping %s", pageURL)
		return nil, nil
	}
	pageHTML, err := e.fetcher.Fetch(ctx, pageURL, bp.Extraction.WaitForSelector)
	if err != nil {
		log.Printf("failed to fetch %s: %v", pageURL, err)
		return nil, nil
	}

	det, err := extract.Extract(pageHTML, pageURL, extract.Options{
		NameSelectors:  bp.Extraction.NameSelectors,
		InciSelectors:  bp.Extraction.InciSelectors,
		ImageSelectors: bp.Extraction.ImageSelectors,
	})
	if err != nil {
		return nil, err
	}
	if det.ProductName == "" {
		return nil, nil
	}

	gender := taxonomy.DetectGenderTarget(det.ProductName, pageURL)
	productType, _ := taxonomy.NormalizeProductType(det.ProductName)
	relevant, reason := taxonomy.IsHairRelevant(det.ProductName, pageURL, "")
	if !relevant {
		// The URL classifier already voted product, otherwise this
		// page would not be in the queue. The gate decides; a grounded
		// verdict upgrades the placeholder reason when one is available.
		reason = "url_classified_as_product"
		if e.llm != nil && e.llm.CanCall() && bp.Extraction.UseLLMFallback {
			verdict, verr := e.llm.ClassifyHairRelevance(ctx, det.ProductName, pageText(pageHTML))
			switch {
			case verr != nil:
				log.Printf("relevance check failed for %s: %v", pageURL, verr)
			case verdict != nil && verdict.HairRelated && verdict.Reason != "":
				reason = "llm: " + verdict.Reason
			}
		}
	}

	var (
		inciList   []string
		confidence float64
		method     = det.Method
	)
	if det.InciRaw != "" {
		validated := inci.ExtractAndValidate(det.InciRaw)
		if validated.Valid {
			inciList = validated.Cleaned
			confidence = 0.90
		} else {
			confidence = 0.30
		}
	}

	description := det.Description
	if inciList == nil && e.llm != nil && e.llm.CanCall() && bp.Extraction.UseLLMFallback {
		fields, ferr := e.llm.ExtractProductFields(ctx, det.ProductName, pageText(pageHTML))
		if ferr != nil {
			log.Printf("LLM fallback failed for %s: %v", pageURL, ferr)
		} else if fields != nil && len(fields.InciIngredients) > 0 {
			validated := inci.ExtractAndValidate(strings.Join(fields.InciIngredients, ", "))
			if validated.Valid {
				inciList = validated.Cleaned
				confidence = 0.85
				method = models.MethodLLMGrounded
				log.Printf("LLM fallback found INCI for %s", pageURL)
			}
			if description == "" && fields.Description != "" {
				description = fields.Description
			}
		}
	}

	category := taxonomy.NormalizeCategory(productType, det.ProductName)

	product := &models.ProductExtraction{
		BrandSlug:             bp.BrandSlug,
		ProductURL:            pageURL,
		ProductName:           det.ProductName,
		ImageURLMain:          strPtr(det.ImageURLMain),
		GenderTarget:          gender,
		ProductTypeRaw:        strPtr(det.ProductName),
		ProductTypeNormalized: strPtr(productType),
		ProductCategory:       strPtr(category),
		HairRelevanceReason:   reason,
		Description:           strPtr(description),
		InciIngredients:       inciList,
		SizeVolume:            strPtr(sizeVolumeRe.FindString(det.ProductName)),
		Price:                 det.Price,
		Currency:              strPtr(det.Currency),
		Confidence:            confidence,
		Method:                method,
		Evidence:              det.Evidence,
	}

	label := e.labels.Detect(labels.Input{
		Description:     description,
		ProductName:     det.ProductName,
		InciIngredients: inciList,
		ImageTexts:      labels.ImageTexts(pageHTML),
	})
	if len(label.Detected) > 0 || len(label.Inferred) > 0 {
		product.Evidence = append(product.Evidence, label.Evidence...)
		label.Evidence = nil
		product.Labels = &label
	}
	return product, nil
}

// pageText strips chrome elements and returns the visible text, the
// input for grounded field recovery.
func pageText(pageHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return pageHTML
	}
	doc.Find("script, style, nav, footer, header").Remove()
	return strings.TrimSpace(doc.Text())
}

func logFieldIssues(pageURL string, product *models.ProductExtraction) {
	rep := fieldcheck.Validate(fieldcheck.InputFrom(*product))
	if rep.HasErrors() {
		log.Printf("field check for %s: %d errors, %d warnings (score %d)",
			pageURL, rep.ErrorCount(), rep.WarningCount(), rep.Score)
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
