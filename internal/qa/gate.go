// Package qa is the quality gate that assigns a verification status to
// every extracted product. Nothing is silently dropped: a product that
// fails lands in quarantine with the checks that failed, not in the
// trash.
package qa

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hairdata/haira/internal/inci"
	"github.com/hairdata/haira/internal/models"
)

// Config carries the gate thresholds.
type Config struct {
	MinInciTerms  int
	MinConfidence float64
}

// DefaultConfig matches production thresholds.
func DefaultConfig() Config {
	return Config{MinInciTerms: 5, MinConfidence: 0.80}
}

// Page titles that mean the product page did not actually load a
// product.
var garbageNames = []string{
	"404", "não encontrado", "não encontrada",
	"página não encontrada", "page not found",
	"produto indisponível", "product unavailable",
	"error", "erro",
}

// Run gates one extraction. The minimal checks decide whether the
// record is usable at all; the INCI checks decide whether it earns
// verified_inci or stays catalog_only.
func Run(product *models.ProductExtraction, allowedDomains []string, cfg Config) models.QAResult {
	if cfg.MinInciTerms == 0 && cfg.MinConfidence == 0 {
		cfg = DefaultConfig()
	}

	var passed, failed []string

	nameLower := strings.ToLower(strings.TrimSpace(product.ProductName))
	if containsAnyOf(nameLower, garbageNames) {
		failed = append(failed, "name_garbage")
	} else {
		passed = append(passed, "name_valid")
	}

	if domainAllowed(product.ProductURL, allowedDomains) {
		passed = append(passed, "domain_valid")
	} else {
		failed = append(failed, "domain_unofficial")
	}

	if product.ImageURLMain != nil && *product.ImageURLMain != "" {
		passed = append(passed, "has_image")
	} else {
		failed = append(failed, "no_image")
	}

	if product.HairRelevanceReason != "" {
		passed = append(passed, "hair_relevant")
	} else {
		failed = append(failed, "no_hair_relevance")
	}

	if len(failed) > 0 {
		reason := strings.Join(failed, "; ")
		return models.QAResult{
			Status:          models.StatusQuarantined,
			Passed:          false,
			ChecksPassed:    passed,
			ChecksFailed:    failed,
			RejectionReason: &reason,
		}
	}

	if len(product.InciIngredients) == 0 {
		return models.QAResult{
			Status:       models.StatusCatalogOnly,
			Passed:       true,
			ChecksPassed: passed,
		}
	}

	inciResult := inci.ValidateList(product.InciIngredients)
	if !inciResult.Valid {
		failed = append(failed, "inci_invalid:"+inciResult.RejectionReason)
		reason := inciResult.RejectionReason
		return models.QAResult{
			Status:          models.StatusQuarantined,
			Passed:          false,
			ChecksPassed:    passed,
			ChecksFailed:    failed,
			RejectionReason: &reason,
		}
	}
	passed = append(passed, "inci_valid")

	if product.Confidence < cfg.MinConfidence {
		failed = append(failed, "low_confidence")
		reason := fmt.Sprintf("confidence %g < %g", product.Confidence, cfg.MinConfidence)
		return models.QAResult{
			Status:          models.StatusQuarantined,
			Passed:          false,
			ChecksPassed:    passed,
			ChecksFailed:    failed,
			RejectionReason: &reason,
		}
	}
	passed = append(passed, "confidence_ok")

	return models.QAResult{
		Status:       models.StatusVerifiedInci,
		Passed:       true,
		ChecksPassed: passed,
	}
}

// domainAllowed accepts the domain itself and any subdomain of it.
func domainAllowed(rawURL string, allowedDomains []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	for _, d := range allowedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func containsAnyOf(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
