// Package fieldcheck detects content placed in the wrong field, such
// as marketing text stored as INCI ingredients or usage instructions
// stored as a description. Rules are advisory: the quality gate reads
// the report but only the gate decides a product's status.
package fieldcheck

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/hairdata/haira/internal/models"
)

// Issue is one finding from a validation rule.
type Issue struct {
	Field    string          `json:"field"`
	Code     string          `json:"code"`
	Severity models.Severity `json:"severity"`
	Message  string          `json:"message"`
	Details  string          `json:"details,omitempty"`
}

// Report combines all issues with a 0-100 score. Errors deduct 20,
// warnings 5, info nothing.
type Report struct {
	Issues []Issue `json:"issues"`
	Score  int     `json:"score"`
}

func (r Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == models.SeverityError {
			return true
		}
	}
	return false
}

func (r Report) ErrorCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == models.SeverityError {
			n++
		}
	}
	return n
}

func (r Report) WarningCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == models.SeverityWarning {
			n++
		}
	}
	return n
}

// Input is the populated record under validation. Pointer and slice
// fields distinguish absent from empty.
type Input struct {
	ProductName           string
	InciIngredients       []string
	Description           string
	UsageInstructions     string
	BenefitsClaims        []string
	Price                 *float64
	Currency              string
	ImageURLMain          string
	ProductTypeNormalized string
}

// InputFrom flattens an extraction record for validation.
func InputFrom(p models.ProductExtraction) Input {
	in := Input{
		ProductName:     p.ProductName,
		InciIngredients: p.InciIngredients,
		BenefitsClaims:  p.BenefitsClaims,
		Price:           p.Price,
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.UsageInstructions != nil {
		in.UsageInstructions = *p.UsageInstructions
	}
	if p.Currency != nil {
		in.Currency = *p.Currency
	}
	if p.ImageURLMain != nil {
		in.ImageURLMain = *p.ImageURLMain
	}
	if p.ProductTypeNormalized != nil {
		in.ProductTypeNormalized = *p.ProductTypeNormalized
	}
	return in
}

// Portuguese and English marketing phrases that should never appear in
// an ingredient list.
var marketingPhrases = []string{
	"sem amônia", "sem amonia", "fácil de aplicar", "fácil aplicação",
	"ideal para", "indicado para", "recomendado para",
	"maior durabilidade", "cobertura dos fios", "cor vibrante",
	"brilho intenso", "brilho natural", "cabelos naturais",
	"quimicamente tratados", "concentrado protetor", "exclusivo",
	"formulação", "proporciona", "promove", "fortalece",
	"protege", "suavidade", "maciez", "hidratação profunda",
	"tecnologia", "resultado", "ação reparadora",
	"tons de", "efeito natural", "longa duração",
}

var usagePhrases = []string{
	"aplique", "aplicar", "aplicação", "massageie", "massage",
	"enxágue", "enxague", "rinse", "deixe agir", "aguarde",
	"espalhe", "distribua", "use em", "use nos", "use no",
	"apply to", "apply on", "spread", "leave on", "wait",
	"wash", "lavar", "modo de uso", "como usar", "how to use",
	"passo 1", "passo 2", "step 1", "step 2",
	"seque com", "penteie", "secar", "desembarace",
}

// Ingredients common enough that a genuine INCI list almost always
// carries at least one of them.
var inciAnchorIngredients = map[string]bool{
	"aqua": true, "water": true, "aqua/water": true,
	"sodium laureth sulfate": true, "sodium lauryl sulfate": true,
	"cetearyl alcohol": true, "glycerin": true,
	"dimethicone": true, "phenoxyethanol": true, "tocopherol": true,
	"cetrimonium chloride": true, "stearyl alcohol": true,
	"isopropyl myristate": true, "parfum": true, "fragrance": true,
	"citric acid": true, "sodium chloride": true,
	"behentrimonium chloride": true, "amodimethicone": true,
}

var usageActionVerbs = []string{
	"aplique", "aplicar", "massageie", "enxágue", "enxague",
	"use", "apply", "spread", "rinse", "wash", "lavar",
	"deixe", "aguarde", "espalhe", "distribua", "penteie",
	"seque", "secar",
}

var (
	sentenceBreakRe   = regexp.MustCompile(`\.\s+[A-Z]`)
	complexAppendixRe = regexp.MustCompile(`\.\s*\*+[A-Z]`)
	complexKeywordRe  = regexp.MustCompile(`(?i)complex[*:\s]`)
)

// Validate runs every rule over the record and returns the combined
// report.
func Validate(in Input) Report {
	var issues []Issue

	issues = append(issues, checkRequiredFields(in)...)
	issues = append(issues, checkInciIsMarketing(in.InciIngredients)...)
	issues = append(issues, checkInciIsUsage(in.InciIngredients)...)
	issues = append(issues, checkInciHasSentences(in.InciIngredients)...)
	issues = append(issues, checkInciMarketingComplex(in.InciIngredients)...)
	issues = append(issues, checkDescriptionQuality(in.Description)...)
	issues = append(issues, checkUsageQuality(in.UsageInstructions)...)
	issues = append(issues, checkBenefitsQuality(in.BenefitsClaims)...)
	issues = append(issues, checkPrice(in.Price, in.Currency)...)

	score := 100
	for _, issue := range issues {
		switch issue.Severity {
		case models.SeverityError:
			score -= 20
		case models.SeverityWarning:
			score -= 5
		}
	}
	if score < 0 {
		score = 0
	}

	return Report{Issues: issues, Score: score}
}

func checkRequiredFields(in Input) []Issue {
	var issues []Issue
	if strings.TrimSpace(in.ProductName) == "" {
		issues = append(issues, Issue{
			Field:    "product_name",
			Code:     "name_missing",
			Severity: models.SeverityError,
			Message:  "Product name is missing",
		})
	}
	if in.ImageURLMain == "" {
		issues = append(issues, Issue{
			Field:    "image_url_main",
			Code:     "image_missing",
			Severity: models.SeverityWarning,
			Message:  "Product image is missing",
		})
	}
	if in.ProductTypeNormalized == "" {
		issues = append(issues, Issue{
			Field:    "product_type_normalized",
			Code:     "type_missing",
			Severity: models.SeverityInfo,
			Message:  "Product type is not set",
		})
	}
	return issues
}

func checkInciIsMarketing(inci []string) []Issue {
	if len(inci) == 0 {
		return nil
	}
	items := lowercaseItems(inci)

	anchorsFound := 0
	for _, item := range items {
		if inciAnchorIngredients[item] {
			anchorsFound++
		}
	}

	marketingHits := 0
	var examples []string
	for _, item := range items {
		for _, phrase := range marketingPhrases {
			if strings.Contains(item, phrase) {
				marketingHits++
				if len(examples) < 3 {
					examples = append(examples, clip(item, 80))
				}
				break
			}
		}
	}

	if marketingHits > 0 && anchorsFound == 0 {
		return []Issue{{
			Field:    "inci_ingredients",
			Code:     "inci_is_marketing",
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("INCI contains marketing text instead of ingredients (%d/%d items)", marketingHits, len(inci)),
			Details:  strings.Join(examples, "; "),
		}}
	}
	if float64(marketingHits) > float64(len(inci))*0.3 {
		return []Issue{{
			Field:    "inci_ingredients",
			Code:     "inci_mixed_marketing",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("%d of %d INCI items look like marketing text", marketingHits, len(inci)),
			Details:  strings.Join(examples, "; "),
		}}
	}
	return nil
}

func checkInciIsUsage(inci []string) []Issue {
	if len(inci) == 0 {
		return nil
	}
	items := lowercaseItems(inci)

	usageHits := 0
	var examples []string
	for _, item := range items {
		for _, phrase := range usagePhrases {
			if strings.Contains(item, phrase) {
				usageHits++
				if len(examples) < 3 {
					examples = append(examples, clip(item, 80))
				}
				break
			}
		}
	}

	if float64(usageHits) > float64(len(inci))*0.3 {
		return []Issue{{
			Field:    "inci_ingredients",
			Code:     "inci_is_usage",
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("INCI contains usage instructions (%d/%d items)", usageHits, len(inci)),
			Details:  strings.Join(examples, "; "),
		}}
	}
	if usageHits > 0 {
		return []Issue{{
			Field:    "inci_ingredients",
			Code:     "inci_has_usage_text",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("%d INCI item(s) look like usage instructions", usageHits),
			Details:  strings.Join(examples, "; "),
		}}
	}
	return nil
}

func checkInciHasSentences(inci []string) []Issue {
	if len(inci) == 0 {
		return nil
	}
	var sentenceItems []string
	for _, item := range inci {
		stripped := strings.TrimSpace(item)
		runeLen := len([]rune(stripped))
		if (sentenceBreakRe.MatchString(stripped) && runeLen > 50) || len(strings.Fields(stripped)) > 12 {
			sentenceItems = append(sentenceItems, clip(stripped, 80))
		}
	}
	if len(sentenceItems) > 3 {
		return []Issue{{
			Field:    "inci_ingredients",
			Code:     "inci_has_sentences",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("%d INCI items look like description sentences", len(sentenceItems)),
			Details:  sentenceItems[0],
		}}
	}
	return nil
}

func checkInciMarketingComplex(inci []string) []Issue {
	if len(inci) == 0 {
		return nil
	}
	var complexItems []string
	for _, item := range inci {
		if complexAppendixRe.MatchString(item) || complexKeywordRe.MatchString(item) {
			complexItems = append(complexItems, clip(item, 80))
		}
	}
	if len(complexItems) > 0 {
		return []Issue{{
			Field:    "inci_ingredients",
			Code:     "inci_marketing_complex",
			Severity: models.SeverityInfo,
			Message:  fmt.Sprintf("%d INCI items have marketing complex names appended", len(complexItems)),
			Details:  complexItems[0],
		}}
	}
	return nil
}

func checkDescriptionQuality(description string) []Issue {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return nil
	}
	var issues []Issue

	if strings.Contains(desc, ",") {
		parts := strings.Split(desc, ",")
		if len(parts) > 10 {
			inciLike := 0
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if len([]rune(p)) < 40 && len(strings.Fields(p)) <= 5 {
					inciLike++
				}
			}
			if float64(inciLike) > float64(len(parts))*0.7 {
				issues = append(issues, Issue{
					Field:    "description",
					Code:     "desc_is_inci_list",
					Severity: models.SeverityError,
					Message:  "Description appears to be an INCI ingredient list",
					Details:  clip(desc, 120),
				})
			}
		}
	}

	if len([]rune(desc)) < 20 && !containsLetter(desc) {
		issues = append(issues, Issue{
			Field:    "description",
			Code:     "desc_too_short",
			Severity: models.SeverityWarning,
			Message:  "Description is too short to be meaningful",
		})
	}

	return issues
}

func checkUsageQuality(usage string) []Issue {
	text := strings.ToLower(strings.TrimSpace(usage))
	if text == "" {
		return nil
	}
	for _, verb := range usageActionVerbs {
		if strings.Contains(text, verb) {
			return nil
		}
	}
	if len([]rune(text)) > 50 {
		return []Issue{{
			Field:    "usage_instructions",
			Code:     "usage_is_description",
			Severity: models.SeverityWarning,
			Message:  "Usage instructions contain no action verbs; may be a description",
			Details:  clip(usage, 100),
		}}
	}
	return nil
}

func checkBenefitsQuality(benefits []string) []Issue {
	if len(benefits) == 0 {
		return nil
	}
	var longItems []string
	for _, b := range benefits {
		if len([]rune(strings.TrimSpace(b))) > 120 {
			longItems = append(longItems, b)
		}
	}
	if len(longItems) > 0 {
		return []Issue{{
			Field:    "benefits_claims",
			Code:     "benefits_too_long",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("%d benefit(s) are very long; may be descriptions", len(longItems)),
			Details:  clip(longItems[0], 100),
		}}
	}
	return nil
}

func checkPrice(price *float64, currency string) []Issue {
	if price == nil {
		return nil
	}
	var issues []Issue
	if *price <= 0 {
		issues = append(issues, Issue{
			Field:    "price",
			Code:     "price_invalid",
			Severity: models.SeverityError,
			Message:  fmt.Sprintf("Price is non-positive: %g", *price),
		})
	} else if *price > 5000 {
		issues = append(issues, Issue{
			Field:    "price",
			Code:     "price_outlier",
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Price seems unusually high: %g", *price),
		})
	}
	if currency == "" {
		issues = append(issues, Issue{
			Field:    "currency",
			Code:     "price_no_currency",
			Severity: models.SeverityWarning,
			Message:  "Price is set but currency is missing",
		})
	}
	return issues
}

func lowercaseItems(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(strings.TrimSpace(item))
	}
	return out
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
