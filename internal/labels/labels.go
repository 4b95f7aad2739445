package labels

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hairdata/haira/internal/models"
)

// Parabens that indicate a product is not paraben-free.
var parabenIndicators = []string{
	"methylparaben",
	"ethylparaben",
	"propylparaben",
	"butylparaben",
	"isobutylparaben",
	"isopropylparaben",
	"benzylparaben",
	"sodium methylparaben",
	"sodium propylparaben",
	"sodium butylparaben",
	"calcium paraben",
	"potassium paraben",
}

// Petrolatum / petroleum derivatives.
var petrolatumIndicators = []string{
	"petrolatum",
	"paraffinum liquidum",
	"mineral oil",
	"cera microcristallina",
	"microcrystalline wax",
	"ceresin",
	"ozokerite",
	"paraffin",
	"petroleum jelly",
	"vaseline",
}

// Synthetic dye indicators (CI number prefixes plus common dyes).
var dyeIndicators = []string{
	"ci 1", "ci 2", "ci 4", "ci 5", "ci 6", "ci 7",
	"fd&c", "d&c",
	"red no.", "yellow no.", "blue no.", "green no.",
	"red dye", "yellow dye", "blue dye",
	"tartrazine",
	"amaranth",
	"erythrosine",
	"brilliant blue",
}

var ciNumberRe = regexp.MustCompile(`\bci\s*\d{4,5}\b`)

// Input carries the product fields scanned for seals. A nil
// InciIngredients slice disables inference entirely; an empty one means
// the list was validated and found empty.
type Input struct {
	Description       string
	ProductName       string
	BenefitsClaims    []string
	UsageInstructions string
	InciIngredients   []string
	ImageTexts        []string
}

type compiledKeyword struct {
	keyword string
	re      *regexp.Regexp
}

type compiledSeal struct {
	name     string
	keywords []compiledKeyword
}

// Engine detects quality seals three ways: keyword matches in text
// fields, keyword matches in image alt/title/filename strings, and
// inference from what an ingredient list does not contain.
type Engine struct {
	seals            []compiledSeal
	silicones        []string
	lowPooProhibited []string
	noPooProhibited  []string
}

// NewEngine compiles the keyword set. Keywords match on word
// boundaries, so "vegan" never fires inside "veganuary".
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		silicones:        lowered(cfg.Silicones),
		lowPooProhibited: lowered(cfg.LowPooProhibited),
		noPooProhibited:  lowered(cfg.NoPooProhibited),
	}
	for _, seal := range cfg.Seals {
		cs := compiledSeal{name: seal.Name}
		for _, kw := range seal.Keywords {
			kw = strings.ToLower(kw)
			cs.keywords = append(cs.keywords, compiledKeyword{
				keyword: kw,
				re:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`),
			})
		}
		e.seals = append(e.seals, cs)
	}
	return e
}

// Detect runs keyword detection, image scanning and INCI inference,
// in that order. A seal found by an earlier method is skipped by the
// later ones.
func (e *Engine) Detect(in Input) models.LabelResult {
	var (
		detected []string
		inferred []string
		sources  []string
		evidence []models.Evidence
	)

	textFields := buildTextFields(in)

	for _, seal := range e.seals {
	textScan:
		for _, field := range textFields {
			for _, kw := range seal.keywords {
				if kw.re.MatchString(field.text) {
					detected = append(detected, seal.name)
					sources = appendUnique(sources, "official_text")
					evidence = append(evidence, labelEvidence(seal.name, models.MethodTextKeyword, kw.keyword, field.name))
					break textScan
				}
			}
		}
	}

	if len(in.ImageTexts) > 0 {
		for _, seal := range e.seals {
			if contains(detected, seal.name) {
				continue
			}
		imageScan:
			for _, imgText := range in.ImageTexts {
				for _, kw := range seal.keywords {
					if kw.re.MatchString(imgText) {
						detected = append(detected, seal.name)
						sources = appendUnique(sources, "html_img_element")
						raw := fmt.Sprintf("%s (in: %s)", kw.keyword, clipRunes(imgText, 100))
						evidence = append(evidence, labelEvidence(seal.name, models.MethodImgElement, raw, "img_alt_title_filename"))
						break imageScan
					}
				}
			}
		}
	}

	if in.InciIngredients != nil {
		inci := lowered(in.InciIngredients)

		hasSilicone := hasProhibited(inci, e.silicones)
		hasLowPooProhibited := hasProhibited(inci, e.lowPooProhibited)
		hasNoPooProhibited := hasProhibited(inci, e.noPooProhibited)
		hasParaben := hasProhibited(inci, parabenIndicators)
		hasPetrolatum := hasProhibited(inci, petrolatumIndicators)
		hasDye := hasDye(inci)

		infer := func(seal, summary string) {
			inferred = append(inferred, seal)
			evidence = append(evidence, labelEvidence(seal, models.MethodInciInference, summary, "inci_ingredients"))
		}

		if !hasSilicone && !contains(detected, "silicone_free") {
			infer("silicone_free", "no silicone found in INCI list")
		}
		if !hasLowPooProhibited && !contains(detected, "sulfate_free") {
			infer("sulfate_free", "no harsh sulfates found in INCI list")
		}
		if !hasParaben && !contains(detected, "paraben_free") {
			infer("paraben_free", "no parabens found in INCI list")
		}
		if !hasPetrolatum && !contains(detected, "petrolatum_free") {
			infer("petrolatum_free", "no petrolatum/petroleum derivatives found in INCI list")
		}
		if !hasDye && !contains(detected, "dye_free") {
			infer("dye_free", "no synthetic dyes/colorants found in INCI list")
		}
		if !hasLowPooProhibited && !contains(detected, "low_poo") {
			infer("low_poo", "no harsh sulfates found in INCI list")
		}
		if !hasNoPooProhibited && !hasSilicone && !contains(detected, "no_poo") {
			infer("no_poo", "no prohibited surfactants or silicones in INCI list")
		}

		if len(inferred) > 0 {
			sources = appendUnique(sources, "inci_analysis")
		}
	}

	return models.LabelResult{
		Detected:   detected,
		Inferred:   inferred,
		Confidence: confidence(detected, inferred),
		Sources:    sources,
		Evidence:   evidence,
	}
}

type textField struct {
	name string
	text string
}

func buildTextFields(in Input) []textField {
	var fields []textField
	if in.Description != "" {
		fields = append(fields, textField{"description", in.Description})
	}
	if in.ProductName != "" {
		fields = append(fields, textField{"product_name", in.ProductName})
	}
	if len(in.BenefitsClaims) > 0 {
		fields = append(fields, textField{"benefits_claims", strings.Join(in.BenefitsClaims, " ")})
	}
	if in.UsageInstructions != "" {
		fields = append(fields, textField{"usage_instructions", in.UsageInstructions})
	}
	return fields
}

func labelEvidence(seal string, method models.ExtractionMethod, raw, locator string) models.Evidence {
	return models.Evidence{
		ID:              uuid.New(),
		FieldName:       "label:" + seal,
		EvidenceLocator: locator,
		RawSourceText:   raw,
		Method:          method,
		ExtractedAt:     time.Now().UTC(),
	}
}

func hasProhibited(inci, prohibited []string) bool {
	for _, ingredient := range inci {
		for _, name := range prohibited {
			if strings.Contains(ingredient, name) {
				return true
			}
		}
	}
	return false
}

func hasDye(inci []string) bool {
	for _, ingredient := range inci {
		for _, indicator := range dyeIndicators {
			if strings.Contains(ingredient, indicator) {
				return true
			}
		}
		if ciNumberRe.MatchString(ingredient) {
			return true
		}
	}
	return false
}

// confidence: 0.9 when text matches and inference agree something is
// there, 0.8 for text alone, 0.5 for inference alone, else 0.
func confidence(detected, inferred []string) float64 {
	switch {
	case len(detected) > 0 && len(inferred) > 0:
		return 0.9
	case len(detected) > 0:
		return 0.8
	case len(inferred) > 0:
		return 0.5
	default:
		return 0.0
	}
}

func lowered(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	if contains(list, s) {
		return list
	}
	return append(list, s)
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
