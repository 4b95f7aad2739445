// Package inci parses and validates ingredient lists scraped from product
// pages. Raw ingredient text arrives contaminated: usage instructions glued
// to the end, UI link text in the middle, two products' lists concatenated,
// the same list rendered twice. The validator either produces a clean
// ordered list of at least five terms or rejects with a stable code.
package inci

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rejection codes surfaced through the quality gate.
const (
	ReasonNoText        = "no_inci_text"
	ReasonEmptyCleaning = "empty_after_cleaning"
	ReasonConcat        = "concat_detected"
	ReasonRepetition    = "repetition_detected"
)

// cutMarkers truncate the text at the first occurrence of trailing
// non-ingredient sections.
var cutMarkers = []string{
	"modo de uso", "como usar", "how to use", "directions",
	"benefícios", "benefits", "indicação", "precauções", "warnings",
	"validade", "reg. ms", "sac:", "cnpj", "fabricante",
}

var garbagePhrases = []string{
	"click here", "see more", "read more", "ver mais", "clique aqui",
	"saiba mais", "leia mais", "show more", "infamous", "known for",
	"commonly used", "is a type of", "can cause", "compare",
	"report error", "embed",
}

var verbIndicators = []string{
	"aplique", "aplicar", "massageie", "enxágue", "enxague",
	"use", "apply", "massage", "rinse", "wash", "lavar",
	"espalhe", "distribua", "deixe agir", "aguarde",
}

var (
	garbageRes        []*regexp.Regexp
	productHeadingRes []*regexp.Regexp
	urlRe             = regexp.MustCompile(`(?i)https?://`)
	bulletSplitRe     = regexp.MustCompile(`[●•·]`)
)

func init() {
	for _, phrase := range garbagePhrases {
		garbageRes = append(garbageRes, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(phrase)))
	}
	for _, pattern := range []string{
		`^shampoo\s*:`, `^condicionador\s*:`, `^conditioner\s*:`,
		`^máscara\s*:`, `^mascara\s*:`, `^mask\s*:`,
		`^creme\s*:`, `^leave-in\s*:`, `^óleo\s*:`,
	} {
		productHeadingRes = append(productHeadingRes, regexp.MustCompile(pattern))
	}
}

// Result is the validation outcome. Cleaned holds the surviving terms in
// source order; Removed collects duplicates and rejected items.
type Result struct {
	Valid           bool
	Cleaned         []string
	RejectionReason string
	Removed         []string
}

// CleanText truncates at cut markers and strips recurring UI phrases.
func CleanText(raw string) string {
	text := raw
	lower := strings.ToLower(text)
	for _, marker := range cutMarkers {
		if idx := strings.Index(lower, marker); idx != -1 {
			text = text[:idx]
			lower = lower[:idx]
		}
	}
	for _, re := range garbageRes {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// ValidateIngredient applies the per-item grammar: 2..80 chars, no URL, at
// most 8 tokens, and no usage verb once the item is longer than a name.
func ValidateIngredient(ingredient string) bool {
	s := strings.TrimSpace(ingredient)
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 80 {
		return false
	}
	if urlRe.MatchString(s) {
		return false
	}
	tokens := len(strings.Fields(s))
	if tokens > 8 {
		return false
	}
	lower := strings.ToLower(s)
	for _, verb := range verbIndicators {
		if strings.Contains(lower, verb) && tokens > 3 {
			return false
		}
	}
	return true
}

// DetectConcatenation flags lists that glue two products together: either a
// second aqua/water anchor more than one position after the first, or an
// item that reads like a product heading ("Shampoo:", "Condicionador:").
func DetectConcatenation(ingredients []string) bool {
	var aquaPositions []int
	lowered := make([]string, len(ingredients))
	for i, ing := range ingredients {
		lowered[i] = strings.ToLower(strings.TrimSpace(ing))
		switch lowered[i] {
		case "aqua", "water", "aqua/water":
			aquaPositions = append(aquaPositions, i)
		}
	}
	for j := 1; j < len(aquaPositions); j++ {
		if aquaPositions[j]-aquaPositions[j-1] > 1 {
			return true
		}
	}
	for _, item := range lowered {
		for _, re := range productHeadingRes {
			if re.MatchString(item) {
				return true
			}
		}
	}
	return false
}

// DetectRepetition flags a list whose opening block of size k (k from 3 to
// half the list) is immediately repeated.
func DetectRepetition(ingredients []string) bool {
	normalized := make([]string, len(ingredients))
	for i, ing := range ingredients {
		normalized[i] = strings.ToLower(strings.TrimSpace(ing))
	}
	n := len(normalized)
	for blockSize := 3; blockSize <= n/2; blockSize++ {
		match := true
		for i := 0; i < blockSize; i++ {
			if normalized[i] != normalized[blockSize+i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// ValidateList runs the pathology checks, dedupes case-insensitively while
// preserving order, and enforces the five-term minimum. Repetition runs
// before concatenation: a duplicated block would otherwise trip the aqua
// anchor rule and report the wrong code.
func ValidateList(ingredients []string) Result {
	if DetectRepetition(ingredients) {
		return Result{Valid: false, RejectionReason: ReasonRepetition}
	}
	if DetectConcatenation(ingredients) {
		return Result{Valid: false, RejectionReason: ReasonConcat}
	}

	seen := make(map[string]bool)
	var cleaned, removed []string
	for _, ing := range ingredients {
		s := strings.TrimSpace(ing)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			removed = append(removed, s)
			continue
		}
		if !ValidateIngredient(s) {
			removed = append(removed, s)
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, s)
	}

	if len(cleaned) < 5 {
		return Result{
			Valid:           false,
			Cleaned:         cleaned,
			Removed:         removed,
			RejectionReason: fmt.Sprintf("min_ingredients: only %d valid terms", len(cleaned)),
		}
	}
	return Result{Valid: true, Cleaned: cleaned, Removed: removed}
}

// ExtractAndValidate is the full pipeline over raw page text: clean, split
// on bullets when present (comma otherwise), then validate.
func ExtractAndValidate(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{Valid: false, RejectionReason: ReasonNoText}
	}
	cleaned := CleanText(raw)
	if cleaned == "" {
		return Result{Valid: false, RejectionReason: ReasonEmptyCleaning}
	}

	var pieces []string
	if strings.ContainsAny(cleaned, "●•·") {
		pieces = bulletSplitRe.Split(cleaned, -1)
	} else {
		pieces = strings.Split(cleaned, ",")
	}
	var ingredients []string
	for _, p := range pieces {
		if s := strings.TrimSpace(p); s != "" {
			ingredients = append(ingredients, s)
		}
	}
	return ValidateList(ingredients)
}
