// Package taxonomy holds the closed hair-care vocabulary: normalized product
// types, gender targeting, hair-relevance keywords, and kit URL patterns.
// The tables are ordered; first hit wins everywhere.
package taxonomy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hairdata/haira/internal/models"
)

// HairProductTypes is the closed normalized vocabulary.
var HairProductTypes = map[string]bool{
	"shampoo":         true,
	"conditioner":     true,
	"mask":            true,
	"treatment":       true,
	"leave_in":        true,
	"oil_serum":       true,
	"tonic":           true,
	"exfoliant":       true,
	"scalp_treatment": true,
	"gel":             true,
	"mousse":          true,
	"spray":           true,
	"pomade":          true,
	"wax":             true,
	"clay":            true,
	"paste":           true,
	"texturizer":      true,
	"finisher":        true,
	"ampule":          true,
	"serum":           true,
	"cream":           true,
}

// HairKeywords mark a name/URL/description as hair-related. Order matters:
// the first 20 are the high-precision ones the URL classifier relies on.
var HairKeywords = []string{
	"shampoo", "condicionador", "conditioner", "máscara capilar", "mascara capilar",
	"hair mask", "tratamento capilar", "leave-in", "leave in", "óleo capilar",
	"oil hair", "tônico capilar", "tonico capilar", "scalp", "couro cabeludo",
	"antiqueda", "anti-queda", "queda capilar", "crescimento capilar",
	"cabelo", "cabelos", "hair", "capilar", "fios",
	"gel fixador", "mousse", "spray fixador", "pomada", "cera capilar",
	"wax", "clay", "pasta modeladora", "texturizador", "finalizador",
	"ampola", "sérum capilar", "serum capilar", "creme para pentear",
	"creme de pentear", "alisamento", "progressiva", "reconstrução",
	"hidratação capilar", "nutrição capilar", "reparação",
}

// ExcludeKeywords veto hair relevance (body, face, makeup, fragrance lines).
var ExcludeKeywords = []string{
	"corpo", "corporal", "body", "facial", "face", "rosto",
	"maquiagem", "makeup", "perfume", "fragrance", "fragrância",
	"unhas", "nail", "acessório", "accessory",
	"protetor solar", "sunscreen", "desodorante", "deodorant",
	"sabonete líquido", "sabonete corporal",
	"hidratante corporal", "body lotion", "body cream",
	"batom", "lipstick", "rímel", "mascara para cílios",
}

var kitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/kit[-_]`),
	regexp.MustCompile(`/combo[-_]`),
	regexp.MustCompile(`/bundle[-_]`),
	regexp.MustCompile(`/set[-_]`),
	regexp.MustCompile(`/kit/`),
	regexp.MustCompile(`/combo/`),
	regexp.MustCompile(`/bundle/`),
}

// Male keywords longer than three characters are substring-matched; "men"
// and "man" need word boundaries or "tratamento" and "manteiga" would
// target every treatment and butter product at men.
var maleSubstrings = []string{"masculino", "masculina", "for men", "barber", "barbearia"}
var maleBoundary = regexp.MustCompile(`\b(men|man)\b`)

var kidsKeywords = []string{"kids", "infantil", "criança", "children", "baby"}

type typeEntry struct {
	keywords   []string
	normalized string
}

var typeMap = []typeEntry{
	{[]string{"shampoo"}, "shampoo"},
	{[]string{"condicionador", "conditioner"}, "conditioner"},
	{[]string{"máscara", "mascara", "mask"}, "mask"},
	{[]string{"leave-in", "leave in"}, "leave_in"},
	{[]string{"óleo", "oleo", "oil"}, "oil_serum"},
	{[]string{"sérum", "serum"}, "oil_serum"},
	{[]string{"tônico", "tonico", "tonic"}, "tonic"},
	{[]string{"pomada", "pomade"}, "pomade"},
	{[]string{"gel"}, "gel"},
	{[]string{"mousse"}, "mousse"},
	{[]string{"spray"}, "spray"},
	{[]string{"cera", "wax"}, "wax"},
	{[]string{"argila", "clay"}, "clay"},
	{[]string{"pasta", "paste"}, "paste"},
	{[]string{"creme de pentear", "creme para pentear", "cream"}, "cream"},
	{[]string{"ampola", "ampule"}, "ampule"},
	{[]string{"finalizador", "finisher"}, "finisher"},
	{[]string{"tratamento", "treatment", "reconstrução"}, "treatment"},
	{[]string{"esfoliante", "exfoliant"}, "exfoliant"},
	{[]string{"texturizador", "texturizer"}, "texturizer"},
}

// NormalizeProductType maps a raw product name onto the closed type set.
// The walk is ordered; ok is false when nothing matched.
func NormalizeProductType(rawName string) (string, bool) {
	lower := strings.ToLower(rawName)
	for _, entry := range typeMap {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.normalized, true
			}
		}
	}
	return "", false
}

// DetectGenderTarget tests unisex, then kids, then male markers over the
// combined name and URL.
func DetectGenderTarget(productName, url string) models.GenderTarget {
	combined := strings.ToLower(productName + " " + url)
	if strings.Contains(combined, "unissex") || strings.Contains(combined, "unisex") {
		return models.GenderUnisex
	}
	for _, kw := range kidsKeywords {
		if strings.Contains(combined, kw) {
			return models.GenderKids
		}
	}
	for _, kw := range maleSubstrings {
		if strings.Contains(combined, kw) {
			return models.GenderMen
		}
	}
	if maleBoundary.MatchString(combined) {
		return models.GenderMen
	}
	return models.GenderUnknown
}

// IsHairRelevant decides whether a product belongs in the hair catalog.
// Exclusions veto first; a hair-keyword hit yields the stored reason.
func IsHairRelevant(productName, url, description string) (bool, string) {
	combined := strings.ToLower(productName + " " + url + " " + description)
	for _, ekw := range ExcludeKeywords {
		if strings.Contains(combined, ekw) {
			return false, ""
		}
	}
	for _, hkw := range HairKeywords {
		if strings.Contains(combined, hkw) {
			return true, fmt.Sprintf("keyword '%s' found", hkw)
		}
	}
	return false, ""
}

// IsKitURL reports whether the URL points at a multi-product kit page.
func IsKitURL(url string) bool {
	lower := strings.ToLower(url)
	for _, p := range kitPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// Coarse retail categories grouping the normalized types.
var categoryByType = map[string]string{
	"shampoo":         "cleansing",
	"exfoliant":       "cleansing",
	"conditioner":     "treatment",
	"mask":            "treatment",
	"treatment":       "treatment",
	"ampule":          "treatment",
	"tonic":           "treatment",
	"scalp_treatment": "treatment",
	"leave_in":        "finishing",
	"oil_serum":       "finishing",
	"serum":           "finishing",
	"cream":           "finishing",
	"finisher":        "finishing",
	"gel":             "styling",
	"mousse":          "styling",
	"spray":           "styling",
	"pomade":          "styling",
	"wax":             "styling",
	"clay":            "styling",
	"paste":           "styling",
	"texturizer":      "styling",
}

// NormalizeCategory derives the coarse catalog category from a normalized
// product type, falling back to a kit marker in the name. Empty when
// neither applies.
func NormalizeCategory(productType, productName string) string {
	if cat, ok := categoryByType[productType]; ok {
		return cat
	}
	if strings.Contains(strings.ToLower(productName), "kit") {
		return "kit"
	}
	return ""
}
