package labels

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairdata/haira/internal/models"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing dir keeps defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Len(t, cfg.Seals, len(DefaultConfig().Seals))
		assert.Contains(t, cfg.Silicones, "dimethicone")
	})

	t.Run("yaml overrides replace sections", func(t *testing.T) {
		dir := t.TempDir()
		seals := `seals:
  vegan:
    keywords: ["vegan", "Vegano"]
  sulfate_free:
    keywords: ["sem sulfato"]
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "seals.yaml"), []byte(seals), 0o644))
		silicones := "silicones:\n  - Dimethicone\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "silicones.yaml"), []byte(silicones), 0o644))

		cfg, err := LoadConfig(dir)
		require.NoError(t, err)
		require.Len(t, cfg.Seals, 2)
		// ordered by name for reproducible detection output
		assert.Equal(t, "sulfate_free", cfg.Seals[0].Name)
		assert.Equal(t, "vegan", cfg.Seals[1].Name)
		assert.Equal(t, []string{"Dimethicone"}, cfg.Silicones)
		// surfactants.yaml absent, defaults kept
		assert.Contains(t, cfg.NoPooProhibited, "cocamidopropyl betaine")
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "seals.yaml"), []byte(":\nnot yaml ["), 0o644))
		_, err := LoadConfig(dir)
		assert.Error(t, err)
	})

	t.Run("engine lowercases keywords from config", func(t *testing.T) {
		e := NewEngine(&Config{Seals: []SealConfig{{Name: "vegan", Keywords: []string{"VEGANO"}}}})
		res := e.Detect(Input{Description: "produto vegano certificado"})
		assert.Contains(t, res.Detected, "vegan")
	})
}

func TestKeywordDetection(t *testing.T) {
	e := NewEngine(nil)

	t.Run("sulfate free in description", func(t *testing.T) {
		res := e.Detect(Input{Description: "This shampoo is sulfate free and gentle"})
		assert.Contains(t, res.Detected, "sulfate_free")
		assert.Contains(t, res.Sources, "official_text")
	})

	t.Run("vegan in product name", func(t *testing.T) {
		res := e.Detect(Input{ProductName: "Super Vegan Shampoo 300ml"})
		assert.Contains(t, res.Detected, "vegan")
		assert.Contains(t, res.Sources, "official_text")
	})

	t.Run("match in benefits claims", func(t *testing.T) {
		res := e.Detect(Input{BenefitsClaims: []string{"Deep hydration", "Sulfate-free formula", "For all hair types"}})
		assert.Contains(t, res.Detected, "sulfate_free")
	})

	t.Run("no false positives", func(t *testing.T) {
		res := e.Detect(Input{
			Description: "A moisturizing shampoo for dry hair",
			ProductName: "Hydra Shampoo 250ml",
		})
		assert.Empty(t, res.Detected)
		assert.Empty(t, res.Inferred)
	})

	t.Run("case insensitive", func(t *testing.T) {
		res := e.Detect(Input{Description: "This product is SULFATE FREE and VEGAN"})
		assert.Contains(t, res.Detected, "sulfate_free")
		assert.Contains(t, res.Detected, "vegan")
	})

	t.Run("first match per seal ends the scan", func(t *testing.T) {
		res := e.Detect(Input{
			Description: "vegan formula",
			ProductName: "Vegan Shampoo",
		})
		count := 0
		for _, s := range res.Detected {
			if s == "vegan" {
				count++
			}
		}
		assert.Equal(t, 1, count)
		// evidence points at the first field scanned
		require.NotEmpty(t, res.Evidence)
		assert.Equal(t, "description", res.Evidence[0].EvidenceLocator)
	})
}

func TestWordBoundary(t *testing.T) {
	e := NewEngine(nil)

	t.Run("bio does not match biofilm", func(t *testing.T) {
		res := e.Detect(Input{Description: "Protects against probiotic biofilm buildup"})
		assert.NotContains(t, res.Detected, "organic")
	})

	t.Run("organic does not match organically", func(t *testing.T) {
		res := e.Detect(Input{Description: "This is organically derived"})
		assert.NotContains(t, res.Detected, "organic")
	})

	t.Run("natural does not match naturally", func(t *testing.T) {
		res := e.Detect(Input{Description: "Hair that moves naturally"})
		assert.NotContains(t, res.Detected, "natural")
	})

	t.Run("natural matches standalone", func(t *testing.T) {
		res := e.Detect(Input{Description: "A product with natural ingredients"})
		assert.Contains(t, res.Detected, "natural")
	})

	t.Run("vegan does not match veganuary", func(t *testing.T) {
		res := e.Detect(Input{Description: "Join veganuary this year"})
		assert.NotContains(t, res.Detected, "vegan")
	})

	t.Run("vegan matches standalone", func(t *testing.T) {
		res := e.Detect(Input{Description: "This is a vegan product"})
		assert.Contains(t, res.Detected, "vegan")
	})

	t.Run("multi word keyword", func(t *testing.T) {
		res := e.Detect(Input{Description: "Our sulfate free formula"})
		assert.Contains(t, res.Detected, "sulfate_free")
	})

	t.Run("portuguese keyword in accented context", func(t *testing.T) {
		res := e.Detect(Input{Description: "Fórmula sem sulfato para cabelos cacheados"})
		assert.Contains(t, res.Detected, "sulfate_free")
	})

	t.Run("no partial word match", func(t *testing.T) {
		res := e.Detect(Input{Description: "The organics line features supernatural cleaning"})
		assert.NotContains(t, res.Detected, "organic")
		assert.NotContains(t, res.Detected, "natural")
	})
}

func TestImageScanning(t *testing.T) {
	e := NewEngine(nil)

	t.Run("seal from image alt", func(t *testing.T) {
		res := e.Detect(Input{ImageTexts: []string{"selo cruelty free certificado"}})
		assert.Contains(t, res.Detected, "cruelty_free")
		assert.Contains(t, res.Sources, "html_img_element")
	})

	t.Run("seal from image filename", func(t *testing.T) {
		res := e.Detect(Input{ImageTexts: []string{"selo vegan certificado peta"}})
		assert.Contains(t, res.Detected, "vegan")
	})

	t.Run("no false positive from unrelated images", func(t *testing.T) {
		res := e.Detect(Input{ImageTexts: []string{"product hero banner", "shampoo 300ml"}})
		assert.Empty(t, res.Detected)
	})

	t.Run("image does not duplicate text detection", func(t *testing.T) {
		res := e.Detect(Input{
			Description: "This is a vegan product",
			ImageTexts:  []string{"selo vegan"},
		})
		count := 0
		for _, s := range res.Detected {
			if s == "vegan" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("image evidence shape", func(t *testing.T) {
		res := e.Detect(Input{ImageTexts: []string{"selo cruelty free"}})
		require.Len(t, res.Evidence, 1)
		assert.Equal(t, models.MethodImgElement, res.Evidence[0].Method)
		assert.Equal(t, "img_alt_title_filename", res.Evidence[0].EvidenceLocator)
		assert.Equal(t, "label:cruelty_free", res.Evidence[0].FieldName)
		assert.Contains(t, res.Evidence[0].RawSourceText, "cruelty free")
	})
}

func TestInciInference(t *testing.T) {
	e := NewEngine(nil)

	t.Run("infers silicone free", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Glycerin", "Cetearyl Alcohol", "Parfum"}})
		assert.Contains(t, res.Inferred, "silicone_free")
		assert.Contains(t, res.Sources, "inci_analysis")
	})

	t.Run("silicone present blocks inference", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Glycerin", "Dimethicone", "Parfum"}})
		assert.NotContains(t, res.Inferred, "silicone_free")
	})

	t.Run("infers low poo", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Cocamidopropyl Betaine", "Glycerin", "Parfum"}})
		assert.Contains(t, res.Inferred, "low_poo")
	})

	t.Run("harsh sulfate blocks low poo", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Sodium Laureth Sulfate", "Glycerin", "Parfum"}})
		assert.NotContains(t, res.Inferred, "low_poo")
	})

	t.Run("infers no poo without sulfates or silicones", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Glycerin", "Cetearyl Alcohol", "Parfum"}})
		assert.Contains(t, res.Inferred, "no_poo")
	})

	t.Run("betaine blocks no poo but not low poo", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Cocamidopropyl Betaine", "Glycerin"}})
		assert.NotContains(t, res.Inferred, "no_poo")
		assert.Contains(t, res.Inferred, "low_poo")
	})

	t.Run("silicone blocks no poo", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Glycerin", "Amodimethicone", "Parfum"}})
		assert.NotContains(t, res.Inferred, "no_poo")
	})

	t.Run("no inference without inci list", func(t *testing.T) {
		res := e.Detect(Input{Description: "A great shampoo"})
		assert.Empty(t, res.Inferred)
	})

	t.Run("infers sulfate free", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Cocamidopropyl Betaine", "Glycerin"}})
		assert.Contains(t, res.Inferred, "sulfate_free")
	})

	t.Run("sulfate blocks sulfate free", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Sodium Lauryl Sulfate", "Glycerin"}})
		assert.NotContains(t, res.Inferred, "sulfate_free")
	})

	t.Run("paraben blocks paraben free", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Glycerin", "Methylparaben", "Propylparaben"}})
		assert.NotContains(t, res.Inferred, "paraben_free")
	})

	t.Run("mineral oil blocks petrolatum free", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Mineral Oil", "Glycerin"}})
		assert.NotContains(t, res.Inferred, "petrolatum_free")
	})

	t.Run("clean list infers the free seals", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Glycerin", "Cetearyl Alcohol"}})
		assert.Contains(t, res.Inferred, "paraben_free")
		assert.Contains(t, res.Inferred, "petrolatum_free")
		assert.Contains(t, res.Inferred, "dye_free")
	})

	t.Run("ci number blocks dye free", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Glycerin", "CI 19140", "CI 77891"}})
		assert.NotContains(t, res.Inferred, "dye_free")
	})

	t.Run("fdc dye blocks dye free", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "FD&C Yellow No. 5"}})
		assert.NotContains(t, res.Inferred, "dye_free")
	})

	t.Run("detected seal is never also inferred", func(t *testing.T) {
		res := e.Detect(Input{
			Description:     "Fórmula sem silicone",
			InciIngredients: []string{"Aqua", "Glycerin", "Parfum"},
		})
		assert.Contains(t, res.Detected, "silicone_free")
		assert.NotContains(t, res.Inferred, "silicone_free")
	})
}

func TestConfidence(t *testing.T) {
	e := NewEngine(nil)

	t.Run("nothing found", func(t *testing.T) {
		res := e.Detect(Input{Description: "A moisturizing shampoo for dry hair"})
		assert.Equal(t, 0.0, res.Confidence)
	})

	t.Run("only inferred", func(t *testing.T) {
		res := e.Detect(Input{InciIngredients: []string{"Aqua", "Glycerin", "Cetearyl Alcohol", "Parfum"}})
		assert.Equal(t, 0.5, res.Confidence)
	})

	t.Run("only detected", func(t *testing.T) {
		res := e.Detect(Input{Description: "This shampoo is sulfate free and vegan"})
		assert.Equal(t, 0.8, res.Confidence)
	})

	t.Run("detected and inferred", func(t *testing.T) {
		res := e.Detect(Input{
			Description:     "This shampoo is sulfate free",
			InciIngredients: []string{"Aqua", "Glycerin", "Cetearyl Alcohol", "Parfum"},
		})
		assert.Equal(t, 0.9, res.Confidence)
	})
}

func TestImageTexts(t *testing.T) {
	t.Run("extracts alt text", func(t *testing.T) {
		texts := ImageTexts(`<html><body><img src="/img/selo.png" alt="Cruelty Free Certified"></body></html>`)
		assert.Contains(t, texts, "Cruelty Free Certified")
	})

	t.Run("extracts title text", func(t *testing.T) {
		texts := ImageTexts(`<html><body><img src="/img/selo.png" title="Vegan Product"></body></html>`)
		assert.Contains(t, texts, "Vegan Product")
	})

	t.Run("extracts filename with hyphens as spaces", func(t *testing.T) {
		texts := ImageTexts(`<html><body><img src="/images/selo-sulfate-free.png"></body></html>`)
		found := false
		for _, text := range texts {
			if strings.Contains(strings.ToLower(text), "selo sulfate free") {
				found = true
			}
		}
		assert.True(t, found, "texts: %v", texts)
	})

	t.Run("deduplicates case-insensitively", func(t *testing.T) {
		texts := ImageTexts(`<html><body>
			<img src="/a.png" alt="Vegan">
			<img src="/b.png" alt="vegan">
		</body></html>`)
		count := 0
		for _, text := range texts {
			if strings.EqualFold(text, "vegan") {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("skips long alt texts", func(t *testing.T) {
		long := strings.Repeat("A", 250)
		texts := ImageTexts(`<html><body><img src="/a.png" alt="` + long + `"></body></html>`)
		assert.NotContains(t, texts, long)
	})

	t.Run("lazy loaded src", func(t *testing.T) {
		texts := ImageTexts(`<html><body><img data-src="/selos/selo_vegano.webp"></body></html>`)
		assert.Contains(t, texts, "selo vegano")
	})
}
