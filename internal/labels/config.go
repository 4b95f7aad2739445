package labels

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// SealConfig is one seal and the keywords that announce it in
// marketing copy.
type SealConfig struct {
	Name     string
	Keywords []string
}

// Config holds the seal keyword lists and the ingredient lists used
// for absence inference.
type Config struct {
	Seals            []SealConfig
	Silicones        []string
	LowPooProhibited []string
	NoPooProhibited  []string
}

// DefaultConfig returns the built-in seal set. Brands rarely need a
// custom set; LoadConfig layers YAML overrides on top of this.
func DefaultConfig() *Config {
	return &Config{
		Seals: []SealConfig{
			{Name: "sulfate_free", Keywords: []string{"sulfate free", "sulfate-free", "sem sulfato"}},
			{Name: "vegan", Keywords: []string{"vegan", "vegano", "vegana"}},
			{Name: "silicone_free", Keywords: []string{"silicone free", "silicone-free", "sem silicone"}},
			{Name: "organic", Keywords: []string{"organico", "organic", "certified organic", "bio certificado"}},
			{Name: "natural", Keywords: []string{"natural", "100% natural", "ingredientes naturais"}},
			{Name: "low_poo", Keywords: []string{"low poo", "low-poo"}},
			{Name: "no_poo", Keywords: []string{"no poo", "no-poo"}},
			{Name: "cruelty_free", Keywords: []string{"cruelty free", "cruelty-free"}},
			{Name: "paraben_free", Keywords: []string{"paraben free", "paraben-free", "sem parabenos"}},
			{Name: "petrolatum_free", Keywords: []string{"sem petrolato", "petrolatum free"}},
			{Name: "dye_free", Keywords: []string{"sem corante", "dye free"}},
		},
		Silicones: []string{
			"dimethicone",
			"amodimethicone",
			"cyclomethicone",
			"cyclopentasiloxane",
		},
		LowPooProhibited: []string{
			"sodium lauryl sulfate",
			"sodium laureth sulfate",
			"ammonium lauryl sulfate",
		},
		NoPooProhibited: []string{
			"sodium lauryl sulfate",
			"sodium laureth sulfate",
			"ammonium lauryl sulfate",
			"cocamidopropyl betaine",
			"decyl glucoside",
		},
	}
}

type sealsFile struct {
	Seals map[string]struct {
		Keywords []string `yaml:"keywords"`
	} `yaml:"seals"`
}

type siliconesFile struct {
	Silicones []string `yaml:"silicones"`
}

type surfactantsFile struct {
	LowPooProhibited []string `yaml:"low_poo_prohibited"`
	NoPooProhibited  []string `yaml:"no_poo_prohibited"`
}

// LoadConfig reads seals.yaml, silicones.yaml and surfactants.yaml from
// dir, replacing the matching section of the default config for each
// file found. A missing file keeps the defaults; a malformed one is an
// error. Seals from YAML are ordered by name so detection output is
// reproducible.
func LoadConfig(dir string) (*Config, error) {
	cfg := DefaultConfig()

	if raw, err := os.ReadFile(filepath.Join(dir, "seals.yaml")); err == nil {
		var f sealsFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse seals.yaml: %w", err)
		}
		names := make([]string, 0, len(f.Seals))
		for name := range f.Seals {
			names = append(names, name)
		}
		sort.Strings(names)
		seals := make([]SealConfig, 0, len(names))
		for _, name := range names {
			seals = append(seals, SealConfig{Name: name, Keywords: f.Seals[name].Keywords})
		}
		cfg.Seals = seals
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read seals.yaml: %w", err)
	}

	if raw, err := os.ReadFile(filepath.Join(dir, "silicones.yaml")); err == nil {
		var f siliconesFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse silicones.yaml: %w", err)
		}
		cfg.Silicones = f.Silicones
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read silicones.yaml: %w", err)
	}

	if raw, err := os.ReadFile(filepath.Join(dir, "surfactants.yaml")); err == nil {
		var f surfactantsFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse surfactants.yaml: %w", err)
		}
		cfg.LowPooProhibited = f.LowPooProhibited
		cfg.NoPooProhibited = f.NoPooProhibited
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read surfactants.yaml: %w", err)
	}

	return cfg, nil
}
