package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server struct {
		Port         string        `default:"8080" envconfig:"PORT"`
		ReadTimeout  time.Duration `default:"30s" envconfig:"READ_TIMEOUT"`
		WriteTimeout time.Duration `default:"30s" envconfig:"WRITE_TIMEOUT"`
	}

	Database struct {
		URL      string `required:"true" envconfig:"DATABASE_URL"`
		MaxConns int    `default:"10" envconfig:"DB_MAX_CONNS"`
	}

	Fetcher struct {
		RequestDelaySeconds int           `default:"3" envconfig:"REQUEST_DELAY_SECONDS"`
		Timeout             time.Duration `default:"45s" envconfig:"FETCH_TIMEOUT"`
		Headless            bool          `default:"true" envconfig:"HEADLESS"`
		UserAgent           string        `default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36" envconfig:"USER_AGENT"`
	}

	LLM struct {
		APIKey           string `envconfig:"OPENAI_API_KEY"`
		Model            string `default:"gpt-4o" envconfig:"LLM_MODEL"`
		MaxCallsPerBrand int    `default:"50" envconfig:"MAX_LLM_CALLS_PER_BRAND"`
	}

	Pipeline struct {
		MinInciTerms  int     `default:"5" envconfig:"QA_MIN_INCI_TERMS"`
		MinConfidence float64 `default:"0.80" envconfig:"QA_MIN_CONFIDENCE"`
	}

	Blueprints struct {
		Dir string `default:"./blueprints" envconfig:"BLUEPRINTS_DIR"`
	}

	Registry struct {
		BrandsFile string `default:"./config/brands.json" envconfig:"BRANDS_FILE"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	return &cfg, nil
}
