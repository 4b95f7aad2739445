package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hairdata/haira/internal/config"
	"github.com/hairdata/haira/internal/discovery"
	"github.com/hairdata/haira/internal/fetch"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "haira",
	Short: "Hair product intelligence platform",
	Long: `haira harvests branded hair-care catalogs: import the brand
registry, generate per-brand blueprints, discover product URLs, extract
and validate product data, and report coverage.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel == "debug" {
			log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (info, debug)")

	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(blueprintCmd)
	rootCmd.AddCommand(reconCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runContext is cancelled by SIGINT/SIGTERM so long runs stop at the
// next URL boundary and still write their coverage row.
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func fetcherOptions(cfg *config.Config) fetch.Options {
	return fetch.Options{
		RequestDelay: time.Duration(cfg.Fetcher.RequestDelaySeconds) * time.Second,
		Timeout:      cfg.Fetcher.Timeout,
		Headless:     cfg.Fetcher.Headless,
		UserAgent:    cfg.Fetcher.UserAgent,
	}
}

// newFetcher picks the transport for a brand. Server-rendered
// storefront platforms answer plain HTTP; anything that needs a
// rendered DOM goes through the browser.
func newFetcher(cfg *config.Config, bp *discovery.Blueprint) fetch.Fetcher {
	opts := fetcherOptions(cfg)
	if bp.Extraction.WaitForSelector == "" && (bp.Platform == "vtex" || bp.Platform == "shopify") {
		return fetch.NewHTTPFetcher(opts)
	}
	return fetch.NewRodFetcher(opts)
}

func newDiscoverer(cfg *config.Config, f fetch.Fetcher) *discovery.Discoverer {
	return discovery.NewDiscoverer(
		discovery.NewSitemapAdapter(),
		discovery.NewSFCCAdapter(cfg.Fetcher.UserAgent),
		discovery.NewDOMCrawlAdapter(f),
	)
}
