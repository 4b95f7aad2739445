package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/time/rate"
)

// How long a tolerated wait_for selector gets before we serialize
// the page anyway.
const selectorWait = 5 * time.Second

// RodFetcher drives a headless Chrome for storefronts that assemble
// the page in JavaScript. The browser launches lazily on first fetch
// and lives until Close.
type RodFetcher struct {
	opts    Options
	limiter *rate.Limiter
	launch  *launcher.Launcher
	browser *rod.Browser
}

func NewRodFetcher(opts Options) *RodFetcher {
	return &RodFetcher{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.delay()), 1),
	}
}

func (f *RodFetcher) ensureBrowser() error {
	if f.browser != nil {
		return nil
	}
	f.launch = launcher.New().Headless(f.opts.Headless)
	controlURL, err := f.launch.Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	f.browser = browser
	return nil
}

// Fetch navigates a fresh page, waits for load, tolerates a missing
// waitFor selector, and returns the serialized DOM.
func (f *RodFetcher) Fetch(ctx context.Context, pageURL, waitFor string) (string, error) {
	if err := f.ensureBrowser(); err != nil {
		return "", err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}
	log.Printf("fetching %s", pageURL)

	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Timeout(f.opts.timeout()).Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := page.Timeout(f.opts.timeout()).WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", pageURL, err)
	}
	if waitFor != "" {
		if _, err := page.Timeout(selectorWait).Element(waitFor); err != nil {
			log.Printf("selector %q not found on %s, continuing", waitFor, pageURL)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("serialize %s: %w", pageURL, err)
	}
	return html, nil
}

// Close shuts the browser down and cleans up the launcher's profile
// directory.
func (f *RodFetcher) Close() error {
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.browser = nil
	if f.launch != nil {
		f.launch.Cleanup()
		f.launch = nil
	}
	return err
}
