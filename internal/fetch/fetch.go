// Package fetch retrieves product pages. Server-rendered storefronts
// get a plain HTTP client; JavaScript storefronts get a headless
// Chrome session. Both pace their requests so one brand run never
// hammers a store.
package fetch

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Fetcher returns the rendered HTML of one page. waitFor is a CSS
// selector to wait for before serializing; implementations without a
// DOM ignore it.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL, waitFor string) (string, error)
	Close() error
}

// Options carries the knobs shared by both fetchers.
type Options struct {
	RequestDelay time.Duration
	Timeout      time.Duration
	Headless     bool
	UserAgent    string
}

const (
	defaultDelay   = 3 * time.Second
	defaultTimeout = 45 * time.Second
)

func (o Options) delay() time.Duration {
	if o.RequestDelay <= 0 {
		return defaultDelay
	}
	return o.RequestDelay
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return defaultTimeout
	}
	return o.Timeout
}

// AllowedDomain reports whether the URL's host is one of the allowed
// domains or a subdomain of one.
func AllowedDomain(rawURL string, allowedDomains []string) bool {
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
