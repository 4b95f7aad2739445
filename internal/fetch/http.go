package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

const maxFetchRetries = 3

// HTTPFetcher is the plain client for server-rendered storefronts.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func NewHTTPFetcher(opts Options) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.timeout()},
		limiter:   rate.NewLimiter(rate.Every(opts.delay()), 1),
		userAgent: opts.UserAgent,
	}
}

// Fetch gets one page. Transient failures (429, 5xx, network errors)
// retry with fibonacci backoff; anything else fails fast. waitFor
// needs a DOM and is ignored here.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL, _ string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}
	log.Printf("fetching %s", pageURL)

	var body string
	backoff := retry.WithMaxRetries(maxFetchRetries, retry.NewFibonacci(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return err
		}
		if f.userAgent != "" {
			req.Header.Set("User-Agent", f.userAgent)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
			return fmt.Errorf("not an html response: %s", ct)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		body = string(data)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return body, nil
}

func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
