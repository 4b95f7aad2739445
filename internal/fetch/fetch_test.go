package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		RequestDelay: time.Millisecond,
		Timeout:      5 * time.Second,
		UserAgent:    "haira-test/1.0",
	}
}

func TestHTTPFetcher(t *testing.T) {
	t.Run("returns page body and sends user agent", func(t *testing.T) {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><body><h1>Shampoo</h1></body></html>"))
		}))
		defer srv.Close()

		f := NewHTTPFetcher(testOptions())
		defer f.Close()

		html, err := f.Fetch(context.Background(), srv.URL, "")
		require.NoError(t, err)
		assert.Contains(t, html, "<h1>Shampoo</h1>")
		assert.Equal(t, "haira-test/1.0", gotUA)
	})

	t.Run("retries transient server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>ok</html>"))
		}))
		defer srv.Close()

		f := NewHTTPFetcher(testOptions())
		defer f.Close()

		html, err := f.Fetch(context.Background(), srv.URL, "")
		require.NoError(t, err)
		assert.Contains(t, html, "ok")
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry a 404", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewHTTPFetcher(testOptions())
		defer f.Close()

		_, err := f.Fetch(context.Background(), srv.URL, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("gives up on persistent 429", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		f := NewHTTPFetcher(testOptions())
		defer f.Close()

		_, err := f.Fetch(context.Background(), srv.URL, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.GreaterOrEqual(t, calls.Load(), int32(2))
	})

	t.Run("rejects non-html responses", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"not": "a page"}`))
		}))
		defer srv.Close()

		f := NewHTTPFetcher(testOptions())
		defer f.Close()

		_, err := f.Fetch(context.Background(), srv.URL, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not an html response")
	})

	t.Run("spaces consecutive requests", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		}))
		defer srv.Close()

		opts := testOptions()
		opts.RequestDelay = 100 * time.Millisecond
		f := NewHTTPFetcher(opts)
		defer f.Close()

		start := time.Now()
		_, err := f.Fetch(context.Background(), srv.URL, "")
		require.NoError(t, err)
		_, err = f.Fetch(context.Background(), srv.URL, "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})

	t.Run("honors context cancellation while waiting", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		}))
		defer srv.Close()

		opts := testOptions()
		opts.RequestDelay = 10 * time.Second
		f := NewHTTPFetcher(opts)
		defer f.Close()

		_, err := f.Fetch(context.Background(), srv.URL, "")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = f.Fetch(ctx, srv.URL, "")
		assert.Error(t, err)
	})
}

func TestAllowedDomain(t *testing.T) {
	domains := []string{"amend.com.br"}

	assert.True(t, AllowedDomain("https://amend.com.br/shampoo", domains))
	assert.True(t, AllowedDomain("https://www.amend.com.br/shampoo", domains))
	assert.True(t, AllowedDomain("https://loja.amend.com.br/p/1.html", domains))
	assert.False(t, AllowedDomain("https://incidecoder.com/products/amend", domains))
	assert.False(t, AllowedDomain("https://notamend.com.br/shampoo", domains))
	assert.False(t, AllowedDomain("://bad", domains))
}
