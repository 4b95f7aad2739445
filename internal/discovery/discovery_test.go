package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairdata/haira/internal/models"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://shop.vtexcommercestable.com/loja", "vtex"},
		{"https://www.marca.com.br/api/catalog_system/pub", "vtex"},
		{"https://brand.myshopify.com", "shopify"},
		{"https://store.com/collections/hair", "shopify"},
		{"https://site.com.br/wp-content/themes/x", "woocommerce"},
		{"https://www.amend.com.br", "custom"},
		{"", "custom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectPlatform(tt.url), tt.url)
	}
}

func TestGenerate(t *testing.T) {
	brand := models.Brand{
		BrandName:       "Amend",
		BrandSlug:       "amend",
		OfficialURLRoot: "https://www.amend.com.br/",
	}

	t.Run("defaults from root url", func(t *testing.T) {
		bp := Generate(brand, "")

		assert.Equal(t, "amend", bp.BrandSlug)
		assert.Equal(t, "custom", bp.Platform)
		assert.Equal(t, "www.amend.com.br", bp.Domain)
		assert.Equal(t, []string{"www.amend.com.br"}, bp.AllowedDomains)
		assert.Equal(t, []string{"https://www.amend.com.br/"}, bp.Entrypoints)
		assert.Equal(t, []string{"https://www.amend.com.br/sitemap.xml"}, bp.Discovery.SitemapURLs)
		assert.Equal(t, "sitemap_first", bp.Discovery.Strategy)
		assert.Equal(t, defaultMaxPages, bp.Discovery.MaxPages)
		assert.Equal(t, 1, bp.Version)
		assert.True(t, bp.Extraction.UseLLMFallback)
		assert.Contains(t, bp.Extraction.InciSelectors, "#ingredientes p")
		assert.Equal(t, "h1.product-name", bp.Extraction.NameSelectors[0])
	})

	t.Run("explicit platform picks its selector pack", func(t *testing.T) {
		bp := Generate(brand, "vtex")

		assert.Equal(t, "vtex", bp.Platform)
		assert.Contains(t, bp.Extraction.InciSelectors,
			".vtex-store-components-3-x-productDescriptionText p")
	})

	t.Run("brand entrypoints win over the root fallback", func(t *testing.T) {
		withEntrypoints := brand
		withEntrypoints.CatalogEntrypoints = []string{"https://www.amend.com.br/cabelos"}

		bp := Generate(withEntrypoints, "")
		assert.Equal(t, []string{"https://www.amend.com.br/cabelos"}, bp.Entrypoints)
	})
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("roundtrip", func(t *testing.T) {
		bp := Generate(models.Brand{
			BrandName:       "Truss",
			BrandSlug:       "truss",
			OfficialURLRoot: "https://www.truss.com.br",
		}, "")
		bp.Discovery.ProductURLPattern = `/produto/`
		bp.Discovery.SFCCCategories = []string{"shampoo"}

		path, err := Save(bp, dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "truss.yaml"), path)

		loaded, err := Load("truss", dir)
		require.NoError(t, err)
		assert.Equal(t, bp, loaded)
	})

	t.Run("missing blueprint is not an error", func(t *testing.T) {
		loaded, err := Load("no-such-brand", dir)
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("unknown yaml keys are ignored", func(t *testing.T) {
		raw := "brand_slug: keune\nplatform: custom\nfuture_field: ignored\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "keune.yaml"), []byte(raw), 0o644))

		loaded, err := Load("keune", dir)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "keune", loaded.BrandSlug)
	})
}

func TestProductPattern(t *testing.T) {
	bp := &Blueprint{}
	assert.Nil(t, bp.ProductPattern())

	bp.Discovery.ProductURLPattern = `(`
	assert.Nil(t, bp.ProductPattern())

	bp.Discovery.ProductURLPattern = `/p$`
	re := bp.ProductPattern()
	require.NotNil(t, re)
	assert.True(t, re.MatchString("https://x.com/shampoo/p"))
}

const sitemapIndexXML = `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/products.xml</loc></sitemap>
  <sitemap><loc>%s/missing.xml</loc></sitemap>
</sitemapindex>`

const sitemapProductsXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://www.amend.com.br/shampoo-gold-black-reparador</loc></url>
  <url><loc>https://www.amend.com.br/kit-shampoo-condicionador</loc></url>
  <url><loc>https://www.amend.com.br/blog/como-cuidar</loc></url>
  <url><loc>https://www.amend.com.br/cabelos/shampoo</loc></url>
  <url><loc>https://www.amend.com.br/shampoo-gold-black-reparador</loc></url>
</urlset>`

func TestSitemapAdapter(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, sitemapIndexXML, srv.URL, srv.URL)
	})
	mux.HandleFunc("/products.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sitemapProductsXML)
	})
	mux.HandleFunc("/missing.xml", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	adapter := NewSitemapAdapter()
	assert.Equal(t, "sitemap", adapter.Name())

	t.Run("follows the index and classifies each url", func(t *testing.T) {
		bp := &Blueprint{
			Discovery: DiscoveryConfig{SitemapURLs: []string{srv.URL + "/sitemap.xml"}},
		}

		found, err := adapter.Discover(context.Background(), bp)
		require.NoError(t, err)
		require.Len(t, found, 4)

		product := found[0]
		assert.Equal(t, "https://www.amend.com.br/shampoo-gold-black-reparador", product.URL)
		assert.Equal(t, "sitemap", product.SourceType)
		assert.True(t, product.HairRelevant)
		assert.Equal(t, "url_type=product", product.HairRelevanceReason)
		assert.False(t, product.IsKit)

		kit := found[1]
		assert.True(t, kit.IsKit)
		assert.False(t, kit.HairRelevant)

		blog := found[2]
		assert.Equal(t, "url_type=other", blog.HairRelevanceReason)
		assert.False(t, blog.HairRelevant)

		category := found[3]
		assert.True(t, category.HairRelevant)
		assert.Equal(t, "url_type=category", category.HairRelevanceReason)
	})

	t.Run("caps results at max_pages", func(t *testing.T) {
		bp := &Blueprint{
			Discovery: DiscoveryConfig{
				SitemapURLs: []string{srv.URL + "/sitemap.xml"},
				MaxPages:    2,
			},
		}

		found, err := adapter.Discover(context.Background(), bp)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("blueprint pattern promotes otherwise unmarked urls", func(t *testing.T) {
		mux.HandleFunc("/pattern.xml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<urlset><url><loc>https://www.marca.com.br/produto/item-especial</loc></url></urlset>`)
		})
		bp := &Blueprint{
			Discovery: DiscoveryConfig{
				SitemapURLs:       []string{srv.URL + "/pattern.xml"},
				ProductURLPattern: `/produto/`,
			},
		}

		found, err := adapter.Discover(context.Background(), bp)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.True(t, found[0].HairRelevant)
		assert.Equal(t, "url_type=product", found[0].HairRelevanceReason)
	})
}

// fakeFetcher serves canned pages and records what was asked of it.
type fakeFetcher struct {
	pages    map[string]string
	calls    []string
	waitFors []string
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL, waitFor string) (string, error) {
	f.calls = append(f.calls, pageURL)
	f.waitFors = append(f.waitFors, waitFor)
	page, ok := f.pages[pageURL]
	if !ok {
		return "", errors.New("render failed")
	}
	return page, nil
}

func (f *fakeFetcher) Close() error { return nil }

const crawlPageHTML = `<html><body>
<a href="/shampoo-gold-black-reparador?utm_source=mail">Shampoo</a>
<a href="https://www.amend.com.br/kit-shampoo-condicionador#detalhes">Kit</a>
<a href="https://www.instagram.com/amend">Instagram</a>
<a href="/shampoo-gold-black-reparador">Shampoo again</a>
</body></html>`

func TestDOMCrawlAdapter(t *testing.T) {
	bp := &Blueprint{
		AllowedDomains: []string{"www.amend.com.br"},
		Entrypoints:    []string{"https://www.amend.com.br/"},
		Extraction:     ExtractionConfig{WaitForSelector: ".product-grid"},
	}

	t.Run("harvests same-domain anchors stripped of query and fragment", func(t *testing.T) {
		fake := &fakeFetcher{pages: map[string]string{
			"https://www.amend.com.br/": crawlPageHTML,
		}}
		adapter := NewDOMCrawlAdapter(fake)
		assert.Equal(t, "dom_crawl", adapter.Name())

		found, err := adapter.Discover(context.Background(), bp)
		require.NoError(t, err)
		require.Len(t, found, 2)

		assert.Equal(t, "https://www.amend.com.br/shampoo-gold-black-reparador", found[0].URL)
		assert.Equal(t, "dom_crawl", found[0].SourceType)
		assert.True(t, found[0].HairRelevant)

		assert.Equal(t, "https://www.amend.com.br/kit-shampoo-condicionador", found[1].URL)
		assert.True(t, found[1].IsKit)

		assert.Equal(t, []string{".product-grid"}, fake.waitFors)
	})

	t.Run("continues past a failing entrypoint", func(t *testing.T) {
		fake := &fakeFetcher{pages: map[string]string{
			"https://www.amend.com.br/cabelos": crawlPageHTML,
		}}
		twoEntries := *bp
		twoEntries.Entrypoints = []string{
			"https://www.amend.com.br/broken",
			"https://www.amend.com.br/cabelos",
		}

		found, err := NewDOMCrawlAdapter(fake).Discover(context.Background(), &twoEntries)
		require.NoError(t, err)
		assert.Len(t, found, 2)
		assert.Len(t, fake.calls, 2)
	})

	t.Run("no fetcher means no crawl", func(t *testing.T) {
		found, err := NewDOMCrawlAdapter(nil).Discover(context.Background(), bp)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

const sfccGridHTML = `<div class="search-results">
<div class="grid-tile">
  <a href="/carrinho/add.html">Carrinho</a>
  <a href="/produto/shampoo-gold.html?cgid=shampoo">Shampoo Gold</a>
  <a href="/produto/shampoo-gold-alt.html">Alternate</a>
</div>
<div class="product-tile">
  <a href="/on/demandware.store/Sites-x/track.html">Track</a>
  <a href="https://cdn.example.com/produto/externo.html">Offsite</a>
</div>
<div class="grid-tile">
  <a href="/produto/condicionador-smooth.html">Condicionador</a>
</div>
</div>`

func TestSFCCAdapter(t *testing.T) {
	var gotQuery url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/busca/", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, sfccGridHTML)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	adapter := NewSFCCAdapter("haira-test/1.0")
	assert.Equal(t, "sfcc_ajax", adapter.Name())

	bp := &Blueprint{
		AllowedDomains: []string{"127.0.0.1"},
		Entrypoints:    []string{srv.URL},
		Discovery:      DiscoveryConfig{SFCCCategories: []string{"cabelos"}},
	}

	found, err := adapter.Discover(context.Background(), bp)
	require.NoError(t, err)

	require.NotNil(t, gotQuery)
	assert.Equal(t, "cabelos", gotQuery.Get("cgid"))
	assert.Equal(t, "ajax", gotQuery.Get("format"))
	assert.Equal(t, "500", gotQuery.Get("sz"))

	// One link per tile: the cart and tracking anchors are skipped, the
	// offsite CDN tile contributes nothing, and the second product link
	// in the first tile is never reached.
	require.Len(t, found, 2)
	assert.Equal(t, srv.URL+"/produto/shampoo-gold.html", found[0].URL)
	assert.Equal(t, srv.URL+"/produto/condicionador-smooth.html", found[1].URL)
	assert.Equal(t, "sfcc_ajax", found[0].SourceType)
	assert.True(t, found[0].HairRelevant)
	assert.True(t, found[1].HairRelevant)
}

func TestSFCCAdapterSkipsWithoutCategories(t *testing.T) {
	found, err := NewSFCCAdapter("").Discover(context.Background(), &Blueprint{})
	require.NoError(t, err)
	assert.Empty(t, found)
}

// stubAdapter returns a fixed result set without touching the network.
type stubAdapter struct {
	name    string
	results []models.DiscoveredURL
	err     error
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Discover(context.Context, *Blueprint) ([]models.DiscoveredURL, error) {
	return s.results, s.err
}

func TestDiscovererMerge(t *testing.T) {
	first := &stubAdapter{name: "sitemap", results: []models.DiscoveredURL{
		{URL: "https://a.com/1", SourceType: "sitemap"},
		{URL: "https://a.com/2", SourceType: "sitemap"},
	}}
	second := &stubAdapter{name: "dom_crawl", results: []models.DiscoveredURL{
		{URL: "https://a.com/2", SourceType: "dom_crawl"},
		{URL: "https://a.com/3", SourceType: "dom_crawl"},
	}}
	broken := &stubAdapter{name: "sfcc_ajax", err: errors.New("endpoint gone")}

	merged := NewDiscoverer(first, second, broken).Discover(context.Background(), &Blueprint{})

	require.Len(t, merged, 3)
	assert.Equal(t, "https://a.com/1", merged[0].URL)
	assert.Equal(t, "https://a.com/2", merged[1].URL)
	assert.Equal(t, "https://a.com/3", merged[2].URL)

	// First adapter to report a URL owns its source attribution.
	assert.Equal(t, "sitemap", merged[1].SourceType)
}
