package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairdata/haira/internal/models"
)

const samplePage = `<html>
<head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Product","name":"Shampoo Gold Black Reparador","image":["https://cdn.amend.com.br/gold-black.jpg"],"description":"Shampoo reparador para cabelos danificados.","offers":{"@type":"Offer","price":"29.90","priceCurrency":"BRL"}}
</script>
</head>
<body>
<h1 class="product-name">Shampoo Gold Black Reparador</h1>
<img class="product-image" src="https://cdn.amend.com.br/gold-black-large.jpg"/>
<div class="product-ingredients"><p>Aqua, Sodium Laureth Sulfate, Cocamidopropyl Betaine, Glycerin, Parfum, Citric Acid, Sodium Chloride</p></div>
</body>
</html>`

func mustDoc(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestExtractJSONLD(t *testing.T) {
	t.Run("product node with string price", func(t *testing.T) {
		p := extractJSONLD(mustDoc(t, samplePage))
		require.NotNil(t, p)
		assert.Equal(t, "Shampoo Gold Black Reparador", p.Name)
		assert.Equal(t, "https://cdn.amend.com.br/gold-black.jpg", p.Image)
		require.NotNil(t, p.Price)
		assert.InDelta(t, 29.90, *p.Price, 0.001)
		assert.Equal(t, "BRL", p.Currency)
	})

	t.Run("no jsonld returns nil", func(t *testing.T) {
		p := extractJSONLD(mustDoc(t, "<html><body>No structured data</body></html>"))
		assert.Nil(t, p)
	})

	t.Run("product inside graph", func(t *testing.T) {
		page := `<script type="application/ld+json">
		{"@context":"https://schema.org","@graph":[{"@type":"WebSite","name":"Loja"},{"@type":"Product","name":"Máscara Capilar","offers":{"price":45.5}}]}
		</script>`
		p := extractJSONLD(mustDoc(t, page))
		require.NotNil(t, p)
		assert.Equal(t, "Máscara Capilar", p.Name)
		require.NotNil(t, p.Price)
		assert.InDelta(t, 45.5, *p.Price, 0.001)
	})

	t.Run("currency defaults to BRL when price present", func(t *testing.T) {
		page := `<script type="application/ld+json">
		{"@type":"Product","name":"Condicionador","offers":{"price":"15.50"}}
		</script>`
		p := extractJSONLD(mustDoc(t, page))
		require.NotNil(t, p)
		assert.Equal(t, "BRL", p.Currency)
	})

	t.Run("description markup is stripped", func(t *testing.T) {
		page := `<script type="application/ld+json">
		{"@type":"Product","name":"Leave-in","description":"<p>Creme para pentear &amp; proteger</p>"}
		</script>`
		p := extractJSONLD(mustDoc(t, page))
		require.NotNil(t, p)
		assert.Equal(t, "Creme para pentear & proteger", p.Description)
	})

	t.Run("type list and image object", func(t *testing.T) {
		page := `<script type="application/ld+json">
		{"@type":["Product","Thing"],"name":"Óleo Capilar","image":{"@type":"ImageObject","url":"https://cdn.example.com/oleo.jpg"}}
		</script>`
		p := extractJSONLD(mustDoc(t, page))
		require.NotNil(t, p)
		assert.Equal(t, "Óleo Capilar", p.Name)
		assert.Equal(t, "https://cdn.example.com/oleo.jpg", p.Image)
	})

	t.Run("malformed block is skipped", func(t *testing.T) {
		page := `<script type="application/ld+json">{not json}</script>
		<script type="application/ld+json">{"@type":"Product","name":"Spray Fixador"}</script>`
		p := extractJSONLD(mustDoc(t, page))
		require.NotNil(t, p)
		assert.Equal(t, "Spray Fixador", p.Name)
	})
}

func TestExtractFullPage(t *testing.T) {
	res, err := Extract(samplePage, "https://www.amend.com.br/shampoo-gold-black", Options{
		InciSelectors: []string{".product-ingredients p"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Shampoo Gold Black Reparador", res.ProductName)
	assert.Contains(t, res.InciRaw, "Aqua")
	assert.Equal(t, ".product-ingredients p", res.InciLocator)
	assert.Equal(t, "https://cdn.amend.com.br/gold-black.jpg", res.ImageURLMain)
	assert.Equal(t, models.MethodJSONLD, res.Method)
	require.NotNil(t, res.Price)
	assert.InDelta(t, 29.90, *res.Price, 0.001)
	assert.NotEmpty(t, res.Evidence)

	var fields []string
	for _, ev := range res.Evidence {
		fields = append(fields, ev.FieldName)
		assert.Equal(t, "https://www.amend.com.br/shampoo-gold-black", ev.SourceURL)
	}
	assert.Contains(t, fields, "product_name")
	assert.Contains(t, fields, "inci_ingredients")
	assert.Contains(t, fields, "image_url_main")
}

func TestExtractSelectorFallbacks(t *testing.T) {
	t.Run("selector name when no jsonld", func(t *testing.T) {
		page := `<html><body><h1 class="product-name">Leave-in Hidratante</h1></body></html>`
		res, err := Extract(page, "https://example.com/p/leave-in", Options{})
		require.NoError(t, err)
		assert.Equal(t, "Leave-in Hidratante", res.ProductName)
		require.Len(t, res.Evidence, 1)
		assert.Equal(t, "h1.product-name", res.Evidence[0].EvidenceLocator)
		assert.Equal(t, models.MethodHTMLSelector, res.Evidence[0].Method)
	})

	t.Run("jsonld name is not overwritten by selector", func(t *testing.T) {
		page := `<script type="application/ld+json">{"@type":"Product","name":"Nome Estruturado"}</script>
		<h1>Nome do H1</h1>`
		res, err := Extract(page, "https://example.com/p/x", Options{})
		require.NoError(t, err)
		assert.Equal(t, "Nome Estruturado", res.ProductName)
	})

	t.Run("image data-src attribute", func(t *testing.T) {
		page := `<html><body><h1>Produto</h1><img class="product-image" data-src="https://cdn.example.com/lazy.jpg"/></body></html>`
		res, err := Extract(page, "https://example.com/p/x", Options{})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/lazy.jpg", res.ImageURLMain)
	})

	t.Run("blueprint selector beats heuristic", func(t *testing.T) {
		page := `<div id="ingredientes">Aqua, Glycerin, Parfum, Citric Acid, Sodium Chloride, Limonene</div>
		<button>Composição</button>
		<div>Aqua, Cetearyl Alcohol, Dimethicone, Parfum, Phenoxyethanol, Tocopherol</div>`
		res, err := Extract(page, "https://example.com/p/x", Options{})
		require.NoError(t, err)
		assert.Equal(t, "#ingredientes", res.InciLocator)
	})

	t.Run("og image fallback", func(t *testing.T) {
		page := `<html>
		<head>
		<meta property="og:image" content="https://cdn.example.com/product.jpg" />
		<script type="application/ld+json">{"@context": "https://schema.org", "@type": "Product", "name": "Test Product"}</script>
		</head>
		<body><h1>Test Product</h1></body>
		</html>`
		res, err := Extract(page, "https://example.com/p/test", Options{})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/product.jpg", res.ImageURLMain)
	})
}

func TestInciTabLabels(t *testing.T) {
	t.Run("heading with sibling paragraph", func(t *testing.T) {
		page := `
		<div class="product-detail">
		  <div class="key-ingredients">
		    <h3>Key Ingredients</h3>
		    <p>ÁCIDO LÁTICO: Ingrediente ativo que ajuda a fortalecer os cabelos.</p>
		    <p>CENTELHA ASIÁTICA: Ingrediente natural para hidratação.</p>
		  </div>
		  <div class="full-ingredients">
		    <h3>Lista Completa De Ingredientes</h3>
		    <p>AQUA / WATER / EAU • SODIUM C14-16 OLEFIN SULFONATE • COCAMIDOPROPYL BETAINE • SODIUM CHLORIDE • GLYCERIN • PARFUM</p>
		  </div>
		</div>`
		content, _, ok := extractInciByLabels(mustDoc(t, page))
		require.True(t, ok)
		assert.Contains(t, content, "AQUA / WATER / EAU")
		assert.Contains(t, content, "SODIUM C14-16")
		assert.NotContains(t, content, "ÁCIDO LÁTICO")
		assert.NotContains(t, content, "fortalecer")
	})

	t.Run("wrapper div with heading and nested paragraph", func(t *testing.T) {
		page := `
		<div class="pdp-section">
		  <div class="ingredients-section">
		    <span>Ingredientes</span>
		    <div class="marketing"><p>ÁCIDO LÁTICO: Ingrediente ativo, ajuda a fortalecer os cabelos.</p></div>
		  </div>
		  <div class="full-inci-section">
		    <h3>Lista completa de ingredientes</h3>
		    <div class="inci-content"><p>AQUA / WATER / EAU • SODIUM LAURETH SULFATE • COCAMIDOPROPYL BETAINE • GLYCOL DISTEARATE</p></div>
		  </div>
		</div>`
		content, _, ok := extractInciByLabels(mustDoc(t, page))
		require.True(t, ok)
		assert.Contains(t, content, "AQUA / WATER / EAU")
		assert.NotContains(t, content, "ÁCIDO LÁTICO")
	})

	t.Run("specific label beats generic match earlier in document", func(t *testing.T) {
		page := `
		<div>
		  <button>Ingredientes</button>
		  <div>ÁCIDO LÁTICO: fortalecer, CENTELHA ASIÁTICA: hidratar, VITAMINA E: proteger</div>
		  <button>Lista completa de ingredientes</button>
		  <div>AQUA, SODIUM LAURETH SULFATE, COCAMIDOPROPYL BETAINE, GLYCERIN, PARFUM, CITRIC ACID</div>
		</div>`
		content, _, ok := extractInciByLabels(mustDoc(t, page))
		require.True(t, ok)
		assert.Contains(t, content, "AQUA")
		assert.Contains(t, content, "SODIUM LAURETH SULFATE")
		assert.NotContains(t, content, "ÁCIDO LÁTICO")
	})

	t.Run("heading with paragraph nested deeper", func(t *testing.T) {
		page := `
		<section>
		  <h3>Composição</h3>
		  <div class="inner"><p>Aqua, Cetearyl Alcohol, Glycerin, Behentrimonium Chloride, Parfum, Citric Acid</p></div>
		</section>`
		content, _, ok := extractInciByLabels(mustDoc(t, page))
		require.True(t, ok)
		assert.Contains(t, content, "Aqua")
		assert.Contains(t, content, "Cetearyl Alcohol")
	})

	t.Run("collapse content next to labelled button", func(t *testing.T) {
		page := `
		<div>
		  <p>Limpeza suave para uso diário.</p>
		  <button class="collapse__button">Composição</button>
		  <div class="collapse__content">Aqua, Sodium Laureth Sulfate, Cocamidopropyl Betaine, Glycerin, Parfum</div>
		</div>`
		content, locator, ok := extractInciByLabels(mustDoc(t, page))
		require.True(t, ok)
		assert.Contains(t, content, "Aqua")
		assert.Equal(t, "tab-label:composição", locator)
	})

	t.Run("tab content with label inside preceding sibling", func(t *testing.T) {
		page := `
		<div>
		  <div class="tab-header">Veja a composição do produto</div>
		  <div class="tab-content">Aqua, Cocamidopropyl Betaine, Glycerin, Citric Acid, Parfum, Limonene</div>
		</div>`
		content, locator, ok := extractInciByLabels(mustDoc(t, page))
		require.True(t, ok)
		assert.Contains(t, content, "Cocamidopropyl Betaine")
		assert.Equal(t, ".tab-content", locator)
	})

	t.Run("filter button noise is stripped", func(t *testing.T) {
		page := `
		<button>Ingredientes</button>
		<div>Todos Aqua, Cocamidopropyl Betaine, Glycerin, Citric Acid, Parfum, Limonene</div>`
		content, _, ok := extractInciByLabels(mustDoc(t, page))
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(content, "Aqua"), "got %q", content)
	})

	t.Run("short content does not qualify", func(t *testing.T) {
		page := `<h3>Ingredientes</h3><p>Aqua e Glycerin</p>`
		_, _, ok := extractInciByLabels(mustDoc(t, page))
		assert.False(t, ok)
	})

	t.Run("content without separators does not qualify", func(t *testing.T) {
		page := `<h3>Composição</h3><p>Formulado com ativos naturais selecionados para cabelos cacheados</p>`
		_, _, ok := extractInciByLabels(mustDoc(t, page))
		assert.False(t, ok)
	})
}

func TestInciEvidenceTruncation(t *testing.T) {
	long := strings.Repeat("Aqua, ", 200)
	page := `<div class="product-ingredients"><p>` + long + `</p></div>`
	res, err := Extract(page, "https://example.com/p/x", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, res.InciRaw)

	var inciEv *models.Evidence
	for i := range res.Evidence {
		if res.Evidence[i].FieldName == "inci_ingredients" {
			inciEv = &res.Evidence[i]
		}
	}
	require.NotNil(t, inciEv)
	assert.LessOrEqual(t, len(inciEv.RawSourceText), 500)
	assert.Greater(t, len(res.InciRaw), 500)
}

func TestSanitize(t *testing.T) {
	t.Run("decodes entities", func(t *testing.T) {
		assert.Equal(t, "Shampoo & Condicionador", Sanitize("Shampoo &amp; Condicionador"))
		assert.Equal(t, "Composição", Sanitize("Composi&ccedil;&atilde;o"))
	})

	t.Run("strips tags", func(t *testing.T) {
		assert.Equal(t, "Hello world", Sanitize("<p>Hello <b>world</b></p>"))
		assert.Equal(t, "text", Sanitize(`<img src="x" alt="y"> text`))
	})

	t.Run("collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "Hello world new line", Sanitize("Hello   world\n\nnew line"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", Sanitize(""))
		assert.Equal(t, "", Sanitize("   \n "))
	})

	t.Run("drops script and style contents", func(t *testing.T) {
		assert.Equal(t, "Visible", Sanitize("<script>var x = 1;</script><style>p{}</style>Visible"))
	})
}

func TestTruncateBytes(t *testing.T) {
	assert.Equal(t, "h", TruncateBytes("héllo", 2))
	assert.Equal(t, "hé", TruncateBytes("héllo", 3))
	assert.Equal(t, "héllo", TruncateBytes("héllo", 100))

	ev := NewEvidence("description", "https://example.com", "p", strings.Repeat("a", 3000), models.MethodJSONLD)
	assert.Len(t, ev.RawSourceText, 2000)
}
