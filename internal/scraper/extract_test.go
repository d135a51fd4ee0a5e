package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/listingworker/internal/models"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func testSite() *SiteConfig {
	return &SiteConfig{
		Name:    "test",
		BaseURL: "https://example.com/shop/",
		Mode:    ModePaginate,
		Schema: models.Schema{
			Columns:    []string{"title", "price", "link", "badge"},
			KeyColumns: []string{"title", "price"},
		},
		Selectors: Selectors{
			Listing:     "div.item",
			NextPage:    "a.next",
			ClassFilter: "sponsored",
		},
		Fields: []FieldSpec{
			{Column: "title", Selector: "h2", Required: true, Remove: []string{"span.tag"}},
			{Column: "price", Selector: "p.price", Regex: `\$([\d.,]+)`, Required: true},
			{Column: "link", Selector: "a", Attr: "href", ResolveURL: true},
			{Column: "badge", Selector: "em.badge", Default: "none"},
		},
	}
}

const listingPage = `<html><head><title>Shop</title></head><body>
	<div class="item">
		<h2><span class="tag">NEW</span> Phone  X </h2>
		<p class="price">Now $199.99 only</p>
		<a href="p/1?ref=list">view</a>
		<em class="badge">hot</em>
	</div>
	<div class="item sponsored">
		<h2>Ad</h2><p class="price">$1</p>
	</div>
	<div class="item">
		<h2>Case</h2>
		<p class="price">$9</p>
	</div>
	<div class="item">
		<h2>No price</h2>
	</div>
	<a class="next" href="?page=2">Next</a>
</body></html>`

func TestExtractPage(t *testing.T) {
	e, err := NewExtractor(testSite())
	require.NoError(t, err)

	records, err := e.ExtractPage(parse(t, listingPage))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, models.Record{
		"title": "Phone  X",
		"price": "199.99",
		"link":  "https://example.com/shop/p/1?ref=list",
		"badge": "hot",
	}, records[0])

	// optional fields fall back to their default, then the placeholder
	assert.Equal(t, "none", records[1]["badge"])
	assert.Equal(t, DefaultPlaceholder, records[1]["link"])
}

func TestExtractPlaceholder(t *testing.T) {
	site := testSite()
	site.Placeholder = "-"
	e, err := NewExtractor(site)
	require.NoError(t, err)

	records, err := e.ExtractPage(parse(t, listingPage))
	require.NoError(t, err)
	assert.Equal(t, "-", records[1]["link"])
}

func TestNextPage(t *testing.T) {
	e, err := NewExtractor(testSite())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/shop/?page=2", e.NextPage(parse(t, listingPage)))
	assert.Equal(t, "", e.NextPage(parse(t, `<html><body></body></html>`)))
}

func TestHandlersTakePriority(t *testing.T) {
	site := testSite()
	site.Fields[1].Handlers = []ElementHandler{
		func(s *goquery.Selection) string { return "" },
		func(s *goquery.Selection) string {
			v, _ := s.Attr("data-price")
			return v
		},
	}
	site.Fields[1].Regex = ""
	e, err := NewExtractor(site)
	require.NoError(t, err)

	doc := parse(t, `<div class="item" data-price="5.00"><h2>A</h2><p class="price">$7</p></div>
		<div class="item"><h2>B</h2><p class="price">$8</p></div>`)
	records, err := e.ExtractPage(doc)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "5.00", records[0]["price"])
	// the selector is used when every handler comes back empty
	assert.Equal(t, "$8", records[1]["price"])
}

func TestDeriveAndAccept(t *testing.T) {
	site := testSite()
	site.Derive = func(s *goquery.Selection, r models.Record) {
		r["badge"] = strings.ToUpper(r["badge"])
	}
	site.Accept = func(r models.Record) bool { return r["badge"] != "NONE" }
	e, err := NewExtractor(site)
	require.NoError(t, err)

	records, err := e.ExtractPage(parse(t, listingPage))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "HOT", records[0]["badge"])
}

func TestInvalidRegex(t *testing.T) {
	site := testSite()
	site.Fields[1].Regex = `(`
	_, err := NewExtractor(site)
	assert.Error(t, err)
}

func TestValidatePage(t *testing.T) {
	site := testSite()
	site.ValidatePage = func(doc *goquery.Document) error {
		if doc.Find("title").Text() != "Shop" {
			return assert.AnError
		}
		return nil
	}
	e, err := NewExtractor(site)
	require.NoError(t, err)

	records, err := e.ExtractPage(parse(t, `<html><head><title>Captcha</title></head><body><div class="item"><h2>A</h2><p class="price">$1</p></div></body></html>`))
	assert.Error(t, err)
	assert.Empty(t, records)
}

func TestExtractDetailAndLinks(t *testing.T) {
	site := testSite()
	site.Detail = &DetailConfig{
		LinkSelector: "a",
		URLColumn:    "link",
		Fields: []FieldSpec{
			{Column: "title", Selector: "h1", Required: true},
			{Column: "price", Selector: "span.price", Required: true},
		},
	}
	e, err := NewExtractor(site)
	require.NoError(t, err)

	links := e.ExtractLinks(parse(t, listingPage))
	assert.Equal(t, []string{"https://example.com/shop/p/1?ref=list"}, links)

	rec := e.ExtractDetail(parse(t, `<h1> Phone </h1><span class="price">$3</span>`), "https://example.com/p/1")
	assert.Equal(t, models.Record{"title": "Phone", "price": "$3", "link": "https://example.com/p/1"}, rec)

	assert.Nil(t, e.ExtractDetail(parse(t, `<h1>Phone</h1>`), "https://example.com/p/2"))
}
