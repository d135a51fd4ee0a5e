package scraper

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/listingworker/config"
	"sjsage522/listingworker/internal/models"
	scrapeerrors "sjsage522/listingworker/pkg/errors"
)

const ebayPage = `<html><head><title>electronics | eBay</title></head><body>
<ul>
	<li><div class="s-item__wrapper">
		<a class="s-item__link" href="https://www.ebay.com/itm/111?hash=abc"></a>
		<div class="s-item__title"><span>New Listing</span>Apple iPhone 12 64GB</div>
		<span class="s-item__price">$199.99</span>
		<span class="SECONDARY_INFO">Pre-Owned</span>
		<span class="s-item__seller-info-text">gadgetstore (1234) 99.1%</span>
		<span class="s-item__location s-item__itemLocation">from United States</span>
	</div></li>
	<li><div class="s-item__wrapper">
		<a class="s-item__link" href="https://www.ebay.com/itm/222"></a>
		<div class="s-item__title">Sony Headphones</div>
		<span class="s-item__price">$49.00</span>
		<span class="SECONDARY_INFO">Brand New</span>
		<span class="s-item__seller-info-text">sonyfan (87) 100%</span>
		<span class="s-item__location s-item__itemLocation">from Japan</span>
	</div></li>
	<li><div class="s-item__wrapper">
		<a class="s-item__link" href="https://www.ebay.com/itm/333"></a>
		<div class="s-item__title">Cable without condition</div>
		<span class="s-item__price">$5.00</span>
		<span class="s-item__seller-info-text">cables (10) 98%</span>
		<span class="s-item__location s-item__itemLocation">from China</span>
	</div></li>
	<li><div class="s-item__wrapper">
		<span class="s-item__price">$1.00</span>
	</div></li>
</ul>
<a class="pagination__next" href="/sch/i.html?_nkw=electronics&amp;_pgn=2">Next</a>
</body></html>`

func testConfig() *config.Config {
	return &config.Config{
		OutputDir:    "data",
		DelayMin:     5 * time.Second,
		DelayMax:     10 * time.Second,
		EbayURL:      "https://www.ebay.com/sch/i.html?_nkw=electronics&_sacat=0&_pgn=1",
		ZomatoURL:    "https://www.zomato.com/ncr/restaurants",
		TimesJobsURL: "https://www.timesjobs.com/candidate/job-search.html?searchType=personalizedSearch&from=submit&txtKeywords=python&txtLocation=",
	}
}

func TestEbayExtract(t *testing.T) {
	site := NewEbaySite(testConfig())
	e, err := NewExtractor(site)
	require.NoError(t, err)

	doc := parse(t, ebayPage)
	records, err := e.ExtractPage(doc)
	require.NoError(t, err)

	// the third item has no condition and is dropped by the completeness rule
	want := []models.Record{
		{
			"PRODUCT NAME":    "Apple iPhone 12 64GB",
			"PRICE":           "$199.99",
			"CONDITION":       "Pre-Owned",
			"SELLER":          "gadgetstore",
			"SELLER RATING":   "99.1%",
			"RATING COUNT":    "1234",
			"SELLER LOCATION": "from United States",
			"URL":             "https://www.ebay.com/itm/111",
		},
		{
			"PRODUCT NAME":    "Sony Headphones",
			"PRICE":           "$49.00",
			"CONDITION":       "Brand New",
			"SELLER":          "sonyfan",
			"SELLER RATING":   "100%",
			"RATING COUNT":    "87",
			"SELLER LOCATION": "from Japan",
			"URL":             "https://www.ebay.com/itm/222",
		},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("eBay records mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "https://www.ebay.com/sch/i.html?_nkw=electronics&_pgn=2", e.NextPage(doc))
}

func TestEbayRejectsForeignPage(t *testing.T) {
	e, err := NewExtractor(NewEbaySite(testConfig()))
	require.NoError(t, err)

	records, err := e.ExtractPage(parse(t, `<html><head><title>Security Measure</title></head><body>
		<div class="s-item__wrapper"><div class="s-item__title">X</div></div></body></html>`))
	require.Error(t, err)
	assert.True(t, scrapeerrors.IsType(err, scrapeerrors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "Security Measure")
	assert.Empty(t, records)
}

func TestEbaySellerInfo(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		seller string
		count  string
		rating string
	}{
		{"full", `<span class="s-item__seller-info-text">shop (12) 97.5%</span>`, "shop", "12", "97.5%"},
		{"inner spaces kept", `<span class="s-item__seller-info-text"> big  shop (5) 90% </span>`, "big  shop", "5", "90%"},
		{"unparsed", `<span class="s-item__seller-info-text">just a name</span>`, "just a name", "N/A", "N/A"},
		{"missing", `<span></span>`, "N/A", "N/A", "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := models.Record{}
			deriveEbaySeller(parse(t, tt.html).Selection, r)
			assert.Equal(t, tt.seller, r["SELLER"])
			assert.Equal(t, tt.count, r["RATING COUNT"])
			assert.Equal(t, tt.rating, r["SELLER RATING"])
		})
	}
}
