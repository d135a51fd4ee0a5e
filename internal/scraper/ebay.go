package scraper

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/listingworker/config"
	"sjsage522/listingworker/helpers"
	"sjsage522/listingworker/internal/models"
	scrapeerrors "sjsage522/listingworker/pkg/errors"
)

var (
	newListingPrefix = regexp.MustCompile(`^New Listing\s*`)
	// "sellerName (ratingCount) rating%"
	sellerInfoPattern = regexp.MustCompile(`(.+?)\s*\((\d+)\)\s*(\S+)`)
)

// EbaySchema is the column layout of the eBay product CSV
var EbaySchema = models.Schema{
	Columns: []string{
		"PRODUCT NAME", "PRICE", "CONDITION", "SELLER",
		"SELLER RATING", "RATING COUNT", "SELLER LOCATION", "URL",
	},
	KeyColumns: []string{"PRODUCT NAME", "PRICE"},
}

// NewEbaySite scrapes eBay search results page by page
func NewEbaySite(cfg *config.Config) *SiteConfig {
	return &SiteConfig{
		Name:        "ebay",
		Description: "eBay search results (products, price, seller)",
		StartURL:    cfg.EbayURL,
		BaseURL:     "https://www.ebay.com",
		Mode:        ModePaginate,
		Schema:      EbaySchema,
		Selectors: Selectors{
			Listing:  ".s-item__wrapper",
			NextPage: "a.pagination__next",
		},
		Fields: []FieldSpec{
			{
				Column:    "PRODUCT NAME",
				Selector:  ".s-item__title",
				Required:  true,
				Transform: func(s string) string { return newListingPrefix.ReplaceAllString(s, "") },
			},
			{Column: "PRICE", Selector: ".s-item__price", Required: true},
			{Column: "CONDITION", Selector: ".SECONDARY_INFO"},
			{Column: "SELLER LOCATION", Selector: ".s-item__location.s-item__itemLocation"},
			{Column: "URL", Selector: ".s-item__link", Attr: "href", Transform: helpers.StripQuery},
		},
		ValidatePage: validateEbayPage,
		Derive:       deriveEbaySeller,
		Accept:       acceptComplete,
		Target:       5000,
		MaxPages:     100,
		DelayMin:     cfg.DelayMin,
		DelayMax:     cfg.DelayMax,
		CacheKey:     "ebay_rate_limited",
		BlockTime:    10 * time.Minute,
	}
}

// validateEbayPage rejects captcha and error pages, which lack "eBay" in the title
func validateEbayPage(doc *goquery.Document) error {
	title := doc.Find("title").First().Text()
	if !strings.Contains(title, "eBay") {
		return scrapeerrors.NewValidation("ebay", fmt.Sprintf("not an eBay listing page: title %q", strings.TrimSpace(title)))
	}
	return nil
}

// deriveEbaySeller splits the seller info text into name, rating count and rating
func deriveEbaySeller(s *goquery.Selection, r models.Record) {
	r["SELLER"] = DefaultPlaceholder
	r["RATING COUNT"] = DefaultPlaceholder
	r["SELLER RATING"] = DefaultPlaceholder

	info := s.Find(".s-item__seller-info-text").First()
	if info.Length() == 0 {
		return
	}
	text := strings.TrimSpace(info.Text())
	if text == "" {
		return
	}

	m := sellerInfoPattern.FindStringSubmatch(text)
	if m == nil {
		r["SELLER"] = text
		return
	}
	r["SELLER"] = strings.TrimSpace(m[1])
	r["RATING COUNT"] = strings.TrimSpace(m[2])
	r["SELLER RATING"] = strings.TrimSpace(m[3])
}

// acceptComplete keeps only records with every column filled
func acceptComplete(r models.Record) bool {
	for _, v := range r {
		if v == "" || v == DefaultPlaceholder {
			return false
		}
	}
	return true
}
