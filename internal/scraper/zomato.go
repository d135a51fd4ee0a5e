package scraper

import (
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/listingworker/config"
	"sjsage522/listingworker/internal/models"
)

const zomatoReady = "div.sc-1mo3ldo-0.sc-jGkVzM.BXbKf"

// now stamps Zomato card records
var now = time.Now

// ZomatoSchema is the column layout of the restaurant card CSV
var ZomatoSchema = models.Schema{
	Columns:    []string{"name", "location", "rating", "cuisine", "price", "timestamp"},
	KeyColumns: []string{"name", "location"},
}

// ZomatoDetailSchema is the column layout of the restaurant detail CSV
var ZomatoDetailSchema = models.Schema{
	Columns: []string{
		"name", "location", "dining rating", "dining reviews",
		"cuisine", "price", "address", "phone", "url",
	},
	KeyColumns: []string{"url"},
}

// NewZomatoSite scrolls the Zomato restaurant list and reads every card
func NewZomatoSite(cfg *config.Config) *SiteConfig {
	return &SiteConfig{
		Name:        "zomato",
		Description: "Zomato restaurant cards (infinite scroll)",
		StartURL:    cfg.ZomatoURL,
		BaseURL:     "https://www.zomato.com",
		Mode:        ModeScroll,
		Schema:      ZomatoSchema,
		Selectors: Selectors{
			Listing: "div.sc-evWYkj.cRThYq",
			Ready:   zomatoReady,
		},
		Fields: []FieldSpec{
			{Column: "name", Selector: "h4.sc-1hp8d8a-0.sc-Ehqfj.bxOQva", Required: true},
			{Column: "location", Selector: "p.sc-1hez2tp-0.sc-cyQzhP.uIMEk", Required: true},
			{Column: "rating", Selector: "div.sc-1q7bklc-1.cILgox", Required: true},
			{Column: "cuisine", Selector: "p.sc-1hez2tp-0.sc-gggouf.fSxdnq", Required: true},
			{Column: "price", Selector: "p.sc-1hez2tp-0.sc-gggouf.KXcjT", Required: true},
		},
		Derive: func(_ *goquery.Selection, r models.Record) {
			r["timestamp"] = now().Format("2006-01-02 15:04:05")
		},
		Target:            2000,
		MaxScrollAttempts: 50,
		ScrollPause:       10 * time.Second,
		EmptyRetryDelay:   time.Second,
	}
}

// NewZomatoDetailSite collects restaurant links by scrolling and visits each restaurant page
func NewZomatoDetailSite(cfg *config.Config) *SiteConfig {
	return &SiteConfig{
		Name:        "zomato-details",
		Description: "Zomato restaurant pages (address, phone, reviews)",
		StartURL:    cfg.ZomatoURL,
		BaseURL:     "https://www.zomato.com",
		Mode:        ModeDetails,
		Schema:      ZomatoDetailSchema,
		Selectors: Selectors{
			Listing: zomatoReady,
			Ready:   zomatoReady,
		},
		Detail: &DetailConfig{
			LinkSelector: "a.sc-hPeUyl.cKQNlu",
			Ready:        "h1.sc-7kepeu-0",
			URLColumn:    "url",
			Throttle:     2 * time.Second,
			Fields: []FieldSpec{
				{Column: "name", Selector: "h1.sc-7kepeu-0.sc-iSDuPN.fwzNdh", Required: true},
				{Column: "location", Selector: "a.sc-clNaTc.vNCcy", Required: true},
				{Column: "dining rating", Selector: "div.sc-1q7bklc-1.cILgox", Required: true},
				{Column: "dining reviews", Selector: "div.sc-1q7bklc-8.kEgyiI", Required: true},
				{Column: "cuisine", Selector: "div.sc-gVyKpa.fXdtVd", Required: true},
				{Column: "price", Selector: "div.sc-bEjcJn.ePRRqr", Required: true},
				{Column: "address", Selector: "p.sc-bFADNz.gNdKCg", Required: true},
				{Column: "phone", Selector: "a.sc-bFADNz.leEVAg", Required: true},
			},
		},
		Target:            1000,
		MaxScrollAttempts: 2,
		ScrollPause:       2 * time.Second,
		EmptyRetryDelay:   time.Second,
	}
}
