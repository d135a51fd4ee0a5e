package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/listingworker/config"
	"sjsage522/listingworker/internal/models"
)

// TimesJobsSchema is the column layout of the job posting CSV
var TimesJobsSchema = models.Schema{
	Columns:    []string{"company", "skills", "posted_at", "keyword"},
	KeyColumns: []string{"company", "skills", "posted_at"},
}

// NewTimesJobsSite reads the TimesJobs search results, keeping recent postings only
func NewTimesJobsSite(cfg *config.Config) *SiteConfig {
	site := &SiteConfig{
		Name:        "timesjobs",
		Description: "TimesJobs postings from the last few days",
		StartURL:    cfg.TimesJobsURL,
		BaseURL:     "https://www.timesjobs.com",
		Mode:        ModePaginate,
		Schema:      TimesJobsSchema,
		Selectors: Selectors{
			Listing: "li.clearfix.job-bx.wht-shd-bx",
		},
		Fields: []FieldSpec{
			{Column: "posted_at", Selector: "span.sim-posted", Required: true},
			{Column: "company", Selector: "h3.joblist-comp-name", Required: true},
			{Column: "skills", Selector: "span.srp-skills", Default: "Not Specified"},
		},
		Accept: func(r models.Record) bool {
			return strings.Contains(r["posted_at"], "few")
		},
		MaxPages: 1,
		DelayMin: cfg.DelayMin,
		DelayMax: cfg.DelayMax,
	}
	// read at extraction time so a --start-url override changes the keyword too
	site.Derive = func(_ *goquery.Selection, r models.Record) {
		r["keyword"] = searchKeyword(site.StartURL)
	}
	return site
}

// searchKeyword returns the txtKeywords query parameter of a search URL
func searchKeyword(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("txtKeywords"))
}
