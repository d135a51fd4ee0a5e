package scraper

import (
	"context"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/listingworker/helpers"
	"sjsage522/listingworker/internal/models"
	"sjsage522/listingworker/services/publisher"
	"sjsage522/listingworker/services/store"
)

// Mode selects how a site is walked
type Mode string

const (
	// ModePaginate follows next-page links over HTTP
	ModePaginate Mode = "paginate"
	// ModeScroll scrolls a rendered page and extracts the growing card list
	ModeScroll Mode = "scroll"
	// ModeDetails scrolls a rendered page for links and visits every link
	ModeDetails Mode = "details"
)

// DefaultPlaceholder fills optional fields that were not found
const DefaultPlaceholder = "N/A"

// ElementHandler extracts a value from a listing card. An empty result
// hands over to the next handler.
type ElementHandler func(*goquery.Selection) string

// FieldSpec describes how one column is read from a card
type FieldSpec struct {
	Column string

	// Selector is relative to the card; empty means the card itself
	Selector string

	// Attr reads an attribute instead of the text
	Attr string

	// Regex keeps the first capture group, or the whole match without groups
	Regex string

	// Remove lists selectors stripped from the element before reading its text
	Remove []string

	// Handlers run before the selector; the first non-empty value wins
	Handlers []ElementHandler

	// Transform is applied to the extracted value
	Transform func(string) string

	// Required drops the whole card when the value is empty
	Required bool

	// Default replaces an empty optional value; empty means the site placeholder
	Default string

	// ResolveURL resolves the value against the site base URL
	ResolveURL bool
}

// Selectors contains CSS selectors for page level elements
type Selectors struct {
	Listing     string
	NextPage    string
	Ready       string
	ClassFilter string
}

// DetailConfig configures the second stage of ModeDetails
type DetailConfig struct {
	// LinkSelector finds the detail link inside a listing card
	LinkSelector string

	// Ready is awaited on every detail page
	Ready string

	// Fields are read from the whole detail page
	Fields []FieldSpec

	// URLColumn receives the detail page URL
	URLColumn string

	// Throttle is the minimum spacing between detail page visits
	Throttle time.Duration
}

// SiteConfig contains everything needed to scrape one site
type SiteConfig struct {
	Name        string
	Description string
	StartURL    string
	BaseURL     string
	Output      string

	Mode      Mode
	Schema    models.Schema
	Selectors Selectors
	Fields    []FieldSpec
	Detail    *DetailConfig

	// Render fetches paginated pages through the browser instead of HTTP
	Render bool

	// Placeholder fills optional fields; empty means DefaultPlaceholder
	Placeholder string

	// ValidatePage rejects pages that are not listing pages
	ValidatePage func(*goquery.Document) error

	// Derive fills columns computed from the card as a whole
	Derive func(*goquery.Selection, models.Record)

	// Accept drops records that fail a site rule
	Accept func(models.Record) bool

	Target             int
	MaxPages           int
	MaxScrollAttempts  int
	ScrollPause        time.Duration
	EmptyRetryDelay    time.Duration
	DelayMin, DelayMax time.Duration

	// CacheKey and BlockTime configure rate-limit blocking
	CacheKey  string
	BlockTime time.Duration
}

// PageFetcher fetches a page as UTF-8 HTML
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// RenderedPage is a page open in a browser
type RenderedPage interface {
	ScrollHeight() (int, error)
	ScrollToBottom() error
	HTML() (string, error)
	Close() error
}

// PageOpener opens rendered pages, waiting for the ready selector when set
type PageOpener interface {
	Open(ctx context.Context, url, ready string) (RenderedPage, error)
}

// Dependencies holds the services a Runner works with
type Dependencies struct {
	Fetcher   PageFetcher
	Browser   PageOpener
	Store     store.Store
	Publisher publisher.Publisher
	Logger    helpers.LoggerInterface
}

// Summary reports the outcome of a run
type Summary struct {
	Site          string
	RunID         string
	Output        string
	Pages         int
	Existing      int
	Collected     int
	Total         int
	TargetReached bool
	Elapsed       time.Duration
}
