package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/listingworker/helpers"
	"sjsage522/listingworker/logger"
	"sjsage522/listingworker/services/cache"
	scrapeerrors "sjsage522/listingworker/pkg/errors"
)

// HTTPFetcher fetches pages with the shared HTTP client. When a cache is set
// a rate-limited response blocks the site for BlockTime.
type HTTPFetcher struct {
	Site      string
	Client    *helpers.HTTPClient
	Cache     cache.CacheService
	CacheKey  string
	BlockTime time.Duration
}

// NewHTTPFetcher creates a fetcher for site
func NewHTTPFetcher(site *SiteConfig, client *helpers.HTTPClient, cacheSvc cache.CacheService) *HTTPFetcher {
	return &HTTPFetcher{
		Site:      site.Name,
		Client:    client,
		Cache:     cacheSvc,
		CacheKey:  site.CacheKey,
		BlockTime: site.BlockTime,
	}
}

// Fetch fetches url with rate-limit blocking
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	if f.blocking() {
		if _, err := f.Cache.Get(f.CacheKey); err == nil {
			return nil, scrapeerrors.NewRateLimit(f.Site, f.BlockTime)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			logger.ForCache().Warn().Err(scrapeerrors.NewCache(f.Site, "lookup block key", err)).Msg("Cache lookup failed")
		}
	}

	body, err := f.Client.FetchWithRandomHeaders(ctx, url)
	if err != nil {
		if errors.Is(err, helpers.ErrRateLimited) {
			if f.blocking() {
				value := []byte(fmt.Sprintf("%d", int(f.BlockTime/time.Second)))
				if cerr := f.Cache.Set(f.CacheKey, value, f.BlockTime); cerr != nil {
					logger.ForCache().Warn().Err(scrapeerrors.NewCache(f.Site, "set block key "+f.CacheKey, cerr)).Msg("Failed to set block key")
				}
			}
			return nil, scrapeerrors.New(scrapeerrors.ErrorTypeRateLimit, f.Site, "fetch "+url, err)
		}
		return nil, scrapeerrors.NewNetwork(f.Site, "fetch "+url, err)
	}
	return body, nil
}

func (f *HTTPFetcher) blocking() bool {
	return f.Cache != nil && f.CacheKey != "" && f.BlockTime > 0
}

// createDocument creates a goquery document from a reader
func createDocument(site string, reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, scrapeerrors.NewParsing(site, "parse HTML", err)
	}
	return doc, nil
}

// createDocumentFromString is createDocument for rendered page HTML
func createDocumentFromString(site, html string) (*goquery.Document, error) {
	return createDocument(site, strings.NewReader(html))
}
