package cmd

import (
	"context"

	"sjsage522/listingworker/config"
	"sjsage522/listingworker/helpers"
	"sjsage522/listingworker/internal/scraper"
	"sjsage522/listingworker/logger"
	"sjsage522/listingworker/services/cache"
	"sjsage522/listingworker/services/proxy"
	"sjsage522/listingworker/services/publisher"
	"sjsage522/listingworker/services/store"
)

// Services holds all the initialized services of a run
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Browser   *scraper.Browser
	Client    *helpers.HTTPClient
	ErrorLog  *helpers.Logger
}

// Cleanup releases every service
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			logger.ForPublisher().Warn().Err(err).Msg("Failed to close publisher")
		}
	}
	if s.Browser != nil {
		if err := s.Browser.Close(); err != nil {
			logger.ForBrowser().Warn().Err(err).Msg("Failed to close browser")
		}
	}
}

// Dependencies wires the services for site
func (s *Services) Dependencies(site *scraper.SiteConfig) scraper.Dependencies {
	deps := scraper.Dependencies{
		Store:  store.NewCSVStore(site.Output, site.Schema),
		Logger: s.ErrorLog,
	}
	if s.Publisher != nil {
		deps.Publisher = s.Publisher
	}
	if s.Browser != nil {
		deps.Browser = s.Browser
	}

	switch {
	case site.Mode == scraper.ModePaginate && site.Render && s.Browser != nil:
		deps.Fetcher = &scraper.BrowserFetcher{Opener: s.Browser, Ready: site.Selectors.Ready}
	case site.Mode == scraper.ModePaginate:
		deps.Fetcher = scraper.NewHTTPFetcher(site, s.Client, s.Cache)
	}
	return deps
}

func needsBrowser(site *scraper.SiteConfig) bool {
	return site.Mode != scraper.ModePaginate || site.Render
}

// initializeServices connects the optional backends and starts the browser when site needs one
func initializeServices(ctx context.Context, cfg *config.Config, site *scraper.SiteConfig) (*Services, error) {
	services := &Services{ErrorLog: helpers.NewLogger(cfg.ErrorLogFile)}

	if cfg.MemcacheAddr != "" {
		memcache := cache.NewMemcacheService(cfg.MemcacheAddr, "listingworker")
		if err := memcache.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, rate-limit blocking disabled")
		} else {
			services.Cache = memcache
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, publishing disabled")
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, redisPublisher.Stream(site.Name))
		}
	}

	var proxyURL string
	if cfg.UseProxy {
		pm := proxy.NewManager()
		if err := pm.Update(ctx); err != nil {
			logger.Warn("Failed to update proxies: %v", err)
		} else if fastest, err := pm.Fastest(); err != nil {
			logger.Warn("No proxy selected: %v", err)
		} else {
			proxyURL = fastest.URL()
			logger.Info("Using proxy %s (%s, %v)", proxyURL, fastest.Country, fastest.Latency)
		}
	}

	opts := helpers.DefaultClientOptions()
	opts.Timeout = cfg.HTTPTimeout
	opts.RetryCount = cfg.HTTPRetryCount
	opts.CloudflareBypass = cfg.CloudflareBypass
	opts.ProxyURL = proxyURL
	services.Client = helpers.NewHTTPClient(opts)

	if needsBrowser(site) {
		browser, err := scraper.NewBrowser(scraper.BrowserOptions{
			Headless: cfg.Headless,
			Bin:      cfg.BrowserBin,
			Timeout:  cfg.BrowserTimeout,
			ProxyURL: proxyURL,
		})
		if err != nil {
			services.Cleanup()
			return nil, err
		}
		services.Browser = browser
	}

	return services, nil
}
