package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Output
	OutputDir    string
	ErrorLogFile string

	// Request pacing
	DelayMin time.Duration
	DelayMax time.Duration

	// HTTP fetching
	HTTPTimeout      time.Duration
	HTTPRetryCount   int
	CloudflareBypass bool
	UseProxy         bool

	// Browser
	Headless       bool
	BrowserBin     string
	BrowserTimeout time.Duration

	// Redis configuration, empty address disables publishing
	RedisAddr   string
	RedisDB     int
	RedisStream string

	// RedisStreamMaxLength caps every stream, 0 disables trimming
	RedisStreamMaxLength int

	// Memcache configuration, empty address disables rate-limit blocking
	MemcacheAddr string

	// Site URLs
	EbayURL      string
	ZomatoURL    string
	TimesJobsURL string

	// Extra YAML site definitions
	SitesFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		OutputDir:            getEnv("OUTPUT_DIR", "data"),
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", "scrape_errors.log"),
		DelayMin:             getSeconds("DELAY_MIN_SECONDS", 5),
		DelayMax:             getSeconds("DELAY_MAX_SECONDS", 10),
		HTTPTimeout:          getSeconds("HTTP_TIMEOUT_SECONDS", 15),
		HTTPRetryCount:       getInt("HTTP_RETRY_COUNT", 5),
		CloudflareBypass:     getBool("CLOUDFLARE_BYPASS", false),
		UseProxy:             getBool("USE_PROXY", false),
		Headless:             getBool("BROWSER_HEADLESS", true),
		BrowserBin:           getEnv("BROWSER_BIN", ""),
		BrowserTimeout:       getSeconds("BROWSER_TIMEOUT_SECONDS", 20),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "listings"),
		RedisStreamMaxLength: getInt("REDIS_STREAM_MAX_LENGTH", 10000),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		EbayURL:              getEnv("EBAY_URL", "https://www.ebay.com/sch/i.html?_nkw=electronics&_sacat=0&_pgn=1"),
		ZomatoURL:            getEnv("ZOMATO_URL", "https://www.zomato.com/ncr/restaurants"),
		TimesJobsURL:         getEnv("TIMESJOBS_URL", "https://www.timesjobs.com/candidate/job-search.html?searchType=personalizedSearch&from=submit&searchTextSrc=&searchTextText=&txtKeywords=python&txtLocation="),
		SitesFile:            getEnv("SITES_FILE", ""),
		Environment:          getEnv("LISTING_ENVIRONMENT", "development"),
	}
}

// Validate checks the values LoadConfig could not reject while parsing
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	if c.DelayMin < 0 || c.DelayMax < 0 {
		return fmt.Errorf("request delays must not be negative")
	}
	if c.DelayMax < c.DelayMin {
		return fmt.Errorf("DELAY_MAX_SECONDS (%v) is smaller than DELAY_MIN_SECONDS (%v)", c.DelayMax, c.DelayMin)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.HTTPRetryCount < 0 {
		return fmt.Errorf("HTTP_RETRY_COUNT must not be negative")
	}
	if c.RedisStreamMaxLength < 0 {
		return fmt.Errorf("REDIS_STREAM_MAX_LENGTH must not be negative")
	}
	if c.BrowserTimeout <= 0 {
		return fmt.Errorf("BROWSER_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// IsProduction reports whether the worker runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getInt(key, defaultValue)) * time.Second
}
