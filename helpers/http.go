package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
)

// ErrRateLimited is wrapped by fetch errors caused by 429/430 responses
var ErrRateLimited = errors.New("rate limited")

// HTTP header pools
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}

	retryStatuses = []int{
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	}
)

// ClientOptions configures an HTTPClient
type ClientOptions struct {
	Timeout          time.Duration
	RetryCount       int
	RetryWait        time.Duration
	RetryMaxWait     time.Duration
	CloudflareBypass bool
	// ProxyURL routes every request through the proxy, e.g. socks5://1.2.3.4:1080
	ProxyURL string
}

// DefaultClientOptions retries five times with exponential backoff from one second
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:      15 * time.Second,
		RetryCount:   5,
		RetryWait:    1 * time.Second,
		RetryMaxWait: 16 * time.Second,
	}
}

// HTTPClient fetches pages with rotated browser headers
type HTTPClient struct {
	client *resty.Client

	mu  sync.Mutex
	rnd *mathrand.Rand
}

// NewHTTPClient creates a resty-backed client
func NewHTTPClient(opts ClientOptions) *HTTPClient {
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && slices.Contains(retryStatuses, r.StatusCode())
		})

	// the proxy must be set before the transport gets wrapped
	if opts.ProxyURL != "" {
		client.SetProxy(opts.ProxyURL)
	}
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	return &HTTPClient{
		client: client,
		rnd:    mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

// RandomHeaders returns a browser-like header set with a random User-Agent and Referer
func (c *HTTPClient) RandomHeaders() map[string]string {
	c.mu.Lock()
	ua := userAgents[c.rnd.Intn(len(userAgents))]
	ref := referers[c.rnd.Intn(len(referers))]
	c.mu.Unlock()

	return map[string]string{
		"User-Agent":                ua,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US, en;q=0.9",
		"Referer":                   ref,
		"DNT":                       "1",
		"Cache-Control":             "no-cache",
		"Pragma":                    "no-cache",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "cross-site",
		"Sec-Fetch-User":            "?1",
	}
}

// FetchWithRandomHeaders sends an HTTP GET request with randomized headers,
// converts the response body to UTF-8 (if needed), and returns it as an io.Reader.
func (c *HTTPClient) FetchWithRandomHeaders(ctx context.Context, url string) (io.Reader, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeaders(c.RandomHeaders()).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode()) {
		return nil, fmt.Errorf("%w; retry after %s", ErrRateLimited, resp.Header().Get("Retry-After"))
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s unexpected status code: %d", url, resp.StatusCode())
	}

	return decodeUTF8(resp.Body(), resp.Header().Get("Content-Type"))
}

// decodeUTF8 converts body to UTF-8 using the Content-Type header and body sniffing
func decodeUTF8(body []byte, contentType string) (io.Reader, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(body), nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}
	return &buf, nil
}
