package proxy

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"sjsage522/listingworker/logger"
)

const (
	// DefaultListURL serves SOCKS5 proxies as "IP:PORT CC-A-S-+" lines
	DefaultListURL = "https://spys.me/socks.txt"
	// DefaultCheckURL is requested through every candidate proxy
	DefaultCheckURL = "http://httpbin.org/ip"
)

// ProxyInfo holds proxy information with latency
type ProxyInfo struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Type     string        `json:"type"`
	Country  string        `json:"country"`
	Latency  time.Duration `json:"latency"`
	LastTest time.Time     `json:"last_test"`
	Working  bool          `json:"working"`
}

// URL returns the proxy as a URL usable by HTTP clients and the browser
func (p ProxyInfo) URL() string {
	return fmt.Sprintf("%s://%s", p.Type, net.JoinHostPort(p.Host, strconv.Itoa(p.Port)))
}

// CheckFunc measures a proxy's round trip
type CheckFunc func(ctx context.Context, p ProxyInfo) (time.Duration, error)

// Manager picks the fastest SOCKS5 proxies from a public list
type Manager struct {
	ListURL   string
	CheckURL  string
	BatchSize int
	Keep      int

	client *resty.Client
	check  CheckFunc

	mutex      sync.RWMutex
	proxies    []ProxyInfo
	lastUpdate time.Time
}

// NewManager creates a manager reading the default list
func NewManager() *Manager {
	m := &Manager{
		ListURL:   DefaultListURL,
		CheckURL:  DefaultCheckURL,
		BatchSize: 50,
		Keep:      5,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("Accept", "text/plain,*/*").
			SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	}
	m.check = m.checkThroughProxy
	return m
}

// ParseList parses the spys.me text format, skipping headers and invalid lines
func ParseList(body string) []ProxyInfo {
	var proxies []ProxyInfo
	for _, line := range strings.Split(body, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		host, portStr, err := net.SplitHostPort(fields[0])
		if err != nil || net.ParseIP(host) == nil {
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			continue
		}

		country := "Unknown"
		if len(fields) >= 2 {
			// "US-H", "RU-H!-S"
			if cc := strings.Split(fields[1], "-")[0]; cc != "" {
				country = cc
			}
		}

		proxies = append(proxies, ProxyInfo{
			Host:    host,
			Port:    port,
			Type:    "socks5",
			Country: country,
		})
	}
	return proxies
}

func (m *Manager) fetchList(ctx context.Context) ([]ProxyInfo, error) {
	resp, err := m.client.R().SetContext(ctx).Get(m.ListURL)
	if err != nil {
		return nil, fmt.Errorf("fetch proxy list: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("proxy list returned status %d", resp.StatusCode())
	}
	return ParseList(resp.String()), nil
}

// checkThroughProxy requests CheckURL through p
func (m *Manager) checkThroughProxy(ctx context.Context, p ProxyInfo) (time.Duration, error) {
	client := resty.New().SetProxy(p.URL()).SetTimeout(5 * time.Second)

	start := time.Now()
	resp, err := client.R().SetContext(ctx).Get(m.CheckURL)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("check returned status %d", resp.StatusCode())
	}
	return time.Since(start), nil
}

// Update fetches the list and keeps the fastest working proxies.
// Candidates are tested in batches until twice Keep proxies work.
func (m *Manager) Update(ctx context.Context) error {
	log := logger.ForScraper("proxy")

	candidates, err := m.fetchList(ctx)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no proxies found")
	}
	log.Info().Int("candidates", len(candidates)).Msg("Testing proxies")

	var working []ProxyInfo
	var mu sync.Mutex

	for i := 0; i < len(candidates) && len(working) < m.Keep*2; i += m.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+m.BatchSize, len(candidates))

		var wg sync.WaitGroup
		semaphore := make(chan struct{}, 20)
		for _, candidate := range candidates[i:end] {
			wg.Add(1)
			go func(p ProxyInfo) {
				defer wg.Done()
				semaphore <- struct{}{}
				defer func() { <-semaphore }()

				latency, err := m.check(ctx, p)
				if err != nil {
					return
				}
				p.Working = true
				p.Latency = latency
				p.LastTest = time.Now()

				mu.Lock()
				working = append(working, p)
				mu.Unlock()
			}(candidate)
		}
		wg.Wait()

		log.Debug().Int("batch_end", end).Int("working", len(working)).Msg("Batch complete")
	}

	sort.Slice(working, func(i, j int) bool {
		return working[i].Latency < working[j].Latency
	})
	if len(working) > m.Keep {
		working = working[:m.Keep]
	}

	m.mutex.Lock()
	m.proxies = working
	m.lastUpdate = time.Now()
	m.mutex.Unlock()

	for i, p := range working {
		log.Info().Int("rank", i+1).Str("proxy", p.URL()).Str("country", p.Country).Dur("latency", p.Latency).Msg("Selected proxy")
	}
	return nil
}

// Fastest returns the fastest working proxy
func (m *Manager) Fastest() (ProxyInfo, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if len(m.proxies) == 0 {
		return ProxyInfo{}, fmt.Errorf("no working proxies available")
	}
	return m.proxies[0], nil
}
