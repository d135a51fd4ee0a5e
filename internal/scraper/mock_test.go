package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"sjsage522/listingworker/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

// MockLogger records everything logged through the LoggerInterface
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

func (m *MockLogger) LogError(site string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, fmt.Sprintf("%s: %v", site, err))
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

// MockPublisher keeps published messages per key
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	trimmed  int
	err      error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(ctx context.Context, key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages[key] = append(m.messages[key], message)
	return nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimmed++
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// MockFetcher serves canned pages by URL
type MockFetcher struct {
	pages   map[string]string
	errs    map[string]error
	fetched []string
	// afterFetch runs once the page body is ready
	afterFetch func(url string)
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	m.fetched = append(m.fetched, url)
	if err, ok := m.errs[url]; ok {
		return nil, err
	}
	html, ok := m.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	if m.afterFetch != nil {
		m.afterFetch(url)
	}
	return strings.NewReader(html), nil
}

// MockPage is a rendered page that grows by one stage per extraction round.
// Each element of stages is the page HTML after that many growth steps.
type MockPage struct {
	stages  []string
	stage   int
	loaded  int
	scrolls int
	closed  bool
}

func (p *MockPage) ScrollHeight() (int, error) {
	return 1000 * (p.stage + 1), nil
}

func (p *MockPage) ScrollToBottom() error {
	p.scrolls++
	if p.stage < p.loaded {
		p.stage++
	}
	return nil
}

// HTML lets the next round load one more stage
func (p *MockPage) HTML() (string, error) {
	html := p.stages[p.stage]
	if p.loaded < len(p.stages)-1 {
		p.loaded++
	}
	return html, nil
}

func (p *MockPage) Close() error {
	p.closed = true
	return nil
}

// MockBrowser opens MockPages by URL
type MockBrowser struct {
	pages  map[string]*MockPage
	errs   map[string]error
	opened []string
}

func (b *MockBrowser) Open(ctx context.Context, url, ready string) (RenderedPage, error) {
	b.opened = append(b.opened, url)
	if err, ok := b.errs[url]; ok {
		return nil, err
	}
	p, ok := b.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return p, nil
}

func noSleep(context.Context, time.Duration) error { return nil }
