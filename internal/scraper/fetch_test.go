package scraper

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/listingworker/helpers"
	scrapeerrors "sjsage522/listingworker/pkg/errors"
)

func testFetcher(cacheSvc *MockCacheService) *HTTPFetcher {
	client := helpers.NewHTTPClient(helpers.ClientOptions{
		Timeout:      2 * time.Second,
		RetryWait:    5 * time.Millisecond,
		RetryMaxWait: 10 * time.Millisecond,
	})
	f := &HTTPFetcher{
		Site:      "test",
		Client:    client,
		CacheKey:  "test_rate_limited",
		BlockTime: time.Minute,
	}
	if cacheSvc != nil {
		f.Cache = cacheSvc
	}
	return f
}

func TestHTTPFetcherFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	body, err := testFetcher(NewMockCacheService()).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ok")
}

func TestHTTPFetcherRateLimitBlocks(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	mockCache := NewMockCacheService()
	f := testFetcher(mockCache)

	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, scrapeerrors.IsType(err, scrapeerrors.ErrorTypeRateLimit))
	assert.ErrorIs(t, err, helpers.ErrRateLimited)

	value, err := mockCache.Get("test_rate_limited")
	require.NoError(t, err)
	assert.Equal(t, "60", string(value))

	// blocked: no request reaches the server
	_, err = f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, scrapeerrors.IsType(err, scrapeerrors.ErrorTypeRateLimit))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPFetcherNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testFetcher(nil).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, scrapeerrors.IsType(err, scrapeerrors.ErrorTypeNetwork))
}

type unreachableCache struct{}

func (unreachableCache) Get(key string) ([]byte, error) {
	return nil, errors.New("memcache: connection refused")
}

func (unreachableCache) Set(key string, value []byte, expiration time.Duration) error {
	return errors.New("memcache: connection refused")
}

func (unreachableCache) Delete(key string) error { return nil }

func TestHTTPFetcherIgnoresCacheFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	f := testFetcher(nil)
	f.Cache = unreachableCache{}

	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ok")
}
