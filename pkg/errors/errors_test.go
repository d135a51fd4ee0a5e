package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScrapeErrorMessage(t *testing.T) {
	err := NewNetwork("ebay", "fetch failed", io.ErrUnexpectedEOF)
	assert.Equal(t, "[network] ebay: fetch failed - unexpected EOF", err.Error())

	err = NewValidation("ebay", "page title mismatch")
	assert.Equal(t, "[validation] ebay: page title mismatch", err.Error())
}

func TestScrapeErrorUnwrap(t *testing.T) {
	err := NewStore("zomato", "append failed", io.ErrShortWrite)
	wrapped := fmt.Errorf("run: %w", err)

	assert.True(t, stderrors.Is(wrapped, io.ErrShortWrite))
	assert.True(t, IsType(wrapped, ErrorTypeStore))
	assert.False(t, IsType(wrapped, ErrorTypeNetwork))
	assert.False(t, IsType(io.EOF, ErrorTypeStore))
}

func TestRateLimitAndCacheErrors(t *testing.T) {
	err := NewRateLimit("ebay", 10*time.Minute)
	assert.Equal(t, "[rate_limit] ebay: rate limited for 10m0s", err.Error())

	cacheErr := NewCache("ebay", "set block key", io.EOF)
	assert.True(t, IsType(cacheErr, ErrorTypeCache))
	assert.ErrorIs(t, cacheErr, io.EOF)
}
