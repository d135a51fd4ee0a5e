package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStripQuery(t *testing.T) {
	assert.Equal(t, "https://www.ebay.com/itm/1", StripQuery("https://www.ebay.com/itm/1?hash=x&var=2"))
	assert.Equal(t, "https://www.ebay.com/itm/1", StripQuery("https://www.ebay.com/itm/1"))
}

func TestResolveURL(t *testing.T) {
	testCases := []struct {
		base     string
		href     string
		expected string
	}{
		{"https://www.ebay.com", "/sch/i.html?_pgn=2", "https://www.ebay.com/sch/i.html?_pgn=2"},
		{"https://www.ebay.com/sch/i.html", "//www.ebay.com/itm/1", "https://www.ebay.com/itm/1"},
		{"https://www.ebay.com", "https://other.com/x", "https://other.com/x"},
		{"https://www.ebay.com", "", ""},
		{"", "/relative", "/relative"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ResolveURL(tc.base, tc.href))
	}
}

func TestRandomDuration(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := RandomDuration(5*time.Second, 10*time.Second)
		assert.GreaterOrEqual(t, d, 5*time.Second)
		assert.LessOrEqual(t, d, 10*time.Second)
	}
	assert.Equal(t, 2*time.Second, RandomDuration(2*time.Second, 2*time.Second))
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
