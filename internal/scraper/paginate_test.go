package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaginatorFollowsLinks(t *testing.T) {
	var slept []time.Duration
	p := NewPaginator(0, 5*time.Second, 5*time.Second)
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	var visited []string
	pages, err := p.Run(context.Background(), "p1", func(_ context.Context, page int, url string) (string, error) {
		visited = append(visited, url)
		if page < 3 {
			return fmt.Sprintf("p%d", page+1), nil
		}
		return "", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"p1", "p2", "p3"}, visited)
	// no delay after the last page
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, slept)
}

func TestPaginatorMaxPages(t *testing.T) {
	p := NewPaginator(2, 0, 0)
	p.sleep = noSleep

	pages, err := p.Run(context.Background(), "p1", func(_ context.Context, page int, url string) (string, error) {
		return fmt.Sprintf("p%d", page+1), nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, pages)
}

func TestPaginatorStopsOnLoop(t *testing.T) {
	p := NewPaginator(0, 0, 0)
	p.sleep = noSleep

	pages, err := p.Run(context.Background(), "p1", func(_ context.Context, page int, url string) (string, error) {
		return "p1", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestPaginatorError(t *testing.T) {
	p := NewPaginator(0, 0, 0)
	p.sleep = noSleep
	boom := errors.New("boom")

	pages, err := p.Run(context.Background(), "p1", func(_ context.Context, page int, url string) (string, error) {
		if page == 2 {
			return "", boom
		}
		return "p2", nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, pages)
}

func TestPaginatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPaginator(0, time.Hour, time.Hour)

	pages, err := p.Run(ctx, "p1", func(_ context.Context, page int, url string) (string, error) {
		cancel()
		return "p2", nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, pages)
}
