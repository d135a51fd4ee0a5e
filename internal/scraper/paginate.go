package scraper

import (
	"context"
	"time"

	"sjsage522/listingworker/helpers"
)

// PageFunc handles one page. It returns the next page URL, or "" to stop.
type PageFunc func(ctx context.Context, page int, url string) (next string, err error)

// Paginator walks next-page links with a random delay between pages
type Paginator struct {
	MaxPages int
	DelayMin time.Duration
	DelayMax time.Duration
	sleep    func(context.Context, time.Duration) error
}

// NewPaginator creates a paginator. maxPages <= 0 means no page limit.
func NewPaginator(maxPages int, delayMin, delayMax time.Duration) *Paginator {
	return &Paginator{
		MaxPages: maxPages,
		DelayMin: delayMin,
		DelayMax: delayMax,
		sleep:    helpers.Sleep,
	}
}

// Run calls fn for startURL and every following page. It returns the number
// of pages handled. Pages are numbered from 1.
func (p *Paginator) Run(ctx context.Context, startURL string, fn PageFunc) (int, error) {
	url := startURL
	pages := 0
	visited := make(map[string]bool)

	for url != "" && (p.MaxPages <= 0 || pages < p.MaxPages) {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		if visited[url] {
			break
		}
		visited[url] = true

		pages++
		next, err := fn(ctx, pages, url)
		if err != nil {
			return pages, err
		}
		if next == "" || (p.MaxPages > 0 && pages >= p.MaxPages) {
			break
		}

		if err := p.sleep(ctx, helpers.RandomDuration(p.DelayMin, p.DelayMax)); err != nil {
			return pages, err
		}
		url = next
	}
	return pages, nil
}
