package scraper

import (
	"context"
	"time"

	"sjsage522/listingworker/helpers"
)

// maxScrollRounds bounds a single ScrollToEnd on pages that never stop growing
const maxScrollRounds = 500

// Scroller scrolls a rendered page until its height stops growing
type Scroller struct {
	Pause time.Duration
	sleep func(context.Context, time.Duration) error
}

// NewScroller creates a scroller that waits pause after every scroll
func NewScroller(pause time.Duration) *Scroller {
	return &Scroller{Pause: pause, sleep: helpers.Sleep}
}

// ScrollToEnd scrolls page to the bottom repeatedly until two consecutive
// height readings match. It returns the number of scrolls performed.
func (s *Scroller) ScrollToEnd(ctx context.Context, page RenderedPage) (int, error) {
	last, err := page.ScrollHeight()
	if err != nil {
		return 0, err
	}

	for rounds := 1; rounds <= maxScrollRounds; rounds++ {
		if err := page.ScrollToBottom(); err != nil {
			return rounds - 1, err
		}
		if err := s.sleep(ctx, s.Pause); err != nil {
			return rounds, err
		}

		height, err := page.ScrollHeight()
		if err != nil {
			return rounds, err
		}
		if height == last {
			return rounds, nil
		}
		last = height
	}
	return maxScrollRounds, nil
}
