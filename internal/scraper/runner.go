package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"sjsage522/listingworker/helpers"
	"sjsage522/listingworker/internal/models"
	"sjsage522/listingworker/logger"
	scrapeerrors "sjsage522/listingworker/pkg/errors"
	"sjsage522/listingworker/services/store"
)

// Runner drives one site from its start URL to the CSV file
type Runner struct {
	site      *SiteConfig
	extractor *Extractor
	deps      Dependencies
	runID     string
	sleep     func(context.Context, time.Duration) error

	existing  []models.Record
	filter    *store.Filter
	collected []models.Record
	pages     int
}

// NewRunner creates a runner for site
func NewRunner(site *SiteConfig, deps Dependencies) (*Runner, error) {
	if err := site.Schema.Validate(); err != nil {
		return nil, scrapeerrors.NewConfiguration("site "+site.Name, err)
	}
	if deps.Store == nil {
		return nil, scrapeerrors.NewConfiguration("site "+site.Name+": no store", nil)
	}
	if deps.Logger == nil {
		return nil, scrapeerrors.NewConfiguration("site "+site.Name+": no logger", nil)
	}
	switch site.Mode {
	case ModePaginate:
		if deps.Fetcher == nil {
			return nil, scrapeerrors.NewConfiguration("site "+site.Name+": no fetcher", nil)
		}
	case ModeScroll, ModeDetails:
		if deps.Browser == nil {
			return nil, scrapeerrors.NewConfiguration("site "+site.Name+": no browser", nil)
		}
		if site.Mode == ModeDetails && site.Detail == nil {
			return nil, scrapeerrors.NewConfiguration("site "+site.Name+": no detail config", nil)
		}
	default:
		return nil, scrapeerrors.NewConfiguration(fmt.Sprintf("site %s: unknown mode %q", site.Name, site.Mode), nil)
	}

	extractor, err := NewExtractor(site)
	if err != nil {
		return nil, scrapeerrors.NewConfiguration("site "+site.Name, err)
	}

	return &Runner{
		site:      site,
		extractor: extractor,
		deps:      deps,
		runID:     uuid.NewString(),
		sleep:     helpers.Sleep,
	}, nil
}

// RunID identifies this run in logs and published messages
func (r *Runner) RunID() string {
	return r.runID
}

// Run scrapes until the target, a limit or a page failure. Records already
// appended stay on disk; the file is rewritten deduplicated at the end.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	log := logger.ForScraper(r.site.Name).WithFields(logger.Fields{
		"run_id": r.runID,
		"mode":   r.site.Mode,
	})

	existing, err := r.deps.Store.Load(ctx)
	if err != nil {
		return nil, scrapeerrors.NewStore(r.site.Name, "load "+r.deps.Store.Location(), err)
	}
	r.existing = existing
	r.filter = store.NewFilter(r.site.Schema, existing)

	summary := &Summary{
		Site:     r.site.Name,
		RunID:    r.runID,
		Output:   r.deps.Store.Location(),
		Existing: len(existing),
	}

	if r.site.Target > 0 && len(existing) >= r.site.Target {
		r.deps.Logger.LogInfo("%s: already have %d records, target %d achieved", r.site.Name, len(existing), r.site.Target)
		summary.Total = len(existing)
		summary.TargetReached = true
		summary.Elapsed = time.Since(start)
		return summary, nil
	}

	log.Info().
		Int("existing", len(existing)).
		Int("target", r.site.Target).
		Msg("Starting scrape")

	var walkErr error
	switch r.site.Mode {
	case ModePaginate:
		walkErr = r.paginate(ctx)
	case ModeScroll:
		walkErr = r.scroll(ctx)
	case ModeDetails:
		walkErr = r.details(ctx)
	}

	if walkErr != nil {
		var se *scrapeerrors.ScrapeError
		if errors.As(walkErr, &se) && se.Type == scrapeerrors.ErrorTypeStore {
			return nil, walkErr
		}
		if !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
			r.deps.Logger.LogError(r.site.Name, walkErr)
		}
	}

	total := len(existing)
	if len(r.collected) > 0 {
		// a cancelled run still gets its final rewrite
		merged := store.Merge(existing, r.collected, r.site.Schema, r.site.Target)
		if err := r.deps.Store.Rewrite(context.WithoutCancel(ctx), merged); err != nil {
			return nil, scrapeerrors.NewStore(r.site.Name, "rewrite "+r.deps.Store.Location(), err)
		}
		total = len(merged)
	} else {
		r.deps.Logger.LogInfo("%s: no new records collected", r.site.Name)
	}

	if r.deps.Publisher != nil {
		if err := r.deps.Publisher.TrimStreams(context.WithoutCancel(ctx)); err != nil {
			r.deps.Logger.LogError(r.site.Name, scrapeerrors.NewPublisher(r.site.Name, "trim streams", err))
		}
	}

	summary.Pages = r.pages
	summary.Collected = len(r.collected)
	summary.Total = total
	summary.TargetReached = r.targetReached()
	summary.Elapsed = time.Since(start)

	log.Info().
		Int("pages", summary.Pages).
		Int("collected", summary.Collected).
		Int("total", summary.Total).
		Dur("elapsed", summary.Elapsed).
		Msg("Scrape finished")

	return summary, nil
}

// remaining returns how many records are still wanted, or -1 without a target
func (r *Runner) remaining() int {
	if r.site.Target <= 0 {
		return -1
	}
	n := r.site.Target - len(r.existing) - len(r.collected)
	if n < 0 {
		return 0
	}
	return n
}

func (r *Runner) targetReached() bool {
	return r.remaining() == 0
}

// collect keeps the records not seen before, up to the remaining target,
// appends them to the store and publishes them. It returns how many were kept.
func (r *Runner) collect(ctx context.Context, records []models.Record) (int, error) {
	var fresh []models.Record
	for _, rec := range records {
		if r.remaining() == len(fresh) {
			break
		}
		if r.filter.Add(rec) {
			fresh = append(fresh, rec)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	// a page already fetched is kept even when the run is being cancelled
	if err := r.deps.Store.Append(context.WithoutCancel(ctx), fresh); err != nil {
		return 0, scrapeerrors.NewStore(r.site.Name, "append to "+r.deps.Store.Location(), err)
	}
	r.collected = append(r.collected, fresh...)
	r.publish(ctx, fresh)

	return len(fresh), nil
}

type listingMessage struct {
	Site   string        `json:"site"`
	RunID  string        `json:"run_id"`
	Record models.Record `json:"record"`
}

func (r *Runner) publish(ctx context.Context, records []models.Record) {
	if r.deps.Publisher == nil {
		return
	}
	for _, rec := range records {
		data, err := json.Marshal(listingMessage{Site: r.site.Name, RunID: r.runID, Record: rec})
		if err != nil {
			r.deps.Logger.LogError(r.site.Name, err)
			return
		}
		if err := r.deps.Publisher.Publish(ctx, r.site.Name, data); err != nil {
			r.deps.Logger.LogError(r.site.Name, scrapeerrors.NewPublisher(r.site.Name, "publish record", err))
			return
		}
	}
}

// paginate walks next-page links over the page fetcher
func (r *Runner) paginate(ctx context.Context) error {
	paginator := NewPaginator(r.site.MaxPages, r.site.DelayMin, r.site.DelayMax)
	paginator.sleep = r.sleep

	pages, err := paginator.Run(ctx, r.site.StartURL, func(ctx context.Context, page int, url string) (string, error) {
		r.deps.Logger.LogInfo("%s: scraping page %d: %s", r.site.Name, page, url)

		body, err := r.deps.Fetcher.Fetch(ctx, url)
		if err != nil {
			return "", err
		}
		doc, err := createDocument(r.site.Name, body)
		if err != nil {
			return "", err
		}

		records, err := r.extractor.ExtractPage(doc)
		if err != nil {
			return "", err
		}

		added, err := r.collect(ctx, records)
		if err != nil {
			return "", err
		}
		r.deps.Logger.LogInfo("%s: page %d: %d found, %d new, %d collected", r.site.Name, page, len(records), added, len(r.collected))

		if r.targetReached() {
			r.deps.Logger.LogInfo("%s: target of %d records reached", r.site.Name, r.site.Target)
			return "", nil
		}
		return r.extractor.NextPage(doc), nil
	})
	r.pages = pages
	return err
}

// scrollRounds scrolls the start page until maxAttempts rounds in a row
// find nothing new. onRound handles the rendered HTML of every round and
// returns how many new items it found.
func (r *Runner) scrollRounds(ctx context.Context, maxAttempts int, onRound func(*goquery.Document) (int, error)) error {
	page, err := r.deps.Browser.Open(ctx, r.site.StartURL, r.site.Selectors.Ready)
	if err != nil {
		return err
	}
	defer page.Close()

	scroller := NewScroller(r.site.ScrollPause)
	scroller.sleep = r.sleep

	attempts := 0
	for attempts < maxAttempts {
		if _, err := scroller.ScrollToEnd(ctx, page); err != nil {
			return err
		}
		r.pages++

		html, err := page.HTML()
		if err != nil {
			return scrapeerrors.NewBrowser(r.site.Name, "read rendered HTML", err)
		}
		doc, err := createDocumentFromString(r.site.Name, html)
		if err != nil {
			return err
		}

		added, err := onRound(doc)
		if err != nil {
			return err
		}
		if added == 0 {
			attempts++
			r.deps.Logger.LogInfo("%s: no new items, attempt %d/%d", r.site.Name, attempts, maxAttempts)
			if err := r.sleep(ctx, r.site.EmptyRetryDelay); err != nil {
				return err
			}
			continue
		}
		attempts = 0
	}
	return nil
}

// scroll extracts cards from an infinitely scrolling page
func (r *Runner) scroll(ctx context.Context) error {
	errTargetReached := errors.New("target reached")

	err := r.scrollRounds(ctx, r.site.MaxScrollAttempts, func(doc *goquery.Document) (int, error) {
		records, err := r.extractor.ExtractPage(doc)
		if err != nil {
			return 0, err
		}
		added, err := r.collect(ctx, records)
		if err != nil {
			return 0, err
		}
		r.deps.Logger.LogInfo("%s: round %d: %d cards, %d new, %d collected", r.site.Name, r.pages, len(records), added, len(r.collected))
		if r.targetReached() {
			return added, errTargetReached
		}
		return added, nil
	})
	if errors.Is(err, errTargetReached) {
		r.deps.Logger.LogInfo("%s: target of %d records reached", r.site.Name, r.site.Target)
		return nil
	}
	return err
}

// details collects detail links by scrolling, then visits every link
func (r *Runner) details(ctx context.Context) error {
	linkSchema := models.Schema{Columns: []string{r.site.Detail.URLColumn}, KeyColumns: []string{r.site.Detail.URLColumn}}
	seen := store.NewFilter(linkSchema, r.existing)

	var links []string
	wanted := r.remaining()
	errEnough := errors.New("enough links")

	err := r.scrollRounds(ctx, r.site.MaxScrollAttempts, func(doc *goquery.Document) (int, error) {
		added := 0
		for _, link := range r.extractor.ExtractLinks(doc) {
			if wanted >= 0 && len(links) >= wanted {
				break
			}
			if seen.Add(models.Record{r.site.Detail.URLColumn: link}) {
				links = append(links, link)
				added++
			}
		}
		r.deps.Logger.LogInfo("%s: round %d: %d new links, %d total", r.site.Name, r.pages, added, len(links))
		if wanted >= 0 && len(links) >= wanted {
			return added, errEnough
		}
		return added, nil
	})
	if err != nil && !errors.Is(err, errEnough) {
		if len(links) == 0 {
			return err
		}
		r.deps.Logger.LogError(r.site.Name, err)
	}

	limiter := rate.NewLimiter(rate.Every(r.site.Detail.Throttle), 1)
	for i, link := range links {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		r.deps.Logger.LogInfo("%s: detail %d/%d: %s", r.site.Name, i+1, len(links), link)

		rec, err := r.fetchDetail(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.deps.Logger.LogError(r.site.Name, err)
			continue
		}
		if rec == nil {
			r.deps.Logger.LogInfo("%s: skipped %s, required fields missing", r.site.Name, link)
			continue
		}
		if _, err := r.collect(ctx, []models.Record{rec}); err != nil {
			return err
		}
		if r.targetReached() {
			break
		}
	}
	return nil
}

func (r *Runner) fetchDetail(ctx context.Context, link string) (models.Record, error) {
	page, err := r.deps.Browser.Open(ctx, link, r.site.Detail.Ready)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	html, err := page.HTML()
	if err != nil {
		return nil, scrapeerrors.NewBrowser(r.site.Name, "read "+link, err)
	}
	doc, err := createDocumentFromString(r.site.Name, html)
	if err != nil {
		return nil, err
	}
	return r.extractor.ExtractDetail(doc, link), nil
}
