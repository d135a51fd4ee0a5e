package scraper

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"sjsage522/listingworker/logger"
	scrapeerrors "sjsage522/listingworker/pkg/errors"
)

// DefaultBrowserUserAgent is sent by the browser unless BrowserOptions overrides it
const DefaultBrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// BrowserOptions configures the headless browser
type BrowserOptions struct {
	Headless  bool
	Bin       string
	Timeout   time.Duration
	UserAgent string
	ProxyURL  string
}

// Browser drives a Chromium instance through the DevTools protocol
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	opts     BrowserOptions
}

// NewBrowser launches a browser
func NewBrowser(opts BrowserOptions) (*Browser, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("start-maximized")
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultBrowserUserAgent
	}
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.ProxyURL != "" {
		l = l.Proxy(opts.ProxyURL)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, scrapeerrors.NewBrowser("", "launch browser", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, scrapeerrors.NewBrowser("", "connect to browser", err)
	}

	logger.ForBrowser().Info().
		Bool("headless", opts.Headless).
		Msg("Browser started")

	return &Browser{browser: b, launcher: l, opts: opts}, nil
}

// Open navigates a new tab to url and waits for the ready selector
func (b *Browser) Open(ctx context.Context, url, ready string) (RenderedPage, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, scrapeerrors.NewBrowser("", "open tab", err)
	}

	if b.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.opts.UserAgent}); err != nil {
			page.Close()
			return nil, scrapeerrors.NewBrowser("", "set user agent", err)
		}
	}

	if err := page.Navigate(url); err != nil {
		page.Close()
		return nil, scrapeerrors.NewBrowser("", "navigate to "+url, err)
	}
	if err := page.WaitLoad(); err != nil {
		page.Close()
		return nil, scrapeerrors.NewBrowser("", "load "+url, err)
	}

	if ready != "" {
		if _, err := page.Timeout(b.opts.Timeout).Element(ready); err != nil {
			page.Close()
			return nil, scrapeerrors.NewBrowser("", "wait for "+ready, err)
		}
	}

	return &browserPage{page: page}, nil
}

// Close shuts the browser down
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type browserPage struct {
	page *rod.Page
}

func (p *browserPage) ScrollHeight() (int, error) {
	res, err := p.page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (p *browserPage) ScrollToBottom() error {
	_, err := p.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (p *browserPage) HTML() (string, error) {
	return p.page.HTML()
}

func (p *browserPage) Close() error {
	return p.page.Close()
}

// BrowserFetcher adapts a PageOpener to PageFetcher for one-shot page loads
type BrowserFetcher struct {
	Opener PageOpener
	Ready  string
}

// Fetch opens url, returns its rendered HTML and closes the tab
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	page, err := f.Opener.Open(ctx, url, f.Ready)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	html, err := page.HTML()
	if err != nil {
		return nil, scrapeerrors.NewBrowser("", "read HTML of "+url, err)
	}
	return strings.NewReader(html), nil
}
