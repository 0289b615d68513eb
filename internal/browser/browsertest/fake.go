// Package browsertest provides an in-memory browser.Page and browser.Provider
// backed by fixture HTML, so adapters and the pipeline can be tested without
// Chrome.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/taxcert/internal/browser"
)

// Page serves fixture HTML keyed by URL. Unknown URLs load an empty body.
type Page struct {
	// Pages maps URL to document HTML.
	Pages map[string]string
	// Submits maps a submit selector to the URL the click navigates to.
	Submits map[string]string
	// NavigateErr, when set, is returned by every Navigate.
	NavigateErr error

	mu      sync.Mutex
	current string
	doc     *goquery.Document
	filled  map[string]string
	visits  []string
	clicks  []string
	closed  bool
}

// NewPage returns a page serving the given URL to HTML fixtures.
func NewPage(pages map[string]string) *Page {
	return &Page{Pages: pages, Submits: map[string]string{}}
}

func (p *Page) load(url string) {
	html, ok := p.Pages[url]
	if !ok {
		html = "<html><body></body></html>"
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	p.current = url
	p.doc = doc
	p.visits = append(p.visits, url)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("navigate %s: session closed", url)
	}
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.load(url)
	return nil
}

func (p *Page) selection(selector string) *goquery.Selection {
	if p.doc == nil {
		return &goquery.Selection{}
	}
	return p.doc.Find(selector)
}

func (p *Page) Exists(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selection(selector).Length() > 0, nil
}

func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if ok, _ := p.Exists(ctx, selector); ok {
		return nil
	}
	return fmt.Errorf("%w: wait for %s", browser.ErrTimeout, selector)
}

func (p *Page) OuterHTML(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sel := p.selection(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: read %s", browser.ErrTimeout, selector)
	}
	return goquery.OuterHtml(sel)
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selection(selector).Length() == 0 {
		return fmt.Errorf("%w: fill %s", browser.ErrTimeout, selector)
	}
	if p.filled == nil {
		p.filled = map[string]string{}
	}
	p.filled[selector] = value
	return nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selection(selector).Length() == 0 {
		return fmt.Errorf("%w: click %s", browser.ErrTimeout, selector)
	}
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *Page) Submit(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selection(selector).Length() == 0 {
		return fmt.Errorf("%w: submit %s", browser.ErrTimeout, selector)
	}
	target, ok := p.Submits[selector]
	if !ok {
		return fmt.Errorf("submit %s: no navigation configured", selector)
	}
	p.load(target)
	return nil
}

func (p *Page) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Filled returns the value set on an input.
func (p *Page) Filled(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filled[selector]
}

// Visits returns every URL loaded, in order.
func (p *Page) Visits() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.visits...)
}

// Clicks returns every clicked selector, in order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Provider hands out Pages from NewPage and counts acquisitions.
type Provider struct {
	// NewPage builds the page for the n-th acquisition (1-based).
	NewPage func(n int) *Page
	// AcquireErr, when set, fails every Acquire.
	AcquireErr error

	mu       sync.Mutex
	acquired int
	released int
	profiles []browser.Profile
	pages    []*Page
}

func (f *Provider) Acquire(ctx context.Context, profile browser.Profile) (browser.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AcquireErr != nil {
		return nil, f.AcquireErr
	}
	f.acquired++
	f.profiles = append(f.profiles, profile)
	page := NewPage(nil)
	if f.NewPage != nil {
		page = f.NewPage(f.acquired)
	}
	f.pages = append(f.pages, page)
	return page, nil
}

func (f *Provider) Release(s browser.Session) {
	f.mu.Lock()
	f.released++
	f.mu.Unlock()
	s.Close()
}

// Counts returns how many sessions were acquired and released.
func (f *Provider) Counts() (acquired, released int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired, f.released
}

// Profiles returns the profiles sessions were acquired with.
func (f *Provider) Profiles() []browser.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]browser.Profile(nil), f.profiles...)
}

// Pages returns every page handed out.
func (f *Provider) Pages() []*Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Page(nil), f.pages...)
}
