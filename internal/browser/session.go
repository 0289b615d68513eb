package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/law-makers/taxcert/internal/ratelimit"
)

type chromeSession struct {
	id        uint64
	ctx       context.Context
	timeout   time.Duration
	limiter   ratelimit.Limiter
	dispose   func()
	closeOnce sync.Once
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(s.dispose)
	return nil
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, url); err != nil {
			return fmt.Errorf("rate limit wait for %s: %w", url, err)
		}
	}
	return s.run(ctx, 0, "navigate "+url, chromedp.Navigate(url))
}

func (s *chromeSession) Exists(ctx context.Context, selector string) (bool, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, 0, "query "+selector,
		chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)))
	return len(nodes) > 0, err
}

func (s *chromeSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, "wait for "+selector, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *chromeSession) OuterHTML(ctx context.Context, selector string) (string, error) {
	var html string
	err := s.run(ctx, 0, "read "+selector, chromedp.OuterHTML(selector, &html, chromedp.ByQuery))
	return html, err
}

func (s *chromeSession) Fill(ctx context.Context, selector, value string) error {
	return s.run(ctx, 0, "fill "+selector,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, value, chromedp.ByQuery),
	)
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, 0, "click "+selector, chromedp.Click(selector, chromedp.ByQuery))
}

func (s *chromeSession) Submit(ctx context.Context, selector string) error {
	opCtx, cancel := s.bound(ctx, 0)
	defer cancel()
	_, err := chromedp.RunResponse(opCtx, chromedp.Click(selector, chromedp.ByQuery))
	return s.wrap(ctx, opCtx, "submit "+selector, err)
}

func (s *chromeSession) Location(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, 0, "location", chromedp.Location(&url))
	return url, err
}

func (s *chromeSession) run(ctx context.Context, timeout time.Duration, what string, actions ...chromedp.Action) error {
	opCtx, cancel := s.bound(ctx, timeout)
	defer cancel()
	return s.wrap(ctx, opCtx, what, chromedp.Run(opCtx, actions...))
}

// bound derives an operation context from the tab that expires after the
// timeout or when the caller's context ends, whichever is first. Cancelling
// it never closes the tab.
func (s *chromeSession) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = s.timeout
	}
	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (s *chromeSession) wrap(ctx, opCtx context.Context, what string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || opCtx.Err() != nil {
		return fmt.Errorf("%w: %s", ErrTimeout, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}
