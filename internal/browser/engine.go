// internal/browser/engine.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/taxcert/internal/ratelimit"
)

// Options configures the engine.
type Options struct {
	PoolSize          int // concurrent isolated contexts
	Headless          bool
	ChromePath        string
	UserAgent         string // used when a Profile does not set one
	NavigationTimeout time.Duration
	Limiter           ratelimit.Limiter
}

// Engine is the process-scoped Chrome instance. One Engine serves every
// request; each Acquire gets its own browser context that shares nothing
// with the others.
type Engine struct {
	opts        Options
	slots       chan struct{}
	allocCtx    context.Context
	allocCancel context.CancelFunc
	rootCtx     context.Context
	rootCancel  context.CancelFunc
	mu          sync.Mutex
	closed      bool
	seq         atomic.Uint64
}

// NewEngine launches Chrome and waits for it to come up.
func NewEngine(opts Options) (*Engine, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 3
	}
	if opts.PoolSize > 10 {
		opts.PoolSize = 10 // Max 10 contexts to avoid resource exhaustion
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}

	log.Debug().Int("size", opts.PoolSize).Bool("headless", opts.Headless).Msg("Starting browser engine")

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("safebrowsing-disable-auto-update", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1366,768"),
		chromedp.Flag("disk-cache-size", "0"),
	}
	if path := FindChrome(opts.ChromePath); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	rootCtx, rootCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser process
	if err := chromedp.Run(rootCtx, chromedp.Navigate("about:blank")); err != nil {
		rootCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	log.Info().Int("pool_size", opts.PoolSize).Msg("Browser engine ready")

	return &Engine{
		opts:        opts,
		slots:       make(chan struct{}, opts.PoolSize),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		rootCtx:     rootCtx,
		rootCancel:  rootCancel,
	}, nil
}

// Acquire waits for a free slot and opens a new isolated browser context
// with the profile's user agent and resource filter applied.
func (e *Engine) Acquire(ctx context.Context, p Profile) (Session, error) {
	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		<-e.slots
		return nil, ErrClosed
	}

	tabCtx, tabCancel := chromedp.NewContext(e.rootCtx, chromedp.WithNewBrowserContext())

	timeout := p.NavigationTimeout
	if timeout <= 0 {
		timeout = e.opts.NavigationTimeout
	}
	ua := p.UserAgent
	if ua == "" {
		ua = e.opts.UserAgent
	}

	setup := []chromedp.Action{}
	if ua != "" {
		setup = append(setup, emulation.SetUserAgentOverride(ua))
	}
	if len(p.Blocked) > 0 {
		installFilter(tabCtx, p.Blocked)
		setup = append(setup, fetch.Enable().WithPatterns([]*fetch.RequestPattern{
			{URLPattern: "*", RequestStage: fetch.RequestStageRequest},
		}))
	}

	// The first Run creates the tab and must not carry a deadline, or the tab
	// dies with it.
	err := chromedp.Run(tabCtx)
	if err == nil {
		setupCtx, cancel := context.WithTimeout(tabCtx, timeout)
		err = chromedp.Run(setupCtx, setup...)
		cancel()
	}
	if err != nil {
		tabCancel()
		<-e.slots
		return nil, fmt.Errorf("%w: open browser context: %v", ErrUnavailable, err)
	}

	s := &chromeSession{
		id:      e.seq.Add(1),
		ctx:     tabCtx,
		timeout: timeout,
		limiter: e.opts.Limiter,
	}
	s.dispose = func() {
		tabCancel()
		<-e.slots
	}

	log.Debug().Uint64("session", s.id).Dur("timeout", timeout).Int("blocked", len(p.Blocked)).Msg("Browser session acquired")
	return s, nil
}

// Release closes the session's browser context and frees its slot.
func (e *Engine) Release(s Session) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close browser session")
	}
}

// InUse returns the number of sessions currently acquired.
func (e *Engine) InUse() int {
	return len(e.slots)
}

// Close shuts Chrome down. Sessions still open are torn down with it.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	log.Debug().Msg("Closing browser engine")
	e.rootCancel()
	e.allocCancel()
	log.Info().Msg("Browser engine closed")
	return nil
}

// installFilter fails requests for blocked resource types and lets the rest
// through. Paused requests must be answered from a separate goroutine.
func installFilter(tabCtx context.Context, blocked []ResourceType) {
	deny := make(map[network.ResourceType]bool, len(blocked))
	for _, rt := range blocked {
		deny[network.ResourceType(rt)] = true
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			if c == nil || c.Target == nil {
				return
			}
			execCtx := cdp.WithExecutor(tabCtx, c.Target)

			var err error
			if deny[paused.ResourceType] {
				err = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
			} else {
				err = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
			}
			if err != nil && tabCtx.Err() == nil {
				log.Debug().Err(err).Str("url", paused.Request.URL).Msg("Resource filter could not answer request")
			}
		}()
	})
}
