package ute

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

const (
	viewportWidth  = 1280
	viewportHeight = 720
)

// ensureBrowser returns the shared browser context, launching a fresh
// headless Chrome when none exists or the previous one has disconnected.
// A dead browser is not an error here, callers get a new one transparently.
func (s *Scraper) ensureBrowser(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil && s.browser.Err() == nil {
		return s.browser, nil
	}
	s.releaseLocked()

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(userAgent),
	)

	// the allocator is rooted in Background so the browser outlives the
	// operation that happened to spawn it
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// an empty run forces the browser process to actually start so launch
	// failures surface now instead of mid-login
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, connectionErr(err, "launch browser")
	}

	s.allocCancel = allocCancel
	s.browser = browserCtx
	s.browserCancel = browserCancel
	return browserCtx, nil
}

// newTab opens an isolated browsing context for a single logical
// operation. Isolation is a dedicated incognito browser context with its
// own cookie jar; a plain tab would share the default context's cookies
// and carry one operation's session into the next. The returned cancel
// must run on every exit path; it is also hooked to the caller's context
// so cancellation still tears the tab down.
func (s *Scraper) newTab(ctx context.Context, browser context.Context) (context.Context, context.CancelFunc, error) {
	// browser-domain commands need the browser executor, not a target
	exec := cdp.WithExecutor(browser, chromedp.FromContext(browser).Browser)

	bctxId, err := target.CreateBrowserContext().Do(exec)
	if err != nil {
		return nil, nil, classify(err, "create browsing context")
	}
	targetId, err := target.CreateTarget("about:blank").
		WithBrowserContextID(bctxId).
		Do(exec)
	if err != nil {
		_ = target.DisposeBrowserContext(bctxId).Do(exec)
		return nil, nil, classify(err, "create browsing context")
	}

	tab, cancelTab := chromedp.NewContext(browser, chromedp.WithTargetID(targetId))
	var once sync.Once
	closeTab := func() {
		once.Do(func() {
			cancelTab()
			_ = target.DisposeBrowserContext(bctxId).Do(exec)
		})
	}
	stop := context.AfterFunc(ctx, closeTab)
	cancel := func() {
		stop()
		closeTab()
	}

	err = chromedp.Run(tab, chromedp.EmulateViewport(viewportWidth, viewportHeight))
	if err != nil {
		cancel()
		return nil, nil, classify(err, "open browsing context")
	}
	return tab, cancel, nil
}

// Close releases the browser and its underlying Chrome process. Safe to
// call multiple times.
func (s *Scraper) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

func (s *Scraper) releaseLocked() {
	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
		s.browser = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
}

// waitSettled approximates a network-idle wait: the document must report
// itself complete, then a short quiet period lets straggling XHRs land.
func waitSettled() chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Poll(
			`document.readyState === "complete"`,
			nil,
			chromedp.WithPollingInterval(100*time.Millisecond),
		),
		chromedp.Sleep(time.Second),
	}
}

// run executes chromedp actions against the tab under a stage-specific
// deadline, classifying any failure.
func run(tab context.Context, timeout time.Duration, stage string, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(tab, timeout)
	defer cancel()
	return classify(chromedp.Run(ctx, actions...), stage)
}
