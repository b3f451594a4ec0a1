// Package browser drives Chrome through the DevTools protocol and exposes it
// as a booking.Page.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/domain/locator"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	pollInterval     = 100 * time.Millisecond
	actionTimeout    = 20 * time.Second
	navigateTimeout  = 60 * time.Second
)

var ErrElementMissing = errors.New("element not found")

type Options struct {
	Headless   bool
	ChromePath string
	UserAgent  string
	// RemoteURL attaches to a running browser's DevTools endpoint instead of
	// launching one.
	RemoteURL string
	Logger    *zap.Logger
}

type Factory struct {
	opts Options
}

func NewFactory(opts Options) *Factory {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Factory{opts: opts}
}

func (f *Factory) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("headless", f.opts.Headless),
		chromedp.WindowSize(1280, 1024),
		chromedp.UserAgent(f.opts.UserAgent),
	)
	if f.opts.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(f.opts.ChromePath))
	}
	return opts
}

// Open starts a browser and a tab. The browser lives until Close or until
// ctx is cancelled.
func (f *Factory) Open(ctx context.Context) (booking.Page, error) {
	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if f.opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, f.opts.RemoteURL)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	}

	log := f.opts.Logger.Named("chrome")
	tab, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Sugar().Debugf),
		chromedp.WithErrorf(log.Sugar().Debugf),
	)
	// first Run launches the browser
	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	p := &Page{
		tab:     tab,
		timeout: actionTimeout,
		dialogs: make(chan string, 1),
		log:     f.opts.Logger,
		close: func() {
			cancelTab()
			cancelAlloc()
		},
	}
	chromedp.ListenTarget(tab, func(ev interface{}) {
		if e, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			select {
			case p.dialogs <- e.Message:
			default:
				p.log.Warn("dialog dropped, previous one still pending", zap.String("text", e.Message))
			}
		}
	})
	return p, nil
}

type element struct{ loc locator.Locator }

func (e element) Locator() locator.Locator { return e.loc }

// Page is one Chrome tab. Lookups go through document.evaluate so every
// locator is an XPath expression.
type Page struct {
	tab context.Context
	// timeout bounds every single protocol round trip and the wait for an
	// element before Click and Type.
	timeout time.Duration
	dialogs chan string
	log     *zap.Logger
	close   func()
}

// run executes actions on the tab within the page timeout, aborting early
// when ctx ends.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	return p.runFor(ctx, p.timeout, actions...)
}

func (p *Page) runFor(ctx context.Context, d time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.tab, d)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", context.DeadlineExceeded, d)
		}
		return err
	}
	return nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	return p.runFor(ctx, navigateTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

type lookup struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

func (p *Page) lookup(ctx context.Context, loc locator.Locator) (lookup, error) {
	var res lookup
	if err := p.run(ctx, chromedp.Evaluate(lookupScript(loc), &res)); err != nil {
		return lookup{}, fmt.Errorf("lookup %s: %w", loc, err)
	}
	return res, nil
}

func (p *Page) Find(ctx context.Context, loc locator.Locator) (booking.Element, bool, error) {
	res, err := p.lookup(ctx, loc)
	if err != nil || !res.Found {
		return nil, false, err
	}
	return element{loc}, true, nil
}

func (p *Page) FindAll(ctx context.Context, loc locator.Locator) ([]booking.Element, error) {
	var n int
	if err := p.run(ctx, chromedp.Evaluate(countScript(loc), &n)); err != nil {
		return nil, fmt.Errorf("count %s: %w", loc, err)
	}
	out := make([]booking.Element, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, element{nth(loc, i)})
	}
	return out, nil
}

func (p *Page) Text(ctx context.Context, loc locator.Locator) (string, bool, error) {
	res, err := p.lookup(ctx, loc)
	if err != nil || !res.Found {
		return "", false, err
	}
	return res.Text, true, nil
}

// require waits up to the page timeout for loc to be rendered.
func (p *Page) require(ctx context.Context, loc locator.Locator) error {
	_, ok, err := p.WaitFor(ctx, loc, p.timeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w after %s: %s", ErrElementMissing, p.timeout, loc)
	}
	return nil
}

func (p *Page) Click(ctx context.Context, loc locator.Locator) error {
	if err := p.require(ctx, loc); err != nil {
		return err
	}
	return p.run(ctx, chromedp.Click(string(loc), chromedp.BySearch, chromedp.NodeVisible))
}

// drainDialogs empties dialogs that opened after their wait window closed
// and returns their texts.
func (p *Page) drainDialogs() []string {
	var stale []string
	for {
		select {
		case msg := <-p.dialogs:
			stale = append(stale, msg)
		default:
			return stale
		}
	}
}

// ForceClick clicks through script. A dialog left over from an earlier
// click is dismissed first so it is not read as this click's answer.
func (p *Page) ForceClick(ctx context.Context, loc locator.Locator) error {
	for _, msg := range p.drainDialogs() {
		p.log.Warn("dismissing late dialog", zap.String("text", msg))
		if err := (&alert{page: p, text: msg}).Dismiss(ctx); err != nil {
			p.log.Debug("dismiss late dialog", zap.Error(err))
		}
	}
	var ok bool
	if err := p.run(ctx, chromedp.Evaluate(forceClickScript(loc), &ok)); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrElementMissing, loc)
	}
	return nil
}

func (p *Page) Type(ctx context.Context, loc locator.Locator, text string) error {
	if err := p.require(ctx, loc); err != nil {
		return err
	}
	return p.run(ctx, chromedp.SendKeys(string(loc), text, chromedp.BySearch, chromedp.NodeVisible))
}

func (p *Page) WaitFor(ctx context.Context, loc locator.Locator, timeout time.Duration) (booking.Element, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		el, ok, err := p.Find(ctx, loc)
		if err != nil || ok {
			return el, ok, err
		}
		if time.Now().After(deadline) {
			return nil, false, nil
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (p *Page) WaitForAlert(ctx context.Context, timeout time.Duration) (booking.Alert, bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case msg := <-p.dialogs:
		return &alert{page: p, text: msg}, true, nil
	case <-t.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (p *Page) Close() error {
	p.close()
	return nil
}

type alert struct {
	page *Page
	text string
}

func (a *alert) Text() string { return a.text }

func (a *alert) Accept(ctx context.Context) error { return a.handle(ctx, true) }

func (a *alert) Dismiss(ctx context.Context) error { return a.handle(ctx, false) }

func (a *alert) handle(ctx context.Context, accept bool) error {
	return a.page.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		return page.HandleJavaScriptDialog(accept).Do(c)
	}))
}
