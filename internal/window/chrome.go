package window

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Options configures the Chrome launcher and the windows it opens.
type Options struct {
	Headless      bool
	Width         int
	Height        int
	ScreenWidth   int
	ScreenHeight  int
	ActionTimeout time.Duration
	// HostOrigin is the origin the engine acts on behalf of; pages on any
	// other origin probe as CrossOrigin.
	HostOrigin string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	if o.ScreenWidth <= 0 {
		o.ScreenWidth = 1920
	}
	if o.ScreenHeight <= 0 {
		o.ScreenHeight = 1080
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = 10 * time.Second
	}
	return o
}

// Bounds returns the window rectangle centered on the configured screen.
func (o Options) Bounds() (left, top, width, height int) {
	o = o.withDefaults()
	width, height = o.Width, o.Height
	if width > o.ScreenWidth {
		width = o.ScreenWidth
	}
	if height > o.ScreenHeight {
		height = o.ScreenHeight
	}
	return (o.ScreenWidth - width) / 2, (o.ScreenHeight - height) / 2, width, height
}

// Chrome launches one browser lazily and opens a new top-level window per
// Open call.
type Chrome struct {
	opts Options

	mu            sync.Mutex
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

func NewChrome(opts Options) *Chrome {
	return &Chrome{opts: opts.withDefaults()}
}

func (c *Chrome) initBrowser() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browserCtx != nil {
		select {
		case <-c.browserCtx.Done():
			c.cleanup()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("block-new-web-contents", false),
	)

	c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	c.browserCtx, c.browserCancel = chromedp.NewContext(c.allocCtx)

	if err := chromedp.Run(c.browserCtx); err != nil {
		c.cleanup()
		return err
	}
	return nil
}

func (c *Chrome) cleanup() {
	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	c.browserCtx = nil
	c.allocCtx = nil
}

// Shutdown stops the browser process.
func (c *Chrome) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanup()
}

// Open creates a new window, sizes it and centers it on screen.
func (c *Chrome) Open(ctx context.Context) (Window, error) {
	if err := c.initBrowser(); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	c.mu.Lock()
	parent := c.browserCtx
	c.mu.Unlock()

	var targetID target.ID
	err := chromedp.Run(parent, chromedp.ActionFunc(func(ctx context.Context) error {
		executor := cdp.WithExecutor(ctx, chromedp.FromContext(ctx).Browser)
		id, err := target.CreateTarget("about:blank").WithNewWindow(true).Do(executor)
		targetID = id
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	tabCtx, cancel := chromedp.NewContext(parent, chromedp.WithTargetID(targetID))
	w := &chromeWindow{
		ctx:     tabCtx,
		cancel:  cancel,
		id:      targetID,
		opts:    c.opts,
		done:    make(chan struct{}),
		timeout: c.opts.ActionTimeout,
	}

	left, top, width, height := c.opts.Bounds()
	err = chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := browser.GetWindowForTarget().WithTargetID(targetID).Do(ctx)
		if err != nil {
			return err
		}
		return browser.SetWindowBounds(windowID, &browser.Bounds{
			Left:        int64(left),
			Top:         int64(top),
			Width:       int64(width),
			Height:      int64(height),
			WindowState: browser.WindowStateNormal,
		}).Do(ctx)
	}))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to place window: %w", err)
	}

	chromedp.ListenBrowser(tabCtx, func(ev interface{}) {
		if e, ok := ev.(*target.EventTargetDestroyed); ok && e.TargetID == targetID {
			w.markClosed()
		}
	})
	go func() {
		<-tabCtx.Done()
		w.markClosed()
	}()

	return w, nil
}

type chromeWindow struct {
	ctx     context.Context
	cancel  context.CancelFunc
	id      target.ID
	opts    Options
	timeout time.Duration

	once sync.Once
	done chan struct{}
}

func (w *chromeWindow) markClosed() {
	w.once.Do(func() { close(w.done) })
}

func (w *chromeWindow) Done() <-chan struct{} {
	return w.done
}

func (w *chromeWindow) closed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// run executes actions on the window's target, bounded by the caller's
// context and the action timeout.
func (w *chromeWindow) run(ctx context.Context, actions ...chromedp.Action) error {
	if w.closed() {
		return ErrClosed
	}
	actionCtx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(actionCtx, actions...)
	if err != nil && w.closed() {
		return ErrClosed
	}
	return err
}

func (w *chromeWindow) Placeholder(ctx context.Context, html string) error {
	return w.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
	}))
}

func (w *chromeWindow) Navigate(ctx context.Context, url string) error {
	return w.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errorText, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			log.Printf("navigation to %s reported: %s", url, errorText)
		}
		return nil
	}))
}

// Probe reads the current location. A failed read is treated as a cross
// origin page unless the window is known to be closed.
func (w *chromeWindow) Probe(ctx context.Context) Access {
	if w.closed() {
		return Closed
	}
	var href string
	if err := w.run(ctx, chromedp.Evaluate(`window.location.href`, &href)); err != nil {
		if w.closed() || errors.Is(err, ErrClosed) {
			return Closed
		}
		return CrossOrigin
	}
	if !SameOrigin(w.opts.HostOrigin, href) {
		return CrossOrigin
	}
	return Accessible
}

func (w *chromeWindow) Click(ctx context.Context, selector string) error {
	if err := w.requireElement(ctx, selector); err != nil {
		return err
	}
	return w.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (w *chromeWindow) Fill(ctx context.Context, selector, value string) error {
	if err := w.requireElement(ctx, selector); err != nil {
		return err
	}
	return w.run(ctx,
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (w *chromeWindow) requireElement(ctx context.Context, selector string) error {
	var found bool
	script := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector))
	if err := w.run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

const visibleScript = `(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	const r = el.getBoundingClientRect();
	const s = window.getComputedStyle(el);
	return r.width > 0 && r.height > 0 && s.visibility !== 'hidden' && s.display !== 'none';
})()`

func (w *chromeWindow) Visible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	err := w.run(ctx, chromedp.Evaluate(fmt.Sprintf(visibleScript, jsString(selector)), &visible))
	return visible, err
}

func (w *chromeWindow) Close() error {
	w.cancel()
	w.markClosed()
	return nil
}

func jsString(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return strings.TrimSpace(string(data))
}
