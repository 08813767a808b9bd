package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// ChromeOptions configures a ChromeSession.
type ChromeOptions struct {
	Headless          bool
	ChromeBin         string
	NavigationTimeout time.Duration
	QueryTimeout      time.Duration
}

// ChromeSession is a Session backed by its own Chrome process driven through chromedp.
type ChromeSession struct {
	opts        ChromeOptions
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
	started     bool
}

// NewChromeSession prepares a browser allocator. Chrome itself is launched on Open.
func NewChromeSession(parent context.Context, opts ChromeOptions) *ChromeSession {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 15 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := findChromeBinary(opts.ChromeBin); bin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &ChromeSession{
		opts:        opts,
		ctx:         tabCtx,
		cancelAlloc: cancelAlloc,
		cancelTab:   cancelTab,
	}
}

// Open navigates the tab to url, launching Chrome on first use.
func (s *ChromeSession) Open(url string) error {
	if !s.started {
		// The first Run allocates the browser and must not carry a deadline.
		if err := chromedp.Run(s.ctx); err != nil {
			return fmt.Errorf("chromedp: start browser: %w", err)
		}
		s.started = true
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.NavigationTimeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("chromedp: navigate %s: %w", url, err)
	}
	return nil
}

func (s *ChromeSession) query(scope Element, selector string) ([]*cdp.Node, error) {
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if scope != nil {
		parent, err := asNode(scope)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chromedp.FromNode(parent))
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.QueryTimeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("chromedp: query %q: %w", selector, err)
	}
	return nodes, nil
}

func (s *ChromeSession) FindOne(scope Element, selector string) (Element, Outcome, error) {
	nodes, err := s.query(scope, selector)
	if err != nil {
		return nil, NotFound, err
	}
	if len(nodes) == 0 {
		return nil, NotFound, nil
	}
	return nodes[0], Found, nil
}

func (s *ChromeSession) FindAll(scope Element, selector string) ([]Element, error) {
	nodes, err := s.query(scope, selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out, nil
}

func (s *ChromeSession) Click(el Element) error {
	n, err := asNode(el)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.QueryTimeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Click([]cdp.NodeID{n.NodeID}, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("chromedp: click: %w", err)
	}
	return nil
}

// WaitFor waits until selector matches a ready node. Running out of time is
// reported as the Timeout outcome, not as an error.
func (s *ChromeSession) WaitFor(selector string, timeout time.Duration) (Outcome, error) {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := chromedp.Run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
	switch {
	case err == nil:
		return Found, nil
	case errors.Is(err, context.DeadlineExceeded) && s.ctx.Err() == nil:
		return Timeout, nil
	default:
		return Timeout, fmt.Errorf("chromedp: wait %q: %w", selector, err)
	}
}

func (s *ChromeSession) Text(el Element) (string, error) {
	n, err := asNode(el)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.QueryTimeout)
	defer cancel()

	var text string
	if err := chromedp.Run(ctx, chromedp.Text([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("chromedp: text: %w", err)
	}
	return text, nil
}

func (s *ChromeSession) Attribute(el Element, name string) (string, bool, error) {
	n, err := asNode(el)
	if err != nil {
		return "", false, err
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.QueryTimeout)
	defer cancel()

	var (
		value string
		ok    bool
	)
	action := chromedp.AttributeValue([]cdp.NodeID{n.NodeID}, name, &value, &ok, chromedp.ByNodeID)
	if err := chromedp.Run(ctx, action); err != nil {
		return "", false, fmt.Errorf("chromedp: attribute %q: %w", name, err)
	}
	return value, ok, nil
}

// Close shuts the tab and the browser process.
func (s *ChromeSession) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}

func asNode(el Element) (*cdp.Node, error) {
	n, ok := el.(*cdp.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("%w: %T is not a chromedp node", ErrStaleElement, el)
	}
	return n, nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
