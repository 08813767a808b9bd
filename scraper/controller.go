// Package scraper walks a paginated review listing and turns its cards into
// records.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"review-scraper/browser"
	"review-scraper/config"
	"review-scraper/locale"
	"review-scraper/models"
	"review-scraper/utils"
)

// ErrNextPageMissing is returned when the listing claimed another page but the
// next-page control could not be found when it was time to click it.
var ErrNextPageMissing = errors.New("next page control not found")

// State is a step of the pagination state machine.
type State int

const (
	StateInit State = iota
	StateObstacleClearing
	StateLoading
	StateExtracting
	StateAdvancing
	StateDone
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateObstacleClearing:
		return "OBSTACLE_CLEARING"
	case StateLoading:
		return "LOADING"
	case StateExtracting:
		return "EXTRACTING"
	case StateAdvancing:
		return "ADVANCING"
	case StateDone:
		return "DONE"
	case StateTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PaginationState is the controller's view of one target's progress.
// ExpectedCount is advisory: it drives progress reporting only.
type PaginationState struct {
	State         State
	Page          int
	HasMore       bool
	ObservedCount int
	ExpectedCount int
}

// RecordBuffer receives extracted records in order.
type RecordBuffer interface {
	Append(models.ReviewRecord)
	MaybeFlush() bool
}

// Options configures a Controller.
type Options struct {
	Selectors       *config.Selectors
	Locale          *locale.Locale
	PageLoadTimeout time.Duration
	CookieTimeout   time.Duration
	Retry           *utils.RetryConfig
}

// Controller drives one target from its first page to the last. It owns the
// session for the lifetime of the target and is not safe for concurrent use.
type Controller struct {
	session   browser.Session
	target    models.Target
	opts      Options
	extractor *Extractor
	logger    *utils.Logger
	state     PaginationState

	// summary is the pagination summary text of the last extracted page.
	summary string
}

const pollInterval = 250 * time.Millisecond

// NewController creates a Controller for target.
func NewController(session browser.Session, target models.Target, opts Options, logger *utils.Logger) *Controller {
	if opts.Retry == nil {
		opts.Retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	return &Controller{
		session:   session,
		target:    target,
		opts:      opts,
		extractor: NewExtractor(session, opts.Selectors, opts.Locale, logger),
		logger:    logger,
	}
}

// State returns a copy of the current pagination state.
func (c *Controller) State() PaginationState {
	return c.state
}

// Target returns the target, with Name and ExpectedCount filled in once Start
// has read them from the page.
func (c *Controller) Target() models.Target {
	return c.target
}

func (c *Controller) transition(s State) {
	c.logger.Debug("[pagination] page %d: %s -> %s", c.state.Page, c.state.State, s)
	c.state.State = s
}

// Start opens the target and prepares the first page: cookie consent, review
// language, display name and expected review count.
func (c *Controller) Start(ctx context.Context) error {
	c.state = PaginationState{State: StateInit}

	if err := c.session.Open(c.target.URL); err != nil {
		c.transition(StateTerminated)
		return fmt.Errorf("open %s: %w", c.target.URL, err)
	}

	c.acceptConsent(ctx)
	c.selectLanguage(ctx)

	if c.target.Name == "" {
		c.target.Name = c.readTitle()
	}
	c.target.ExpectedCount = c.readExpectedCount()
	c.state.ExpectedCount = c.target.ExpectedCount

	c.logger.Info("Scraping %s (%d reviews listed)", c.target.Name, c.target.ExpectedCount)
	return nil
}

// Run visits pages until the next-page control disappears, handing every
// extracted record to buf. It returns nil when the listing ends normally and
// a non-nil error when the target had to be abandoned.
func (c *Controller) Run(ctx context.Context, buf RecordBuffer) error {
	for {
		c.state.Page++

		c.transition(StateObstacleClearing)
		c.sweepObstacles()

		c.transition(StateLoading)
		c.waitLoaded(ctx)

		c.transition(StateExtracting)
		result, err := c.extractor.ExtractPage()
		if err != nil {
			c.transition(StateTerminated)
			return fmt.Errorf("page %d: %w", c.state.Page, err)
		}
		for _, r := range result.Records {
			buf.Append(r)
			buf.MaybeFlush()
		}
		c.state.ObservedCount += len(result.Records)
		c.reportProgress(result)
		c.summary = c.summaryText()

		_, outcome, err := c.session.FindOne(nil, c.opts.Selectors.Page.NextPage)
		if err != nil {
			c.transition(StateTerminated)
			return fmt.Errorf("page %d: look for next page: %w", c.state.Page, err)
		}
		c.state.HasMore = outcome == browser.Found
		if !c.state.HasMore {
			c.transition(StateDone)
			c.checkCount()
			return nil
		}

		if err := ctx.Err(); err != nil {
			c.transition(StateTerminated)
			return err
		}

		c.transition(StateAdvancing)
		if err := c.advance(ctx); err != nil {
			c.transition(StateTerminated)
			return fmt.Errorf("page %d: %w", c.state.Page, err)
		}
	}
}

// advance clicks the next-page control. A click that fails is retried after
// another obstacle sweep; a control that has vanished is not.
func (c *Controller) advance(ctx context.Context) error {
	next := c.opts.Selectors.Page.NextPage
	return c.opts.Retry.Do(ctx, "next page", func() error {
		el, outcome, err := c.session.FindOne(nil, next)
		if err != nil {
			return err
		}
		if outcome != browser.Found {
			return utils.Permanent(ErrNextPageMissing)
		}
		if err := c.session.Click(el); err != nil {
			c.sweepObstacles()
			return err
		}
		return nil
	})
}

// waitLoaded waits for the pagination summary and, after a page change, for
// it to differ from the previous page's. Running out of time is logged and
// extraction proceeds with whatever has rendered.
func (c *Controller) waitLoaded(ctx context.Context) {
	outcome, err := c.session.WaitFor(c.opts.Selectors.Page.PaginationInfo, c.opts.PageLoadTimeout)
	switch {
	case err != nil:
		c.logger.Warn("[pagination] page %d: waiting for page: %v", c.state.Page, err)
		return
	case outcome != browser.Found:
		c.logger.Warn("[pagination] page %d not ready after %v, extracting anyway", c.state.Page, c.opts.PageLoadTimeout)
		return
	}

	if c.summary == "" {
		return
	}
	deadline := time.Now().Add(c.opts.PageLoadTimeout)
	for c.summaryText() == c.summary {
		if !time.Now().Before(deadline) {
			c.logger.Warn("[pagination] page %d: summary still reads %q, extracting anyway", c.state.Page, c.summary)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}

func (c *Controller) summaryText() string {
	el, outcome, err := c.session.FindOne(nil, c.opts.Selectors.Page.PaginationInfo)
	if err != nil || outcome != browser.Found {
		return ""
	}
	text, err := c.session.Text(el)
	if err != nil {
		return ""
	}
	return text
}

func (c *Controller) reportProgress(result PageResult) {
	if c.state.ExpectedCount <= 0 {
		c.logger.Info("Page %d: %d reviews (%d total)", c.state.Page, len(result.Records), c.state.ObservedCount)
		return
	}
	pct := float64(c.state.ObservedCount) * 100 / float64(c.state.ExpectedCount)
	c.logger.Info("Page %d: %d reviews | %d/%d (%.1f%%)",
		c.state.Page, len(result.Records), c.state.ObservedCount, c.state.ExpectedCount, pct)
}

func (c *Controller) checkCount() {
	if c.state.ExpectedCount > 0 && c.state.ObservedCount != c.state.ExpectedCount {
		c.logger.Warn("[pagination] Listing reported %d reviews, extracted %d",
			c.state.ExpectedCount, c.state.ObservedCount)
	}
}

func (c *Controller) readTitle() string {
	if sel := c.opts.Selectors.Page.Title; sel != "" {
		el, outcome, err := c.session.FindOne(nil, sel)
		if err == nil && outcome == browser.Found {
			if title, err := c.session.Text(el); err == nil {
				if title = utils.NormaliseText(title); title != "" {
					return title
				}
			}
		}
	}
	c.logger.Warn("[pagination] No page title, naming target after its URL")
	return NameFromURL(c.target.URL)
}

// readExpectedCount returns 0 when the summary is missing or unreadable, which
// turns percentage reporting off.
func (c *Controller) readExpectedCount() int {
	sel := c.opts.Selectors.Page.PaginationInfo
	outcome, err := c.session.WaitFor(sel, c.opts.PageLoadTimeout)
	if err != nil || outcome != browser.Found {
		c.logger.Warn("[pagination] No pagination summary, progress will not be reported")
		return 0
	}
	el, outcome, err := c.session.FindOne(nil, sel)
	if err != nil || outcome != browser.Found {
		return 0
	}
	text, err := c.session.Text(el)
	if err != nil {
		return 0
	}
	n, err := c.opts.Locale.ParseReviewCount(text)
	if err != nil {
		c.logger.Error("[pagination] %v", err)
		return 0
	}
	return n
}

// NameFromURL derives a display name from a listing URL, e.g.
// ".../Attraction_Review-g1-d2-Reviews-Jardim_Botanico-Curitiba.html" -> "Jardim Botanico".
func NameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		if err == nil && u.Host != "" {
			return u.Host
		}
		return raw
	}

	seg := path.Base(u.Path)
	seg = strings.TrimSuffix(seg, path.Ext(seg))
	if _, rest, ok := strings.Cut(seg, "-Reviews-"); ok {
		seg = rest
		if name, _, ok := strings.Cut(rest, "-"); ok {
			seg = name
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(seg, "_", " "))
}
