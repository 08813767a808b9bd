package scraper

import (
	"context"

	"review-scraper/browser"
)

// acceptConsent waits for the cookie prompt and accepts it. A prompt that never
// shows up is normal for returning sessions and is not an error.
func (c *Controller) acceptConsent(ctx context.Context) {
	sel := c.opts.Selectors.Consent.Accept
	if sel == "" {
		return
	}

	outcome, err := c.session.WaitFor(sel, c.opts.CookieTimeout)
	if err != nil {
		c.logger.Warn("[consent] Waiting for cookie prompt: %v", err)
		return
	}
	if outcome != browser.Found {
		c.logger.Debug("[consent] No cookie prompt after %v", c.opts.CookieTimeout)
		return
	}

	err = c.opts.Retry.Do(ctx, "accept cookies", func() error {
		return c.clickIfPresent(sel)
	})
	if err != nil {
		c.logger.Warn("[consent] Could not accept cookies: %v", err)
		return
	}
	c.logger.Debug("[consent] Cookies accepted")
}

// selectLanguage switches the review list to the configured locale. Failing to
// do so leaves the site default in place; the date and rating parsers will then
// report the mismatch card by card.
func (c *Controller) selectLanguage(ctx context.Context) {
	lang := c.opts.Selectors.Language
	if lang.Selector == "" {
		return
	}

	_, outcome, err := c.session.FindOne(nil, lang.Selector)
	if err != nil || outcome != browser.Found {
		c.logger.Debug("[language] Language menu not present, keeping site default")
		return
	}

	option := c.opts.Selectors.LanguageOption(c.opts.Locale.Code)
	err = c.opts.Retry.Do(ctx, "select language", func() error {
		if err := c.clickIfPresent(lang.Selector); err != nil {
			return err
		}
		return c.clickIfPresent(option)
	})
	if err != nil {
		c.logger.Warn("[language] Could not select %q: %v", c.opts.Locale.Code, err)
		return
	}
	c.logger.Debug("[language] Reviews shown in %q", c.opts.Locale.Code)
}

// sweepObstacles closes anything that would sit between the pointer and the
// page: a late cookie prompt and the configured overlays. It never waits and
// never fails the page.
func (c *Controller) sweepObstacles() {
	if sel := c.opts.Selectors.Consent.Accept; sel != "" {
		if err := c.clickIfPresent(sel); err == nil {
			c.logger.Debug("[obstacles] Accepted late cookie prompt")
		}
	}

	for _, o := range c.opts.Selectors.Obstacles {
		container, outcome, err := c.session.FindOne(nil, o.Container)
		if err != nil {
			c.logger.Warn("[obstacles] %s: %v", o.Name, err)
			continue
		}
		if outcome != browser.Found {
			continue
		}

		closer, outcome, err := c.session.FindOne(container, o.Closer)
		if err != nil || outcome != browser.Found {
			c.logger.Warn("[obstacles] %s is showing but has no close button", o.Name)
			continue
		}
		if err := c.session.Click(closer); err != nil {
			c.logger.Warn("[obstacles] Could not close %s: %v", o.Name, err)
			continue
		}
		c.logger.Debug("[obstacles] Closed %s", o.Name)
	}
}

// clickIfPresent clicks the first match of selector. Absence is returned as an
// error so the retry loop can wait for the element to appear.
func (c *Controller) clickIfPresent(selector string) error {
	el, outcome, err := c.session.FindOne(nil, selector)
	if err != nil {
		return err
	}
	if outcome != browser.Found {
		return errNotShowing{selector: selector}
	}
	return c.session.Click(el)
}

type errNotShowing struct{ selector string }

func (e errNotShowing) Error() string { return "element " + e.selector + " not showing" }
