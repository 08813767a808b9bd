package scraper

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"review-scraper/browser"
	"review-scraper/config"
	"review-scraper/locale"
	"review-scraper/models"
	"review-scraper/utils"
)

type card struct {
	title    string
	comment  string
	date     string
	rating   string
	local    string
	category string
}

func goodCard(i int) card {
	return card{
		title:    fmt.Sprintf("Passeio %d", i),
		comment:  fmt.Sprintf("Comentário número %d", i),
		date:     "Feita em 3 de março de 2021",
		rating:   "4,5 de 5 círculos",
		local:    "Curitiba, PR12 contribuições",
		category: "mar de 2021 • Família",
	}
}

func (c card) html() string {
	var b strings.Builder
	b.WriteString(`<div data-automation="reviewCard">`)
	if c.local != "" {
		fmt.Fprintf(&b, `<div class="JINyA">%s</div>`, c.local)
	}
	if c.rating != "" {
		fmt.Fprintf(&b, `<svg class="UctUV d H0" aria-label="%s"></svg>`, c.rating)
	}
	if c.title != "" {
		fmt.Fprintf(&b, `<a class="BMQDV _F Gv wSSLS SwZTJ FGwzt ukgoS" href="#"><span>%s</span></a>`, c.title)
	}
	if c.category != "" {
		fmt.Fprintf(&b, `<div class="RpeCd">%s</div>`, c.category)
	}
	if c.comment != "" {
		fmt.Fprintf(&b, `<div class="biGQs _P pZUbB KxBGd"><span class="JguWG">%s</span></div>`, c.comment)
	}
	if c.date != "" {
		fmt.Fprintf(&b, `<div class="biGQs _P pZUbB ncFvv osNWb">%s</div>`, c.date)
	}
	b.WriteString(`</div>`)
	return b.String()
}

type page struct {
	title   string
	summary string
	cards   []card
	hasNext bool
	extra   string
}

// html renders a listing page. As on the live site, the pagination block is
// the last element matched by the card selector.
func (p page) html() string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	if p.title != "" {
		fmt.Fprintf(&b, `<h1 data-automation="mainH1">%s</h1>`, p.title)
	}
	b.WriteString(p.extra)
	for _, c := range p.cards {
		b.WriteString(c.html())
	}
	b.WriteString(`<div data-automation="reviewCard">`)
	if p.summary != "" {
		fmt.Fprintf(&b, `<div class="Ci">%s</div>`, p.summary)
	}
	if p.hasNext {
		b.WriteString(`<a data-smoke-attr="pagination-next-arrow" href="#">Próxima</a>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

const (
	bottomAd = `<div class="ZHIlj E s f e"><p>Reserve já</p><button type="button" aria-label="Close ad">x</button></div>`
	consent  = `<div id="onetrust-banner"><button id="onetrust-accept-btn-handler">Aceitar</button></div>`
)

func snapshot(pages ...page) *browser.SnapshotSession {
	rendered := make([]string, len(pages))
	for i, p := range pages {
		rendered[i] = p.html()
	}
	sel := config.DefaultSelectors()
	return browser.NewSnapshotSession(rendered, sel.Page.NextPage, sel.Obstacles[0].Container, "#onetrust-banner")
}

func quietLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, io.Discard, false) }

func testOptions(t *testing.T) Options {
	t.Helper()
	loc, err := locale.Get("pt")
	require.NoError(t, err)
	return Options{
		Selectors: config.DefaultSelectors(),
		Locale:    loc,
		Retry:     &utils.RetryConfig{MaxAttempts: 3},
	}
}

type collector struct {
	records []models.ReviewRecord
}

func (c *collector) Append(r models.ReviewRecord) { c.records = append(c.records, r) }
func (c *collector) MaybeFlush() bool             { return false }
