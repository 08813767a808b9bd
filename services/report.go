package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"review-scraper/models"
	"review-scraper/scraper"
	"review-scraper/utils"
)

// RunSummary aggregates the reports of one invocation.
type RunSummary struct {
	Targets       int
	Completed     int
	Failed        int
	Observed      int
	Flushed       int
	FailedFlushes int
	Slowest       *models.TargetReport
}

// Reporter collects per-target reports as tasks finish. It is safe for
// concurrent use so it can be handed to the dispatcher's OnDone hook.
type Reporter struct {
	logger *utils.Logger

	mu      sync.Mutex
	reports []models.TargetReport
}

func NewReporter(logger *utils.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Add records a finished target.
func (r *Reporter) Add(report models.TargetReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

// Reports returns the collected reports ordered by target label.
func (r *Reporter) Reports() []models.TargetReport {
	r.mu.Lock()
	out := append([]models.TargetReport(nil), r.reports...)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Target.Label() < out[j].Target.Label()
	})
	return out
}

func (r *Reporter) Summary() RunSummary {
	reports := r.Reports()
	s := RunSummary{Targets: len(reports)}
	for i := range reports {
		rep := &reports[i]
		if rep.Err == nil && rep.FinalState == scraper.StateDone.String() {
			s.Completed++
		} else {
			s.Failed++
		}
		s.Observed += rep.Observed
		s.Flushed += rep.Flushed
		s.FailedFlushes += rep.FailedFlush
		if s.Slowest == nil || rep.Elapsed > s.Slowest.Elapsed {
			s.Slowest = rep
		}
	}
	return s
}

// Render writes the summary table to w.
func (r *Reporter) Render(w io.Writer) {
	reports := r.Reports()
	summary := r.Summary()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Review scrape summary")
	t.AppendHeader(table.Row{"Target", "Pages", "Reviews", "Listed", "Saved", "Failed flushes", "Elapsed", "Outcome"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 40},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	for _, rep := range reports {
		t.AppendRow(table.Row{
			truncate(rep.Target.Label(), 40),
			rep.Pages,
			rep.Observed,
			listed(rep.Target.ExpectedCount),
			rep.Flushed,
			rep.FailedFlush,
			rep.Elapsed.Round(time.Second),
			outcome(rep),
		})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d targets (%d done, %d failed)", summary.Targets, summary.Completed, summary.Failed),
		"",
		summary.Observed,
		"",
		summary.Flushed,
		summary.FailedFlushes,
		"",
		"",
	})
	t.Render()
}

// Print writes the summary to stdout and the totals to the log.
func (r *Reporter) Print() {
	r.Render(os.Stdout)

	s := r.Summary()
	r.logger.Info("Run finished: %d/%d targets done, %d reviews saved", s.Completed, s.Targets, s.Flushed)
	if s.FailedFlushes > 0 {
		r.logger.Warn("%d batches could not be saved", s.FailedFlushes)
	}
}

func listed(n int) string {
	if n <= 0 {
		return "?"
	}
	return fmt.Sprint(n)
}

func outcome(rep models.TargetReport) string {
	if rep.Err == nil {
		return rep.FinalState
	}
	msg := rep.Err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return rep.FinalState + ": " + truncate(msg, 50)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
