package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"review-scraper/browser"
	"review-scraper/models"
	"review-scraper/scraper"
	"review-scraper/storage"
	"review-scraper/utils"
)

// SessionFactory opens a fresh page session for one target.
type SessionFactory func(target models.Target) (browser.Session, error)

// SinkFactory creates the output sink for a target. name is the unique file
// stem reserved for it; the returned string is where the rows end up.
type SinkFactory func(name string, target models.Target) (storage.ReviewSink, string, error)

// DispatcherConfig holds the knobs shared by every target task.
type DispatcherConfig struct {
	Threads          int
	LaunchIntervalMs int
	SavingThreshold  int
	Controller       scraper.Options

	// OnFlushError is called when a target's sink rejects a batch.
	OnFlushError func(target models.Target, err error)
	// OnDone receives the report of every finished task. It may be called
	// from several goroutines at once.
	OnDone func(models.TargetReport)
}

// Dispatcher runs one isolated task per target on a bounded worker pool.
type Dispatcher struct {
	cfg        DispatcherConfig
	newSession SessionFactory
	newSink    SinkFactory
	logger     *utils.Logger
	names      *utils.StringSet
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig, newSession SessionFactory, newSink SinkFactory, logger *utils.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:        cfg,
		newSession: newSession,
		newSink:    newSink,
		logger:     logger,
		names:      utils.NewStringSet(),
	}
}

// Dispatch processes every target and returns once all tasks have finished.
// A failing target never affects the others and nothing is reported back
// beyond the OnDone callback.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []models.Target) {
	d.logger.Info("Dispatching %d targets on %d workers", len(targets), max(d.cfg.Threads, 1))

	pool := utils.NewWorkerPool(d.cfg.Threads, d.cfg.LaunchIntervalMs)
	for _, t := range targets {
		target := t
		pool.Submit(func() {
			report := d.process(ctx, target)
			if d.cfg.OnDone != nil {
				d.cfg.OnDone(report)
			}
		})
	}
	pool.Wait()
}

// process runs a single target. Deferred steps run in reverse order: pending
// rows are flushed, the sink and the session are closed, and a panic anywhere
// in between is turned into a failed report.
func (d *Dispatcher) process(ctx context.Context, target models.Target) (report models.TargetReport) {
	start := time.Now()
	report.Target = target
	report.FinalState = scraper.StateInit.String()
	log := d.logger.With(scraper.NameFromURL(target.URL))

	defer func() {
		if r := recover(); r != nil {
			report.Err = fmt.Errorf("panic: %v", r)
			report.FinalState = scraper.StateTerminated.String()
			log.Error("Target %s crashed: %v\n%s", target.URL, r, debug.Stack())
		}
		report.Elapsed = time.Since(start)
	}()

	session, err := d.newSession(target)
	if err != nil {
		report.Err = fmt.Errorf("start session: %w", err)
		report.FinalState = scraper.StateTerminated.String()
		log.Error("Could not start a session for %s: %v", target.URL, err)
		return report
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("Closing session: %v", err)
		}
	}()

	ctrl := scraper.NewController(session, target, d.cfg.Controller, log)
	if err := ctrl.Start(ctx); err != nil {
		report.Err = err
		report.FinalState = ctrl.State().State.String()
		log.Error("Could not open %s: %v", target.URL, err)
		return report
	}
	target = ctrl.Target()
	report.Target = target

	name := d.uniqueName(utils.FileName(target.Name))
	sink, path, err := d.newSink(name, target)
	if err != nil {
		report.Err = fmt.Errorf("create sink: %w", err)
		report.FinalState = scraper.StateTerminated.String()
		log.Error("Could not create output for %s: %v", target.Label(), err)
		return report
	}
	report.SinkPath = path
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warn("Closing %s: %v", path, err)
		}
	}()

	buf := storage.NewBuffer(sink, d.cfg.SavingThreshold, log)
	if d.cfg.OnFlushError != nil {
		buf.OnFlushError = func(err error) { d.cfg.OnFlushError(target, err) }
	}
	finished := false
	defer func() {
		buf.FlushRemaining()

		st := ctrl.State()
		report.Pages = st.Page
		report.Observed = st.ObservedCount
		report.Flushed = buf.Flushed()
		report.FailedFlush = buf.FailedFlushes()
		report.FinalState = st.State.String()

		switch {
		case !finished:
			// panicking, logged by the recover above
		case report.Err != nil:
			log.Error("%s stopped on page %d after %d reviews: %v",
				target.Label(), st.Page, st.ObservedCount, report.Err)
		default:
			log.Info("Finished %s: %d pages, %d reviews saved to %s",
				target.Label(), st.Page, report.Flushed, path)
		}
	}()

	report.Err = ctrl.Run(ctx, buf)
	finished = true
	return report
}

// uniqueName reserves base, or base_2, base_3... when it is already taken.
func (d *Dispatcher) uniqueName(base string) string {
	if d.names.Add(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if d.names.Add(candidate) {
			return candidate
		}
	}
}
