package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"review-scraper/browser"
	"review-scraper/config"
	"review-scraper/locale"
	"review-scraper/models"
	"review-scraper/scraper"
	"review-scraper/services"
	"review-scraper/storage"
	"review-scraper/utils"
)

const runDirLayout = "2006-01-02_15-04-05.000"

var rootCmd = &cobra.Command{
	Use:   "review-scraper [targets-file]",
	Short: "review-scraper extracts every review of a listing page into one CSV file per listing.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  run,
}

func init() {
	f := rootCmd.Flags()
	f.Int("threads", 1, "number of listings scraped in parallel (THREADS)")
	f.Bool("headless", false, "run the browser without a window (HEADLESS)")
	f.Int("threshold", 100, "reviews buffered before each write (SAVING_THRESHOLD)")
	f.String("locale", "pt", fmt.Sprintf("review display language, one of %v (LOCALE)", locale.Codes()))
	f.String("selectors", "", "YAML selector set replacing the built-in one (SELECTORS_FILE)")
	f.String("output", "./output", "parent directory of the run directories (OUTPUT_DIR)")
	f.String("replay", "", "scrape saved HTML pages, one sub-directory per listing, instead of a browser")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyFlags(cmd, cfg)
	if len(args) == 1 {
		cfg.TargetsFile = args[0]
	}

	selectors, err := config.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return err
	}
	loc, err := locale.Get(cfg.Locale)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	runID := runDirName(startedAt)
	runDir := filepath.Join(cfg.OutputDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	logger, logFile, err := utils.NewRunLogger(filepath.Join(runDir, "run.log"), cfg.Debug())
	if err != nil {
		return err
	}
	defer logFile.Close()

	logger.Info("=== Review scraper starting ===")
	logger.Info("Config: threads: %d | headless: %v | threshold: %d | locale: %s | selectors: %s v%d",
		cfg.Threads, cfg.Headless, cfg.SavingThreshold, loc.Code, selectors.Site, selectors.Version)

	var (
		targets    []models.Target
		newSession services.SessionFactory
		source     = cfg.TargetsFile
	)
	if cfg.ReplayDir != "" {
		source = cfg.ReplayDir
		targets, err = replayTargets(cfg.ReplayDir)
		newSession = replaySessions(cfg.ReplayDir, selectors)
		logger.Info("Replaying saved pages from %s", cfg.ReplayDir)
	} else {
		targets, err = readTargets(cfg.TargetsFile, logger)
		newSession = chromeSessions(cmd.Context(), cfg)
	}
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets to scrape in %s", source)
	}

	var pg *storage.PostgresWriter
	if cfg.PostgresDSN != "" {
		pg, err = storage.NewPostgresWriter(cfg.PostgresDSN)
		if err != nil {
			logger.Error("PostgreSQL mirror disabled: %v", err)
		} else {
			defer pg.Close()
			logger.Info("Mirroring reviews to PostgreSQL (table: reviews)")
		}
	}

	newSink := func(name string, target models.Target) (storage.ReviewSink, string, error) {
		path := filepath.Join(runDir, name+".csv")
		w, err := storage.NewCSVWriter(path)
		if err != nil {
			return nil, "", err
		}
		if pg == nil {
			return w, path, nil
		}
		return storage.MultiSink{w, pg.ForTarget(runID, target)}, path, nil
	}

	reporter := services.NewReporter(logger)
	dispatcher := services.NewDispatcher(services.DispatcherConfig{
		Threads:          cfg.Threads,
		LaunchIntervalMs: cfg.LaunchIntervalMs,
		SavingThreshold:  cfg.SavingThreshold,
		Controller: scraper.Options{
			Selectors:       selectors,
			Locale:          loc,
			PageLoadTimeout: cfg.PageLoadTimeout,
			CookieTimeout:   cfg.CookieTimeout,
			Retry: &utils.RetryConfig{
				MaxAttempts: cfg.MaxRetries,
				BaseDelay:   cfg.RetryBaseDelay,
				Logger:      logger,
			},
		},
		OnFlushError: func(target models.Target, err error) {
			logger.Error("\aReviews of %s were lost: %v", target.Label(), err)
		},
		OnDone: reporter.Add,
	}, newSession, newSink, logger)

	dispatcher.Dispatch(cmd.Context(), targets)

	reporter.Print()
	logger.Info("Done in %v. Output: %s", time.Since(startedAt).Round(time.Second), runDir)
	return nil
}

// runDirName names a run directory after its start time, to the millisecond.
func runDirName(t time.Time) string {
	return t.Format(runDirLayout)
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("threads") {
		cfg.Threads, _ = f.GetInt("threads")
	}
	if f.Changed("headless") {
		cfg.Headless, _ = f.GetBool("headless")
	}
	if f.Changed("threshold") {
		cfg.SavingThreshold, _ = f.GetInt("threshold")
	}
	if f.Changed("locale") {
		cfg.Locale, _ = f.GetString("locale")
	}
	if f.Changed("selectors") {
		cfg.SelectorsFile, _ = f.GetString("selectors")
	}
	if f.Changed("output") {
		cfg.OutputDir, _ = f.GetString("output")
	}
	if f.Changed("replay") {
		cfg.ReplayDir, _ = f.GetString("replay")
	}
}

func chromeSessions(ctx context.Context, cfg *config.Config) services.SessionFactory {
	return func(models.Target) (browser.Session, error) {
		return browser.NewChromeSession(ctx, browser.ChromeOptions{
			Headless:          cfg.Headless,
			ChromeBin:         cfg.ChromeBin,
			NavigationTimeout: cfg.NavigationTimeout,
		}), nil
	}
}

func replaySessions(dir string, selectors *config.Selectors) services.SessionFactory {
	dismissible := make([]string, 0, len(selectors.Obstacles))
	for _, o := range selectors.Obstacles {
		dismissible = append(dismissible, o.Container)
	}
	return func(target models.Target) (browser.Session, error) {
		s, err := browser.LoadSnapshotDir(filepath.Join(dir, replayName(target.URL)), selectors.Page.NextPage, dismissible...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
