package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"review-scraper/models"
)

const reviewColumnCount = 10

// PostgresWriter mirrors extracted reviews into PostgreSQL. One writer is
// opened per run; ForTarget hands each dispatch task its own sink.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS reviews (
			id          SERIAL PRIMARY KEY,
			run_id      TEXT         NOT NULL,
			target      TEXT         NOT NULL,
			target_url  TEXT         NOT NULL,
			position    INTEGER      NOT NULL,
			title       TEXT         NOT NULL DEFAULT '',
			comment     TEXT         NOT NULL DEFAULT '',
			review_date VARCHAR(10)  NOT NULL DEFAULT '',
			rating      NUMERIC(3,1),
			local       TEXT         NOT NULL DEFAULT '',
			category    TEXT         NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_reviews_run_target ON reviews(run_id, target);
		CREATE INDEX IF NOT EXISTS idx_reviews_rating     ON reviews(rating);
	`)
	return err
}

// ForTarget returns a sink that appends one target's reviews under runID.
// Closing it leaves the shared connection open.
func (pw *PostgresWriter) ForTarget(runID string, target models.Target) ReviewSink {
	return &postgresTargetSink{pw: pw, runID: runID, target: target}
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

type postgresTargetSink struct {
	pw       *PostgresWriter
	runID    string
	target   models.Target
	position int
}

func (s *postgresTargetSink) WriteBatch(records []models.ReviewRecord) error {
	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		query, args := buildReviewInsert(s.runID, s.target, s.position, records[i:end])
		if _, err := s.pw.db.Exec(query, args...); err != nil {
			return fmt.Errorf("postgres: insert reviews for %s: %w", s.target.Label(), err)
		}
		s.position += end - i
	}
	return nil
}

func (s *postgresTargetSink) Close() error { return nil }

// buildReviewInsert renders a multi-row INSERT. Positions continue from start so
// rows keep extraction order across batches. Unknown ratings are stored as NULL.
func buildReviewInsert(runID string, target models.Target, start int, batch []models.ReviewRecord) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*reviewColumnCount)

	for idx, r := range batch {
		base := idx * reviewColumnCount
		placeholders := make([]string, reviewColumnCount)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		var rating sql.NullFloat64
		if v, ok := r.Rating.Value(); ok {
			rating = sql.NullFloat64{Float64: v, Valid: true}
		}
		valueArgs = append(valueArgs,
			runID, target.Label(), target.URL, start+idx,
			r.Title, r.Comment, r.Date, rating, r.Local, r.Category)
	}

	query := fmt.Sprintf(`
		INSERT INTO reviews (run_id, target, target_url, position, title, comment, review_date, rating, local, category)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}
