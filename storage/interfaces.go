package storage

import "review-scraper/models"

// ReviewSink is the interface any storage backend must satisfy.
// WriteBatch appends; it never rewrites rows written by an earlier call.
type ReviewSink interface {
	WriteBatch(records []models.ReviewRecord) error
	Close() error
}
