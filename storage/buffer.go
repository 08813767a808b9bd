package storage

import (
	"review-scraper/models"
	"review-scraper/utils"
)

// Buffer accumulates one target's records and writes them to its sink in
// batches. It is owned by a single dispatch task and is not safe for
// concurrent use.
type Buffer struct {
	sink      ReviewSink
	threshold int
	batch     []models.ReviewRecord
	logger    *utils.Logger

	// OnFlushError, when set, is called after a failed flush has been logged.
	OnFlushError func(error)

	flushed int
	failed  int
}

// NewBuffer creates a Buffer that flushes once threshold records are pending.
func NewBuffer(sink ReviewSink, threshold int, logger *utils.Logger) *Buffer {
	if threshold < 1 {
		threshold = 1
	}
	return &Buffer{
		sink:      sink,
		threshold: threshold,
		batch:     make([]models.ReviewRecord, 0, threshold),
		logger:    logger,
	}
}

// Append adds a record to the pending batch.
func (b *Buffer) Append(r models.ReviewRecord) {
	b.batch = append(b.batch, r)
}

// Len returns the number of pending records.
func (b *Buffer) Len() int {
	return len(b.batch)
}

// MaybeFlush flushes when the pending batch has reached the threshold and
// reports whether it did.
func (b *Buffer) MaybeFlush() bool {
	if len(b.batch) < b.threshold {
		return false
	}
	b.flush()
	return true
}

// FlushRemaining writes whatever is pending, however small.
func (b *Buffer) FlushRemaining() {
	if len(b.batch) == 0 {
		return
	}
	b.flush()
}

// Flushed returns how many records reached the sink.
func (b *Buffer) Flushed() int {
	return b.flushed
}

// FailedFlushes returns how many flushes the sink rejected.
func (b *Buffer) FailedFlushes() int {
	return b.failed
}

// flush hands the batch to the sink and clears it whatever the outcome.
// A rejected batch is dropped so later pages can still be saved.
func (b *Buffer) flush() {
	n := len(b.batch)
	err := b.sink.WriteBatch(b.batch)
	b.batch = make([]models.ReviewRecord, 0, b.threshold)

	if err != nil {
		b.failed++
		b.logger.Error("[buffer] Failed to save %d reviews, batch dropped: %v", n, err)
		if b.OnFlushError != nil {
			b.OnFlushError(err)
		}
		return
	}
	b.flushed += n
	b.logger.Debug("[buffer] Saved %d reviews (%d total)", n, b.flushed)
}
