package storage

import (
	"errors"

	"review-scraper/models"
)

// MultiSink writes every batch to each of its sinks. A failing sink does not
// stop the others from receiving the batch.
type MultiSink []ReviewSink

func (m MultiSink) WriteBatch(records []models.ReviewRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteBatch(records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
