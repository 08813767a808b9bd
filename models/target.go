package models

import "time"

// Target is one listing page (plus its pagination chain) to extract.
type Target struct {
	URL string

	// Name is the display title read from the rendered page. It is empty until
	// the controller has opened the target.
	Name string

	// ExpectedCount is the review count the page announces, read once when
	// processing starts. Zero means the count could not be read.
	ExpectedCount int
}

// Label identifies the target in log lines.
func (t Target) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.URL
}

// TargetReport summarizes how a single dispatch task ended.
type TargetReport struct {
	Target      Target
	SinkPath    string
	Pages       int
	Observed    int
	Flushed     int
	FailedFlush int
	Elapsed     time.Duration
	FinalState  string
	Err         error
}
