// Package browser provides the rendered-DOM page sessions the scraper reads from.
package browser

import (
	"errors"
	"time"
)

// Outcome is the result of a lookup or wait. Lookups report absence as an
// outcome rather than an error so callers branch on it explicitly.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	Timeout
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Element is an opaque handle to a rendered node. It is only meaningful to the
// Session that returned it.
type Element interface{}

// ErrStaleElement is returned when an element handle no longer belongs to the
// session's current document.
var ErrStaleElement = errors.New("browser: stale element")

// Session is one rendered page, owned by a single goroutine.
// A nil scope means the whole document.
type Session interface {
	Open(url string) error
	FindOne(scope Element, selector string) (Element, Outcome, error)
	FindAll(scope Element, selector string) ([]Element, error)
	Click(el Element) error
	WaitFor(selector string, timeout time.Duration) (Outcome, error)
	Text(el Element) (string, error)
	Attribute(el Element, name string) (string, bool, error)
	Close() error
}
