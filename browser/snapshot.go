package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// SnapshotSession replays saved HTML pages through the Session contract.
// Clicking an element matching the next-page selector moves to the following
// page. Clicking anything else dismisses it: the closest ancestor matching a
// dismissible selector is removed, or the element itself when none matches.
type SnapshotSession struct {
	pages        []string
	index        int
	generation   int
	doc          *goquery.Document
	nextSelector string
	dismissible  []string
	closed       bool
}

type snapshotElement struct {
	sel        *goquery.Selection
	generation int
}

// NewSnapshotSession creates a session over pages, in order.
func NewSnapshotSession(pages []string, nextSelector string, dismissible ...string) *SnapshotSession {
	return &SnapshotSession{
		pages:        pages,
		nextSelector: nextSelector,
		dismissible:  dismissible,
	}
}

// LoadSnapshotDir reads every *.html file in dir, sorted by file name.
func LoadSnapshotDir(dir, nextSelector string, dismissible ...string) (*SnapshotSession, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read dir %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("snapshot: no .html pages in %q", dir)
	}

	pages := make([]string, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("snapshot: read %q: %w", name, err)
		}
		pages = append(pages, string(data))
	}
	return NewSnapshotSession(pages, nextSelector, dismissible...), nil
}

// PageIndex returns the zero-based index of the page currently shown.
func (s *SnapshotSession) PageIndex() int {
	return s.index
}

func (s *SnapshotSession) load(i int) error {
	if i < 0 || i >= len(s.pages) {
		return fmt.Errorf("snapshot: no page %d (have %d)", i+1, len(s.pages))
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.pages[i]))
	if err != nil {
		return fmt.Errorf("snapshot: parse page %d: %w", i+1, err)
	}
	s.index = i
	s.doc = doc
	s.generation++
	return nil
}

func (s *SnapshotSession) Open(url string) error {
	if s.closed {
		return fmt.Errorf("snapshot: open %s: session closed", url)
	}
	return s.load(0)
}

func (s *SnapshotSession) scope(el Element) (*goquery.Selection, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("snapshot: no page open")
	}
	if el == nil {
		return s.doc.Selection, nil
	}
	e, ok := el.(*snapshotElement)
	if !ok || e.generation != s.generation {
		return nil, ErrStaleElement
	}
	return e.sel, nil
}

func (s *SnapshotSession) wrap(sel *goquery.Selection) *snapshotElement {
	return &snapshotElement{sel: sel, generation: s.generation}
}

func (s *SnapshotSession) FindOne(scope Element, selector string) (Element, Outcome, error) {
	root, err := s.scope(scope)
	if err != nil {
		return nil, NotFound, err
	}
	match := root.Find(selector).First()
	if match.Length() == 0 {
		return nil, NotFound, nil
	}
	return s.wrap(match), Found, nil
}

func (s *SnapshotSession) FindAll(scope Element, selector string) ([]Element, error) {
	root, err := s.scope(scope)
	if err != nil {
		return nil, err
	}
	var out []Element
	root.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, s.wrap(sel))
	})
	return out, nil
}

func (s *SnapshotSession) Click(el Element) error {
	if el == nil {
		return fmt.Errorf("snapshot: click on nil element")
	}
	sel, err := s.scope(el)
	if err != nil {
		return err
	}

	if s.nextSelector != "" && sel.Is(s.nextSelector) {
		return s.load(s.index + 1)
	}

	for _, container := range s.dismissible {
		if c := sel.Closest(container); c.Length() > 0 {
			c.Remove()
			return nil
		}
	}
	sel.Remove()
	return nil
}

// WaitFor never blocks: a saved page is either complete or it is not.
func (s *SnapshotSession) WaitFor(selector string, _ time.Duration) (Outcome, error) {
	root, err := s.scope(nil)
	if err != nil {
		return Timeout, err
	}
	if root.Find(selector).Length() > 0 {
		return Found, nil
	}
	return Timeout, nil
}

func (s *SnapshotSession) Text(el Element) (string, error) {
	sel, err := s.scope(el)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sel.Text()), nil
}

func (s *SnapshotSession) Attribute(el Element, name string) (string, bool, error) {
	sel, err := s.scope(el)
	if err != nil {
		return "", false, err
	}
	v, ok := sel.Attr(name)
	return v, ok, nil
}

func (s *SnapshotSession) Close() error {
	s.closed = true
	s.doc = nil
	return nil
}
