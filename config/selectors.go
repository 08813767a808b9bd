package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SelectorsVersion is the selector file layout this build understands.
const SelectorsVersion = 1

//go:embed selectors.yaml
var defaultSelectorsYAML []byte

// Selectors is the CSS selector set used to read a listing page.
type Selectors struct {
	Version   int                `yaml:"version"`
	Site      string             `yaml:"site"`
	Page      PageSelectors      `yaml:"page"`
	Consent   ConsentSelectors   `yaml:"consent"`
	Language  LanguageSelectors  `yaml:"language"`
	Obstacles []ObstacleSelector `yaml:"obstacles"`
	Review    ReviewSelectors    `yaml:"review"`
}

type PageSelectors struct {
	Title          string `yaml:"title"`
	PaginationInfo string `yaml:"pagination_info"`
	NextPage       string `yaml:"next_page"`
	Cards          string `yaml:"cards"`
}

type ConsentSelectors struct {
	Accept string `yaml:"accept"`
}

// LanguageSelectors opens the review language menu and picks an option.
// Option holds a single %s that is replaced with the locale code.
// An empty Selector disables language selection.
type LanguageSelectors struct {
	Selector string `yaml:"selector"`
	Option   string `yaml:"option"`
}

// ObstacleSelector describes an overlay that must be closed before extraction.
type ObstacleSelector struct {
	Name      string `yaml:"name"`
	Container string `yaml:"container"`
	Closer    string `yaml:"closer"`
}

// ReviewSelectors are evaluated relative to a single review card.
type ReviewSelectors struct {
	Title           string `yaml:"title"`
	Comment         string `yaml:"comment"`
	Date            string `yaml:"date"`
	Rating          string `yaml:"rating"`
	RatingAttribute string `yaml:"rating_attribute"`
	Local           string `yaml:"local"`
	Category        string `yaml:"category"`
}

// DefaultSelectors returns the built-in selector set.
func DefaultSelectors() *Selectors {
	s, err := ParseSelectors(defaultSelectorsYAML)
	if err != nil {
		panic(fmt.Sprintf("config: built-in selectors invalid: %v", err))
	}
	return s
}

// LoadSelectors reads a selector file, or returns the built-in set when path is empty.
func LoadSelectors(path string) (*Selectors, error) {
	if path == "" {
		return DefaultSelectors(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read selectors file: %w", err)
	}
	s, err := ParseSelectors(data)
	if err != nil {
		return nil, fmt.Errorf("selectors file %q: %w", path, err)
	}
	return s, nil
}

// ParseSelectors decodes and validates a YAML selector set.
func ParseSelectors(data []byte) (*Selectors, error) {
	var s Selectors
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse selectors: %w", err)
	}
	if s.Review.RatingAttribute == "" {
		s.Review.RatingAttribute = "aria-label"
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the version and that every required selector is set.
func (s *Selectors) Validate() error {
	if s.Version != SelectorsVersion {
		return fmt.Errorf("unsupported selectors version %d (want %d)", s.Version, SelectorsVersion)
	}

	required := []struct{ key, value string }{
		{"page.pagination_info", s.Page.PaginationInfo},
		{"page.next_page", s.Page.NextPage},
		{"page.cards", s.Page.Cards},
		{"review.title", s.Review.Title},
		{"review.comment", s.Review.Comment},
		{"review.date", s.Review.Date},
		{"review.rating", s.Review.Rating},
	}
	var errs []error
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("missing selector %s", r.key))
		}
	}
	if s.Language.Selector != "" && strings.Count(s.Language.Option, "%s") != 1 {
		errs = append(errs, errors.New("language.option must contain exactly one %s"))
	}
	for i, o := range s.Obstacles {
		if o.Container == "" || o.Closer == "" {
			errs = append(errs, fmt.Errorf("obstacle %d (%s) needs container and closer", i, o.Name))
		}
	}
	return errors.Join(errs...)
}

// LanguageOption returns the menu option selector for a locale code.
func (s *Selectors) LanguageOption(code string) string {
	return fmt.Sprintf(s.Language.Option, code)
}
