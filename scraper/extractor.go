package scraper

import (
	"fmt"
	"strings"

	"review-scraper/browser"
	"review-scraper/config"
	"review-scraper/locale"
	"review-scraper/models"
	"review-scraper/utils"
)

// CardError reports a review card that could not be turned into a record.
type CardError struct {
	Index int
	Field string
	Err   error
}

func (e *CardError) Error() string {
	return fmt.Sprintf("card %d: %s: %v", e.Index, e.Field, e.Err)
}

func (e *CardError) Unwrap() error {
	return e.Err
}

// PageResult is what the extractor got out of one rendered page.
type PageResult struct {
	Records []models.ReviewRecord
	Cards   int
	Skipped int
}

// Extractor reads review records from the cards of the current page.
// It only queries the session, it never clicks or navigates.
type Extractor struct {
	session   browser.Session
	selectors *config.Selectors
	locale    *locale.Locale
	logger    *utils.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(session browser.Session, selectors *config.Selectors, loc *locale.Locale, logger *utils.Logger) *Extractor {
	return &Extractor{session: session, selectors: selectors, locale: loc, logger: logger}
}

// ExtractPage converts every data card on the current page. The last element
// matched by the card selector is the pagination block and is not a review.
// Cards that fail are logged and skipped; an error is only returned when the
// card list itself cannot be read.
func (e *Extractor) ExtractPage() (PageResult, error) {
	cards, err := e.session.FindAll(nil, e.selectors.Page.Cards)
	if err != nil {
		return PageResult{}, fmt.Errorf("list review cards: %w", err)
	}
	if len(cards) == 0 {
		e.logger.Warn("[extractor] No review cards on page")
		return PageResult{}, nil
	}

	data := cards[:len(cards)-1]
	result := PageResult{
		Records: make([]models.ReviewRecord, 0, len(data)),
		Cards:   len(data),
	}

	for i, card := range data {
		rec, err := e.ExtractCard(i, card)
		if err != nil {
			result.Skipped++
			e.logger.Warn("[extractor] Skipping review: %v", err)
			continue
		}
		result.Records = append(result.Records, rec)
	}

	e.logger.Debug("[extractor] %d cards, %d reviews, %d skipped",
		result.Cards, len(result.Records), result.Skipped)
	return result, nil
}

// ExtractCard reads one card. Title, comment and a parseable date are required;
// an unreadable rating becomes the unknown sentinel and a missing origin or
// category becomes "".
func (e *Extractor) ExtractCard(index int, card browser.Element) (models.ReviewRecord, error) {
	sel := e.selectors.Review

	title, err := e.requiredText(index, card, "title", sel.Title)
	if err != nil {
		return models.ReviewRecord{}, err
	}
	comment, err := e.requiredText(index, card, "comment", sel.Comment)
	if err != nil {
		return models.ReviewRecord{}, err
	}
	rawDate, err := e.requiredText(index, card, "date", sel.Date)
	if err != nil {
		return models.ReviewRecord{}, err
	}
	date, err := e.locale.ParseDate(rawDate)
	if err != nil {
		return models.ReviewRecord{}, &CardError{Index: index, Field: "date", Err: err}
	}

	return models.ReviewRecord{
		Title:    utils.NormaliseText(title),
		Comment:  strings.TrimSpace(comment),
		Date:     date,
		Rating:   e.rating(index, card),
		Local:    locale.ParseLocal(e.optionalText(card, sel.Local)),
		Category: locale.ParseCategory(e.optionalText(card, sel.Category)),
	}, nil
}

func (e *Extractor) requiredText(index int, card browser.Element, field, selector string) (string, error) {
	el, outcome, err := e.session.FindOne(card, selector)
	if err != nil {
		return "", &CardError{Index: index, Field: field, Err: err}
	}
	if outcome != browser.Found {
		return "", &CardError{Index: index, Field: field, Err: fmt.Errorf("element %q %s", selector, outcome)}
	}
	text, err := e.session.Text(el)
	if err != nil {
		return "", &CardError{Index: index, Field: field, Err: err}
	}
	return text, nil
}

func (e *Extractor) optionalText(card browser.Element, selector string) string {
	if selector == "" {
		return ""
	}
	el, outcome, err := e.session.FindOne(card, selector)
	if err != nil || outcome != browser.Found {
		return ""
	}
	text, err := e.session.Text(el)
	if err != nil {
		return ""
	}
	return text
}

func (e *Extractor) rating(index int, card browser.Element) models.Rating {
	sel := e.selectors.Review
	el, outcome, err := e.session.FindOne(card, sel.Rating)
	if err != nil || outcome != browser.Found {
		e.logger.Warn("[extractor] card %d: rating element missing, rating unknown", index)
		return models.UnknownRating()
	}
	label, _, err := e.session.Attribute(el, sel.RatingAttribute)
	if err != nil {
		e.logger.Warn("[extractor] card %d: read rating: %v", index, err)
		return models.UnknownRating()
	}
	rating, err := e.locale.ParseRating(label)
	if err != nil {
		e.logger.Warn("[extractor] card %d: %v", index, err)
	}
	return rating
}
