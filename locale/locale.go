// Package locale parses the locale-dependent text of a review listing:
// written dates, rating labels and the pagination summary.
package locale

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"review-scraper/models"
	"review-scraper/utils"
)

var (
	// localRegexp captures the origin, which is followed by the contribution
	// counter or nothing, e.g. "Curitiba, PR12 contribuições" -> "Curitiba, PR".
	localRegexp = regexp.MustCompile(`^(\p{L}[\p{L}\p{M} ,.'-]*?)[\s,•]*(?:\d|$)`)
	// categoryRegexp captures the trip type after the bullet, e.g. "mar de 2021 • Família".
	categoryRegexp = regexp.MustCompile(`^.*• (.*)$`)
)

// Locale holds the phrase templates of one display language.
type Locale struct {
	Code string

	datePattern   *regexp.Regexp
	months        map[string]time.Month
	ratingPattern *regexp.Regexp
	countPattern  *regexp.Regexp
	thousandsSep  string
}

var locales = map[string]*Locale{
	"pt": {
		Code:        "pt",
		datePattern: regexp.MustCompile(`^Feita em (?P<day>\d{1,2}) de (?P<month>\p{L}+)\.? de (?P<year>\d{4})$`),
		months: monthTable(
			[]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho",
				"julho", "agosto", "setembro", "outubro", "novembro", "dezembro"},
			[]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
		),
		ratingPattern: regexp.MustCompile(`^(\d(?:[.,]\d)?) de \d círculos?$`),
		countPattern:  regexp.MustCompile(`^Mostrando.* de (.+) resultados$`),
		thousandsSep:  ".",
	},
	"en": {
		Code:        "en",
		datePattern: regexp.MustCompile(`^Written (?P<month>\p{L}+)\.? (?P<day>\d{1,2}), (?P<year>\d{4})$`),
		months: monthTable(
			[]string{"january", "february", "march", "april", "may", "june",
				"july", "august", "september", "october", "november", "december"},
			[]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"},
		),
		ratingPattern: regexp.MustCompile(`^(\d(?:[.,]\d)?) of \d bubbles?$`),
		countPattern:  regexp.MustCompile(`^Showing.* of (.+) results$`),
		thousandsSep:  ",",
	},
}

func monthTable(names ...[]string) map[string]time.Month {
	m := make(map[string]time.Month)
	for _, set := range names {
		for i, name := range set {
			m[name] = time.Month(i + 1)
		}
	}
	m["sept"] = time.September
	return m
}

// Get returns the locale registered under code.
func Get(code string) (*Locale, error) {
	l, ok := locales[strings.ToLower(code)]
	if !ok {
		return nil, fmt.Errorf("locale: unsupported locale %q", code)
	}
	return l, nil
}

// Codes lists the supported locale codes.
func Codes() []string {
	return []string{"en", "pt"}
}

// ParseDate converts a written-date phrase into models.DateLayout.
func (l *Locale) ParseDate(raw string) (string, error) {
	text := utils.NormaliseText(raw)
	match := l.datePattern.FindStringSubmatch(text)
	if match == nil {
		return "", fmt.Errorf("locale %s: date %q does not match the expected phrase", l.Code, raw)
	}

	day, _ := strconv.Atoi(match[l.datePattern.SubexpIndex("day")])
	year, _ := strconv.Atoi(match[l.datePattern.SubexpIndex("year")])
	monthName := strings.ToLower(match[l.datePattern.SubexpIndex("month")])
	month, ok := l.months[monthName]
	if !ok {
		return "", fmt.Errorf("locale %s: unknown month %q in date %q", l.Code, monthName, raw)
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return "", fmt.Errorf("locale %s: invalid day %d in date %q", l.Code, day, raw)
	}
	return t.Format(models.DateLayout), nil
}

// ParseRating reads a rating label such as "4,5 de 5 círculos". On mismatch it
// returns the unknown sentinel together with an error describing the label.
func (l *Locale) ParseRating(raw string) (models.Rating, error) {
	match := l.ratingPattern.FindStringSubmatch(utils.NormaliseText(raw))
	if len(match) < 2 {
		return models.UnknownRating(), fmt.Errorf("locale %s: rating label %q not recognised", l.Code, raw)
	}
	val, err := strconv.ParseFloat(strings.Replace(match[1], ",", ".", 1), 64)
	if err != nil {
		return models.UnknownRating(), fmt.Errorf("locale %s: rating %q: %w", l.Code, raw, err)
	}
	return models.NewRating(val), nil
}

// ParseReviewCount reads the total from the pagination summary,
// e.g. "Mostrando resultados 1-10 de 4.383 resultados" -> 4383.
func (l *Locale) ParseReviewCount(raw string) (int, error) {
	match := l.countPattern.FindStringSubmatch(utils.NormaliseText(raw))
	if len(match) < 2 {
		return 0, fmt.Errorf("locale %s: pagination summary %q not recognised", l.Code, raw)
	}
	digits := strings.ReplaceAll(strings.TrimSpace(match[1]), l.thousandsSep, "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("locale %s: review count %q: %w", l.Code, match[1], err)
	}
	return n, nil
}

// ParseLocal extracts the reviewer's origin. Text that starts with the
// contribution counter carries no origin and yields "".
func ParseLocal(raw string) string {
	match := localRegexp.FindStringSubmatch(utils.NormaliseText(raw))
	if len(match) < 2 {
		return ""
	}
	return strings.TrimRight(match[1], " ,")
}

// ParseCategory extracts the tag after the bullet of a composite label.
func ParseCategory(raw string) string {
	match := categoryRegexp.FindStringSubmatch(utils.NormaliseText(raw))
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}
