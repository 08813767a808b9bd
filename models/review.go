package models

import "strconv"

// DateLayout is the normalized review date format (DD/MM/YYYY).
const DateLayout = "02/01/2006"

// unknownRatingText is what an unparseable rating is written as.
const unknownRatingText = "?"

// Rating is a review score. The zero value is the unknown sentinel, which is
// distinct from a valid score of 0.
type Rating struct {
	value float64
	known bool
}

// NewRating returns a known rating.
func NewRating(v float64) Rating {
	return Rating{value: v, known: true}
}

// UnknownRating returns the sentinel used when the rating label could not be parsed.
func UnknownRating() Rating {
	return Rating{}
}

// Value returns the score and whether it is known.
func (r Rating) Value() (float64, bool) {
	return r.value, r.known
}

// Known reports whether the rating was parsed successfully.
func (r Rating) Known() bool {
	return r.known
}

func (r Rating) String() string {
	if !r.known {
		return unknownRatingText
	}
	return strconv.FormatFloat(r.value, 'f', 1, 64)
}

// ReviewRecord is one review extracted from a listing card.
// Every field is always written, empty strings stand in for absent values.
type ReviewRecord struct {
	Title    string
	Comment  string
	Date     string
	Rating   Rating
	Local    string
	Category string
}

// ReviewColumns is the fixed column order of every output sink.
var ReviewColumns = []string{"title", "comment", "date", "rating", "local", "category"}

// Row returns the record's fields in ReviewColumns order.
func (r ReviewRecord) Row() []string {
	return []string{r.Title, r.Comment, r.Date, r.Rating.String(), r.Local, r.Category}
}
