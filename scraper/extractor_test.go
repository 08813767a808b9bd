package scraper

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-scraper/models"
)

func newTestExtractor(t *testing.T, p page) (*Extractor, func()) {
	t.Helper()
	s := snapshot(p)
	require.NoError(t, s.Open("replay://listing"))
	opts := testOptions(t)
	return NewExtractor(s, opts.Selectors, opts.Locale, quietLogger()), func() { s.Close() }
}

func TestExtractPageIgnoresPaginationBlock(t *testing.T) {
	tests := []struct {
		name  string
		cards int
	}{
		{"only pagination block", 0},
		{"one review", 1},
		{"full page", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := page{summary: "Mostrando resultados 1-10 de 10 resultados"}
			for i := 0; i < tt.cards; i++ {
				p.cards = append(p.cards, goodCard(i))
			}
			e, done := newTestExtractor(t, p)
			defer done()

			result, err := e.ExtractPage()
			require.NoError(t, err)
			assert.Equal(t, tt.cards, result.Cards)
			assert.Len(t, result.Records, tt.cards)
			assert.Zero(t, result.Skipped)
		})
	}
}

func TestExtractPageNoCards(t *testing.T) {
	s := snapshot(page{})
	require.NoError(t, s.Open("replay://listing"))
	opts := testOptions(t)
	e := NewExtractor(s, opts.Selectors, opts.Locale, quietLogger())

	// Remove the pagination block too, leaving no card at all.
	block, _, err := s.FindOne(nil, opts.Selectors.Page.Cards)
	require.NoError(t, err)
	require.NoError(t, s.Click(block))

	result, err := e.ExtractPage()
	require.NoError(t, err)
	assert.Zero(t, result.Cards)
	assert.Empty(t, result.Records)
}

func TestExtractCardFields(t *testing.T) {
	e, done := newTestExtractor(t, page{cards: []card{goodCard(1)}})
	defer done()

	result, err := e.ExtractPage()
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	want := models.ReviewRecord{
		Title:    "Passeio 1",
		Comment:  "Comentário número 1",
		Date:     "03/03/2021",
		Rating:   models.NewRating(4.5),
		Local:    "Curitiba, PR",
		Category: "Família",
	}
	if diff := cmp.Diff(want, result.Records[0], cmp.AllowUnexported(models.Rating{})); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractCardUnknownRatingKeepsRecord(t *testing.T) {
	noLabel := goodCard(2)
	noLabel.rating = "sem avaliação"
	noElement := goodCard(3)
	noElement.rating = ""

	e, done := newTestExtractor(t, page{cards: []card{noLabel, noElement}})
	defer done()

	result, err := e.ExtractPage()
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	for _, r := range result.Records {
		assert.False(t, r.Rating.Known())
		assert.Equal(t, "?", r.Rating.String())
	}
}

func TestExtractCardOptionalFieldsEmpty(t *testing.T) {
	c := goodCard(4)
	c.local = "8 contribuições"
	c.category = ""

	e, done := newTestExtractor(t, page{cards: []card{c}})
	defer done()

	result, err := e.ExtractPage()
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Empty(t, result.Records[0].Local)
	assert.Empty(t, result.Records[0].Category)
}

func TestExtractCardFailuresAreSkipped(t *testing.T) {
	badDate := goodCard(1)
	badDate.date = "Feita ontem"
	noTitle := goodCard(2)
	noTitle.title = ""

	e, done := newTestExtractor(t, page{cards: []card{goodCard(0), badDate, noTitle, goodCard(3)}})
	defer done()

	result, err := e.ExtractPage()
	require.NoError(t, err)
	assert.Equal(t, 4, result.Cards)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "Passeio 0", result.Records[0].Title)
	assert.Equal(t, "Passeio 3", result.Records[1].Title)
}

func TestExtractCardReportsField(t *testing.T) {
	badDate := goodCard(1)
	badDate.date = "Feita em 31 de fevereiro de 2021"

	s := snapshot(page{cards: []card{badDate}})
	require.NoError(t, s.Open("replay://listing"))
	opts := testOptions(t)
	e := NewExtractor(s, opts.Selectors, opts.Locale, quietLogger())

	cards, err := s.FindAll(nil, opts.Selectors.Page.Cards)
	require.NoError(t, err)
	_, err = e.ExtractCard(0, cards[0])

	var cardErr *CardError
	require.True(t, errors.As(err, &cardErr))
	assert.Equal(t, "date", cardErr.Field)
	assert.Equal(t, 0, cardErr.Index)
}

func TestExtractPageIsIdempotent(t *testing.T) {
	p := page{cards: []card{goodCard(0), goodCard(1), goodCard(2)}}
	p.cards[1].title = "  Muito   bonito  "
	e, done := newTestExtractor(t, p)
	defer done()

	first, err := e.ExtractPage()
	require.NoError(t, err)
	second, err := e.ExtractPage()
	require.NoError(t, err)

	if diff := cmp.Diff(first.Records, second.Records, cmp.AllowUnexported(models.Rating{})); diff != "" {
		t.Errorf("re-extraction changed records (-first +second):\n%s", diff)
	}
	assert.Equal(t, "Muito bonito", first.Records[1].Title)
}
