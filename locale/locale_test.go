package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGet(t *testing.T, code string) *Locale {
	t.Helper()
	l, err := Get(code)
	require.NoError(t, err)
	return l
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		locale  string
		raw     string
		want    string
		wantErr bool
	}{
		{"english", "en", "Written March 3, 2021", "03/03/2021", false},
		{"english abbreviated", "en", "Written Sept 21, 2019", "21/09/2019", false},
		{"portuguese", "pt", "Feita em 3 de março de 2021", "03/03/2021", false},
		{"portuguese capitalised", "pt", "Feita em 15 de Dezembro de 2022", "15/12/2022", false},
		{"portuguese abbreviated", "pt", "Feita em 1 de fev. de 2020", "01/02/2020", false},
		{"extra whitespace", "pt", "  Feita em 3 de\nmarço de 2021 ", "03/03/2021", false},
		{"wrong locale phrase", "pt", "Written March 3, 2021", "", true},
		{"unknown month", "en", "Written Marzo 3, 2021", "", true},
		{"impossible day", "en", "Written February 30, 2021", "", true},
		{"empty", "en", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustGet(t, tt.locale).ParseDate(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		name      string
		locale    string
		raw       string
		want      float64
		wantKnown bool
	}{
		{"english", "en", "4.5 of 5 bubbles", 4.5, true},
		{"portuguese", "pt", "4,5 de 5 círculos", 4.5, true},
		{"portuguese whole", "pt", "5,0 de 5 círculos", 5.0, true},
		{"zero is a real score", "pt", "0,0 de 5 círculos", 0, true},
		{"other locale label", "pt", "4.5 of 5 bubbles", 0, false},
		{"garbage", "en", "great", 0, false},
		{"empty", "en", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustGet(t, tt.locale).ParseRating(tt.raw)
			val, known := got.Value()
			assert.Equal(t, tt.wantKnown, known)
			if tt.wantKnown {
				require.NoError(t, err)
				assert.Equal(t, tt.want, val)
			} else {
				assert.Error(t, err)
				assert.Equal(t, "?", got.String())
			}
		})
	}
}

func TestParseReviewCount(t *testing.T) {
	pt := mustGet(t, "pt")
	n, err := pt.ParseReviewCount("Mostrando resultados 1-10 de 4.383 resultados")
	require.NoError(t, err)
	assert.Equal(t, 4383, n)

	en := mustGet(t, "en")
	n, err = en.ParseReviewCount("Showing results 1-10 of 12,031 results")
	require.NoError(t, err)
	assert.Equal(t, 12031, n)

	_, err = pt.ParseReviewCount("carregando...")
	assert.Error(t, err)
}

func TestParseLocal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Curitiba, PR12 contribuições", "Curitiba, PR"},
		{"São Paulo, SP 3 contribuições", "São Paulo, SP"},
		{"Curitiba, PR", "Curitiba, PR"},
		{"Rio de Janeiro, RJ • 3 contribuições", "Rio de Janeiro, RJ"},
		{"12 contribuições", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ParseLocal(tt.raw); got != tt.want {
			t.Errorf("ParseLocal(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"mar de 2021 • Família", "Família"},
		{"Sep 2019 • Couples", "Couples"},
		{"mar de 2021", ""},
	}

	for _, tt := range tests {
		if got := ParseCategory(tt.raw); got != tt.want {
			t.Errorf("ParseCategory(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestGetUnknownLocale(t *testing.T) {
	_, err := Get("fr")
	assert.Error(t, err)
}
