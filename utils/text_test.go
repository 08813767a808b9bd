package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"accents and spaces", "Jardim Botânico de Curitiba", "JardimBotanicodeCuritiba"},
		{"cedilla and tilde", "Praça São João", "PracaSaoJoao"},
		{"path separators", "Parque / Bosque: Alemão", "ParqueBosqueAlemao"},
		{"only symbols", "???", "target"},
		{"empty", "", "target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(tt.title); got != tt.want {
				t.Errorf("FileName(%q) = %q; want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNormaliseText(t *testing.T) {
	got := NormaliseText("  Lindo   lugar\n\tpara   visitar ")
	if got != "Lindo lugar para visitar" {
		t.Errorf("NormaliseText = %q", got)
	}
}

func TestLoggerWithPrefixAndDebugGate(t *testing.T) {
	var out bytes.Buffer
	l := NewLoggerTo(&out, &out, false).With("Parque 100%")

	l.Info("pages: %d", 3)
	l.Debug("hidden")

	s := out.String()
	if !strings.Contains(s, "[Parque 100%] pages: 3") {
		t.Errorf("log output missing prefixed line: %q", s)
	}
	if strings.Contains(s, "hidden") {
		t.Errorf("debug line emitted with debug disabled: %q", s)
	}
}
