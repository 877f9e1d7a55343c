package pdftext

import (
	"strings"
	"testing"
)

func TestExtract_RejectsGarbage(t *testing.T) {
	if _, err := Extract([]byte("not a pdf at all")); err == nil {
		t.Error("expected error for non-PDF input")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"under limit", "short text", 100, "short text"},
		{"zero limit", "anything", 0, ""},
		{"cuts at word boundary", "alpha beta gamma delta", 17, "alpha beta gamma"},
		{"no boundary near limit", strings.Repeat("x", 50), 10, "xxxxxxxxxx"},
		{"exact limit", "12345", 5, "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.limit); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.limit, got, tt.want)
			}
		})
	}
}
