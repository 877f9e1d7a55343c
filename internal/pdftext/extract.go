// Package pdftext extracts plain text from attachment PDFs so they can be
// triaged and summarized.
package pdftext

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extract returns the concatenated plain text of every page. Pages that fail
// to decode (scanned images, broken font tables) are skipped with a warning;
// the document fails only when no page yields text.
func Extract(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var sb strings.Builder
	pages := reader.NumPage()
	decoded := 0
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("skipping undecodable pdf page", "page", i, "error", err)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
		decoded++
	}

	if pages > 0 && decoded == 0 {
		return "", fmt.Errorf("no readable text in %d pages", pages)
	}
	return sb.String(), nil
}

// Truncate limits text to at most limit runes, cutting at a word boundary
// when one is near the limit.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndexByte(cut, ' '); idx > limit/2 {
		cut = cut[:idx]
	}
	return cut
}
