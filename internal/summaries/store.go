// Package summaries loads externally produced attachment summaries into an
// in-memory lookup keyed by historyId. The records are treated as opaque
// read-only input: this package never interprets summary text.
package summaries

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Processing is the cost accounting attached to a summary by its producer.
type Processing struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

// PdfSummary is one externally produced summary record. HistoryID is the
// self-described join key; everything else is carried through untouched.
type PdfSummary struct {
	HistoryID        string     `json:"historyId"`
	CouncilFile      string     `json:"council_file,omitempty"`
	MeetingID        int        `json:"meeting_id,omitempty"`
	OriginalFilename string     `json:"original_filename,omitempty"`
	Category         string     `json:"category,omitempty"`
	Summary          string     `json:"summary"`
	Processing       Processing `json:"processing"`
}

// Store is the read-only in-memory mapping historyId -> summary. Once built
// it may be shared freely across goroutines.
type Store struct {
	byHistoryID map[string]PdfSummary
}

// Load builds a Store from every *.json record at the root of fsys. Records
// are folded in ascending filename order so that duplicate historyId keys
// resolve deterministically (last wins). Records that do not parse or lack a
// historyId are skipped with a warning; they never fail the load.
func Load(fsys fs.FS) (*Store, error) {
	s := &Store{byHistoryID: make(map[string]PdfSummary)}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading summary store: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			slog.Warn("skipping unreadable summary record", "file", entry.Name(), "error", err)
			continue
		}
		var sum PdfSummary
		if err := json.Unmarshal(data, &sum); err != nil {
			slog.Warn("skipping malformed summary record", "file", entry.Name(), "error", err)
			continue
		}
		if sum.HistoryID == "" {
			slog.Warn("skipping summary record without historyId", "file", entry.Name())
			continue
		}
		s.byHistoryID[sum.HistoryID] = sum
	}

	return s, nil
}

// LoadDir loads a Store from a directory on disk. An absent directory is not
// an error: it yields an empty store with a warning, and aggregation runs
// with zero enrichment.
func LoadDir(dir string) (*Store, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		slog.Warn("no summary store directory, continuing without summaries", "dir", dir)
		return Empty(), nil
	}
	return Load(os.DirFS(dir))
}

// Empty returns a Store with no records.
func Empty() *Store {
	return &Store{byHistoryID: make(map[string]PdfSummary)}
}

// Get returns the summary for a historyId, if one was loaded.
func (s *Store) Get(historyID string) (PdfSummary, bool) {
	sum, ok := s.byHistoryID[historyID]
	return sum, ok
}

// Len reports the number of loaded summary records.
func (s *Store) Len() int {
	return len(s.byHistoryID)
}
