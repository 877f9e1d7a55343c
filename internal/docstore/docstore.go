// Package docstore persists the pipeline's interchange documents as
// pretty-printed JSON files: one agenda document per meeting, one aggregate
// per council file, the index, and externally produced PDF summaries.
// Writes overwrite whole files; there are no partial updates.
package docstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"counciltrack/internal/agenda"
	"counciltrack/internal/aggregate"
	"counciltrack/internal/summaries"
)

const indexFilename = "index.json"

// Store is a JSON document store rooted at one data directory. All paths are
// explicit; nothing here is process-global.
type Store struct {
	agendasDir      string
	councilFilesDir string
	summariesDir    string
}

// New returns a Store using the conventional layout under dataDir:
// agendas/, councilfiles/ and pdf_summaries/. Directories are created on
// first write, not here.
func New(dataDir string) *Store {
	return &Store{
		agendasDir:      filepath.Join(dataDir, "agendas"),
		councilFilesDir: filepath.Join(dataDir, "councilfiles"),
		summariesDir:    filepath.Join(dataDir, "pdf_summaries"),
	}
}

// SummariesDir exposes the summary record directory for the summaries loader.
func (s *Store) SummariesDir() string {
	return s.summariesDir
}

func agendaFilename(meetingID int) string {
	return fmt.Sprintf("agenda_%d.json", meetingID)
}

// WriteAgenda persists one per-meeting document, replacing any previous
// parse of the same meeting.
func (s *Store) WriteAgenda(doc *agenda.Document) error {
	return writeJSON(filepath.Join(s.agendasDir, agendaFilename(doc.MeetingID)), doc)
}

// ReadAgenda loads the stored document for one meeting.
func (s *Store) ReadAgenda(meetingID int) (*agenda.Document, error) {
	var doc agenda.Document
	if err := readJSON(filepath.Join(s.agendasDir, agendaFilename(meetingID)), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadAgendas reads every stored per-meeting document in ascending filename
// order. A missing directory yields an empty set; an unreadable or
// malformed file is skipped with a warning and excluded from aggregation —
// one bad meeting never aborts the batch.
func (s *Store) LoadAgendas() ([]agenda.Document, error) {
	entries, err := os.ReadDir(s.agendasDir)
	if os.IsNotExist(err) {
		slog.Warn("no agendas directory, nothing to aggregate", "dir", s.agendasDir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading agendas directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var docs []agenda.Document
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "agenda_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		var doc agenda.Document
		if err := readJSON(filepath.Join(s.agendasDir, name), &doc); err != nil {
			slog.Warn("skipping unreadable agenda document", "file", name, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// WriteCouncilFile persists one aggregate record.
func (s *Store) WriteCouncilFile(cf aggregate.CouncilFile) error {
	return writeJSON(filepath.Join(s.councilFilesDir, cf.CouncilFile+".json"), cf)
}

// ReadCouncilFile loads the aggregate for one council file number.
func (s *Store) ReadCouncilFile(number string) (*aggregate.CouncilFile, error) {
	var cf aggregate.CouncilFile
	if err := readJSON(filepath.Join(s.councilFilesDir, number+".json"), &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// LoadCouncilFiles reads every stored aggregate, skipping the index.
func (s *Store) LoadCouncilFiles() ([]aggregate.CouncilFile, error) {
	entries, err := os.ReadDir(s.councilFilesDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading councilfiles directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var files []aggregate.CouncilFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == indexFilename || !strings.HasSuffix(name, ".json") {
			continue
		}
		var cf aggregate.CouncilFile
		if err := readJSON(filepath.Join(s.councilFilesDir, name), &cf); err != nil {
			slog.Warn("skipping unreadable council file record", "file", name, "error", err)
			continue
		}
		files = append(files, cf)
	}
	return files, nil
}

// WriteIndex persists the aggregate index.
func (s *Store) WriteIndex(idx aggregate.Index) error {
	return writeJSON(filepath.Join(s.councilFilesDir, indexFilename), idx)
}

// ReadIndex loads the aggregate index.
func (s *Store) ReadIndex() (*aggregate.Index, error) {
	var idx aggregate.Index
	if err := readJSON(filepath.Join(s.councilFilesDir, indexFilename), &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// WriteSummary persists one externally produced summary record into the
// store the summaries loader reads from.
func (s *Store) WriteSummary(sum summaries.PdfSummary) error {
	if sum.HistoryID == "" {
		return fmt.Errorf("summary record has no historyId")
	}
	return writeJSON(filepath.Join(s.summariesDir, sum.HistoryID+".json"), sum)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
