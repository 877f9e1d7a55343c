package summaries

import (
	"path/filepath"
	"testing"
	"testing/fstest"
)

func record(historyID, summary string) []byte {
	return []byte(`{
		"historyId": "` + historyID + `",
		"summary": "` + summary + `",
		"processing": {"model": "test-model", "input_tokens": 100, "output_tokens": 20, "cost_usd": 0.001}
	}`)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"abc-123.json": {Data: record("abc-123", "Staff report on housing")},
		"def-456.json": {Data: record("def-456", "Appeal findings")},
		"notes.txt":    {Data: []byte("not a summary")},
	}

	store, err := Load(fsys)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}

	sum, ok := store.Get("abc-123")
	if !ok {
		t.Fatal("abc-123 not found")
	}
	if sum.Summary != "Staff report on housing" {
		t.Errorf("Summary = %q", sum.Summary)
	}
	if sum.Processing.Model != "test-model" {
		t.Errorf("Processing.Model = %q", sum.Processing.Model)
	}

	if _, ok := store.Get("missing"); ok {
		t.Error("Get returned a record for an unknown historyId")
	}
}

func TestLoad_DuplicateKeyLastFilenameWins(t *testing.T) {
	fsys := fstest.MapFS{
		"001_first.json":  {Data: record("dup-1", "first version")},
		"002_second.json": {Data: record("dup-1", "second version")},
	}

	store, err := Load(fsys)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
	sum, _ := store.Get("dup-1")
	if sum.Summary != "second version" {
		t.Errorf("Summary = %q, want the record from the later filename", sum.Summary)
	}
}

func TestLoad_SkipsBadRecords(t *testing.T) {
	fsys := fstest.MapFS{
		"good.json":  {Data: record("ok-1", "fine")},
		"bad.json":   {Data: []byte("{not json")},
		"nokey.json": {Data: []byte(`{"summary": "orphaned"}`)},
	}

	store, err := Load(fsys)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1 (bad records skipped, not fatal)", store.Len())
	}
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	store, err := LoadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("LoadDir returned error for absent store: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}
