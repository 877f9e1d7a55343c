package docstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"counciltrack/internal/agenda"
	"counciltrack/internal/aggregate"
	"counciltrack/internal/summaries"
)

func testDoc(meetingID int) *agenda.Document {
	return &agenda.Document{
		MeetingID:     meetingID,
		TemplateID:    meetingID * 10,
		ParsedAt:      "2024-01-01T00:00:00Z",
		PortalURL:     "https://example.test/Portal/Meeting?meetingTemplateId=1",
		Sections:      []agenda.Section{{SectionID: "s", Title: "Consent", Items: []agenda.Item{}}},
		TotalSections: 1,
	}
}

func TestAgendaRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	if err := store.WriteAgenda(testDoc(17432)); err != nil {
		t.Fatalf("WriteAgenda: %v", err)
	}

	got, err := store.ReadAgenda(17432)
	if err != nil {
		t.Fatalf("ReadAgenda: %v", err)
	}
	if got.MeetingID != 17432 || got.TotalSections != 1 {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestWriteAgenda_OverwritesPreviousParse(t *testing.T) {
	store := New(t.TempDir())

	first := testDoc(1)
	first.TotalItems = 5
	if err := store.WriteAgenda(first); err != nil {
		t.Fatal(err)
	}

	second := testDoc(1)
	second.TotalItems = 3
	if err := store.WriteAgenda(second); err != nil {
		t.Fatal(err)
	}

	got, err := store.ReadAgenda(1)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalItems != 3 {
		t.Errorf("TotalItems = %d, want the re-parsed value 3", got.TotalItems)
	}
}

func TestLoadAgendas(t *testing.T) {
	store := New(t.TempDir())
	for _, id := range []int{3, 1, 2} {
		if err := store.WriteAgenda(testDoc(id)); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := store.LoadAgendas()
	if err != nil {
		t.Fatalf("LoadAgendas: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3", len(docs))
	}
}

func TestLoadAgendas_SkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.WriteAgenda(testDoc(1)); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "agendas", "agenda_2.json")
	if err := os.WriteFile(bad, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := store.LoadAgendas()
	if err != nil {
		t.Fatalf("LoadAgendas: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("got %d documents, want 1 (malformed file skipped, not fatal)", len(docs))
	}
}

func TestLoadAgendas_MissingDirectory(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nothing-here"))
	docs, err := store.LoadAgendas()
	if err != nil {
		t.Fatalf("LoadAgendas: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d documents from a missing directory", len(docs))
	}
}

func TestCouncilFileAndIndexRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	cf := aggregate.CouncilFile{
		CouncilFile: "25-0160-S93",
		Title:       "Foo",
		Appearances: []aggregate.Appearance{},
		Attachments: []aggregate.EnrichedAttachment{},
	}
	if err := store.WriteCouncilFile(cf); err != nil {
		t.Fatalf("WriteCouncilFile: %v", err)
	}

	got, err := store.ReadCouncilFile("25-0160-S93")
	if err != nil {
		t.Fatalf("ReadCouncilFile: %v", err)
	}
	if got.Title != "Foo" {
		t.Errorf("Title = %q", got.Title)
	}

	idx := aggregate.BuildIndex([]aggregate.CouncilFile{cf}, time.Now())
	if err := store.WriteIndex(idx); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	gotIdx, err := store.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if gotIdx.TotalFiles != 1 {
		t.Errorf("TotalFiles = %d", gotIdx.TotalFiles)
	}

	// index.json must not show up as a council file record.
	files, err := store.LoadCouncilFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("LoadCouncilFiles returned %d records, want 1", len(files))
	}
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	sum := summaries.PdfSummary{HistoryID: "abc-123", Summary: "text"}
	if err := store.WriteSummary(sum); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	// Written records must be loadable by the summaries package.
	loaded, err := summaries.LoadDir(store.SummariesDir())
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := loaded.Get("abc-123"); !ok || got.Summary != "text" {
		t.Errorf("loaded = (%+v, %v)", got, ok)
	}

	if err := store.WriteSummary(summaries.PdfSummary{}); err == nil {
		t.Error("WriteSummary accepted a record without a historyId")
	}
}
