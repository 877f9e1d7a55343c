package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"counciltrack/internal/agenda"
	"counciltrack/internal/docstore"
	"counciltrack/internal/storage"
)

const agendaHTML = `<html><body>
<div data-sectionid="s1">
  <h2>Items for which Public Hearings Have Been Held</h2>
  <div data-itemid="i1" data-hasattachments="True">
    <div class="number-cell">(1)</div>
    <div class="item-cell">
      <p>25-0600-S126</p>
      <p>CD 10</p>
      <p>Housing Development Agreement for the Crenshaw corridor</p>
      <p>Recommendation for Council action:</p>
      <p>Approve the agreement.</p>
      <a href="/api/compilemeetingattachmenthistory/historyattachment/?historyId=abc-1">Staff Report</a>
    </div>
  </div>
  <div data-itemid="i2">
    <div class="number-cell">(2)</div>
    <div class="item-cell">
      <p>25-0100</p>
      <p>Street resurfacing program quarterly report</p>
    </div>
  </div>
</div>
</body></html>`

const brokenHTML = `<html><body><p>no sections here</p></body></html>`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRunner(t *testing.T) (*Runner, *docstore.Store, *storage.Store) {
	t.Helper()
	catalog, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { catalog.Close() })

	docs := docstore.New(t.TempDir())
	parser := agenda.NewParser("https://lacity.primegov.com")
	return NewRunner(parser, docs, catalog, 2), docs, catalog
}

func TestParseMeetings(t *testing.T) {
	r, docs, catalog := testRunner(t)
	dir := t.TempDir()

	inputs := []AgendaInput{
		{MeetingID: 17432, TemplateID: 16377, Path: writeFixture(t, dir, "a.html", agendaHTML)},
		{MeetingID: 17433, TemplateID: 16378, Path: writeFixture(t, dir, "b.html", agendaHTML)},
	}

	parsed, skipped, err := r.ParseMeetings(context.Background(), inputs)
	if err != nil {
		t.Fatalf("ParseMeetings: %v", err)
	}
	if parsed != 2 || skipped != 0 {
		t.Errorf("parsed=%d skipped=%d, want 2/0", parsed, skipped)
	}

	doc, err := docs.ReadAgenda(17432)
	if err != nil {
		t.Fatalf("ReadAgenda: %v", err)
	}
	if doc.TotalItems != 2 || doc.TotalSections != 1 {
		t.Errorf("document totals = %d items, %d sections", doc.TotalItems, doc.TotalSections)
	}

	m, err := catalog.GetMeeting(17432)
	if err != nil {
		t.Fatalf("GetMeeting: %v", err)
	}
	if m.TemplateID != 16377 || m.TotalItems != 2 {
		t.Errorf("catalog row = %+v", m)
	}
}

func TestParseMeetings_MissingFileSkipped(t *testing.T) {
	r, _, _ := testRunner(t)
	dir := t.TempDir()

	inputs := []AgendaInput{
		{MeetingID: 1, TemplateID: 10, Path: writeFixture(t, dir, "a.html", agendaHTML)},
		{MeetingID: 2, TemplateID: 20, Path: filepath.Join(dir, "does-not-exist.html")},
	}

	parsed, skipped, err := r.ParseMeetings(context.Background(), inputs)
	if err != nil {
		t.Fatalf("ParseMeetings: %v", err)
	}
	if parsed != 1 || skipped != 1 {
		t.Errorf("parsed=%d skipped=%d, want 1/1", parsed, skipped)
	}
}

func TestParseMeetings_ImprovesSectionTitles(t *testing.T) {
	r, docs, _ := testRunner(t)
	dir := t.TempDir()

	inputs := []AgendaInput{
		{MeetingID: 7, TemplateID: 70, Path: writeFixture(t, dir, "a.html", agendaHTML)},
	}
	if _, _, err := r.ParseMeetings(context.Background(), inputs); err != nil {
		t.Fatal(err)
	}

	// The stored document carries the cleaned heading, not the portal's.
	doc, err := docs.ReadAgenda(7)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Sections[0].Title != "Completed hearings" {
		t.Errorf("Title = %q, want %q", doc.Sections[0].Title, "Completed hearings")
	}
	if doc.Sections[0].OriginalTitle != "Items for which Public Hearings Have Been Held" {
		t.Errorf("OriginalTitle = %q, want the portal heading", doc.Sections[0].OriginalTitle)
	}
}

type stubRewriter struct {
	title string
}

func (s stubRewriter) Rewrite(ctx context.Context, title string, items []agenda.Item) (string, error) {
	return s.title, nil
}

func TestParseMeetings_UsesTitleRewriter(t *testing.T) {
	r, docs, _ := testRunner(t)
	r.SetTitleRewriter(stubRewriter{title: "Safety referrals"})
	dir := t.TempDir()

	html := `<html><body>
<div data-sectionid="s1">
  <h2>(Referred to the Public Safety Committee)</h2>
  <div data-itemid="i1"><div class="item-cell">24-0001</div></div>
</div>
</body></html>`

	inputs := []AgendaInput{
		{MeetingID: 8, TemplateID: 80, Path: writeFixture(t, dir, "r.html", html)},
	}
	if _, _, err := r.ParseMeetings(context.Background(), inputs); err != nil {
		t.Fatal(err)
	}

	doc, err := docs.ReadAgenda(8)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Sections[0].Title != "Safety referrals" {
		t.Errorf("Title = %q, want the rewritten heading", doc.Sections[0].Title)
	}
}

func TestParseMeetings_DegradedMarkupStillCounts(t *testing.T) {
	r, docs, _ := testRunner(t)
	dir := t.TempDir()

	// Markup with no section markers parses to an empty document, not an error.
	inputs := []AgendaInput{
		{MeetingID: 5, TemplateID: 50, Path: writeFixture(t, dir, "broken.html", brokenHTML)},
	}
	parsed, skipped, err := r.ParseMeetings(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	if parsed != 1 || skipped != 0 {
		t.Errorf("parsed=%d skipped=%d", parsed, skipped)
	}

	doc, err := docs.ReadAgenda(5)
	if err != nil {
		t.Fatal(err)
	}
	if doc.TotalSections != 0 {
		t.Errorf("TotalSections = %d, want 0", doc.TotalSections)
	}
}

func TestAggregate(t *testing.T) {
	r, docs, catalog := testRunner(t)
	dir := t.TempDir()

	inputs := []AgendaInput{
		{MeetingID: 17432, TemplateID: 16377, Path: writeFixture(t, dir, "a.html", agendaHTML)},
	}
	if _, _, err := r.ParseMeetings(context.Background(), inputs); err != nil {
		t.Fatal(err)
	}

	count, err := r.Aggregate()
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if count != 2 {
		t.Fatalf("aggregated %d council files, want 2", count)
	}

	cf, err := docs.ReadCouncilFile("25-0600-S126")
	if err != nil {
		t.Fatalf("ReadCouncilFile: %v", err)
	}
	if cf.District != "CD 10" || len(cf.Attachments) != 1 {
		t.Errorf("aggregate = %+v", cf)
	}
	if cf.Attachments[0].HistoryID != "abc-1" {
		t.Errorf("HistoryID = %q", cf.Attachments[0].HistoryID)
	}

	idx, err := docs.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if idx.TotalFiles != 2 {
		t.Errorf("index TotalFiles = %d", idx.TotalFiles)
	}

	row, err := catalog.GetCouncilFile("25-0600-S126")
	if err != nil {
		t.Fatalf("GetCouncilFile: %v", err)
	}
	if row.Attachments != 1 || row.Appearances != 1 {
		t.Errorf("catalog row = %+v", row)
	}
}

func TestRun_RecordsOutcome(t *testing.T) {
	r, _, catalog := testRunner(t)
	dir := t.TempDir()

	inputs := []AgendaInput{
		{MeetingID: 17432, TemplateID: 16377, Path: writeFixture(t, dir, "a.html", agendaHTML)},
		{MeetingID: 9999, TemplateID: 99, Path: filepath.Join(dir, "missing.html")},
	}

	run, err := r.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Status != "completed" {
		t.Errorf("Status = %q", run.Status)
	}
	if run.MeetingsParsed != 1 || run.MeetingsSkipped != 1 {
		t.Errorf("run counts = %+v", run)
	}
	if run.CouncilFiles != 2 {
		t.Errorf("CouncilFiles = %d", run.CouncilFiles)
	}

	runs, err := catalog.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID || runs[0].Status != "completed" {
		t.Errorf("stored runs = %+v", runs)
	}
}
