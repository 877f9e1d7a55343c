// Package pipeline orchestrates the full refresh: parse agenda HTML into
// per-meeting documents, then fold everything into council file records and
// the index.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"counciltrack/internal/agenda"
	"counciltrack/internal/aggregate"
	"counciltrack/internal/docstore"
	"counciltrack/internal/storage"
	"counciltrack/internal/summaries"
)

// Catalog is the slice of the SQLite store the pipeline writes to.
type Catalog interface {
	UpsertMeeting(m storage.Meeting) error
	ReplaceCouncilFiles(records []storage.CouncilFileRecord) error
	StartRun(id, startedAt string) error
	FinishRun(r storage.Run) error
}

// AgendaInput identifies one agenda HTML file to parse.
type AgendaInput struct {
	MeetingID  int
	TemplateID int
	Path       string
}

// Runner executes pipeline stages against one data directory.
type Runner struct {
	parser      *agenda.Parser
	docs        *docstore.Store
	catalog     Catalog
	titles      agenda.TitleRewriter
	parallelism int
	now         func() time.Time
}

// NewRunner builds a Runner. parallelism bounds concurrent agenda parses;
// values below 1 are treated as 1.
func NewRunner(parser *agenda.Parser, docs *docstore.Store, catalog Catalog, parallelism int) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{
		parser:      parser,
		docs:        docs,
		catalog:     catalog,
		parallelism: parallelism,
		now:         time.Now,
	}
}

// SetTitleRewriter installs an optional rewriter for unclear section titles.
// Without one, only the static heading replacements apply during parsing.
func (r *Runner) SetTitleRewriter(rw agenda.TitleRewriter) {
	r.titles = rw
}

// ParseMeetings parses each input into a per-meeting document and records it
// in the document store and catalog. One meeting failing to parse is logged
// and skipped; it never fails the batch. Returns (parsed, skipped).
func (r *Runner) ParseMeetings(ctx context.Context, inputs []AgendaInput) (int, int, error) {
	var mu sync.Mutex
	parsed, skipped := 0, 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	for _, input := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.parseOne(ctx, input); err != nil {
				slog.Warn("skipping meeting", "meeting_id", input.MeetingID, "error", err)
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			parsed++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return parsed, skipped, err
	}
	return parsed, skipped, nil
}

func (r *Runner) parseOne(ctx context.Context, input AgendaInput) error {
	f, err := os.Open(input.Path)
	if err != nil {
		return fmt.Errorf("opening agenda html: %w", err)
	}
	defer f.Close()

	doc, err := r.parser.Parse(f, input.MeetingID, input.TemplateID)
	if err != nil {
		return fmt.Errorf("parsing agenda: %w", err)
	}

	if n := agenda.ImproveSectionTitles(ctx, doc, r.titles); n > 0 {
		slog.Debug("improved section titles", "meeting_id", doc.MeetingID, "count", n)
	}

	if err := r.docs.WriteAgenda(doc); err != nil {
		return fmt.Errorf("storing agenda document: %w", err)
	}
	if err := r.catalog.UpsertMeeting(storage.Meeting{
		MeetingID:     doc.MeetingID,
		TemplateID:    doc.TemplateID,
		ParsedAt:      doc.ParsedAt,
		PortalURL:     doc.PortalURL,
		TotalSections: doc.TotalSections,
		TotalItems:    doc.TotalItems,
	}); err != nil {
		return fmt.Errorf("cataloging meeting: %w", err)
	}

	slog.Info("parsed agenda", "meeting_id", doc.MeetingID,
		"sections", doc.TotalSections, "items", doc.TotalItems)
	return nil
}

// Aggregate rebuilds every council file record and the index from the stored
// per-meeting documents and the summary store. Returns the number of council
// files produced.
func (r *Runner) Aggregate() (int, error) {
	docs, err := r.docs.LoadAgendas()
	if err != nil {
		return 0, fmt.Errorf("loading agenda documents: %w", err)
	}

	store, err := summaries.LoadDir(r.docs.SummariesDir())
	if err != nil {
		return 0, fmt.Errorf("loading summary store: %w", err)
	}

	files := aggregate.Fold(docs, store)
	for _, cf := range files {
		if err := r.docs.WriteCouncilFile(cf); err != nil {
			return 0, fmt.Errorf("writing council file %s: %w", cf.CouncilFile, err)
		}
	}

	idx := aggregate.BuildIndex(files, r.now().UTC())
	if err := r.docs.WriteIndex(idx); err != nil {
		return 0, fmt.Errorf("writing index: %w", err)
	}

	records := make([]storage.CouncilFileRecord, 0, len(files))
	for _, cf := range files {
		records = append(records, storage.CouncilFileRecord{
			CouncilFile:              cf.CouncilFile,
			Title:                    cf.Title,
			District:                 cf.District,
			Appearances:              cf.Stats.TotalAppearances,
			Attachments:              cf.Stats.TotalAttachments,
			AttachmentsWithSummaries: cf.Stats.AttachmentsWithSummaries,
			FirstSeen:                cf.FirstSeen,
			LastSeen:                 cf.LastSeen,
		})
	}
	if err := r.catalog.ReplaceCouncilFiles(records); err != nil {
		return 0, fmt.Errorf("cataloging council files: %w", err)
	}

	slog.Info("aggregation complete", "council_files", len(files),
		"meetings", len(docs), "summaries", store.Len())
	return len(files), nil
}

// Run executes the full pipeline under a recorded run: parse every input,
// then aggregate. The run row records the outcome either way.
func (r *Runner) Run(ctx context.Context, inputs []AgendaInput) (storage.Run, error) {
	run := storage.Run{
		ID:        uuid.NewString(),
		StartedAt: r.now().UTC().Format(time.RFC3339),
		Status:    "running",
	}
	if err := r.catalog.StartRun(run.ID, run.StartedAt); err != nil {
		return run, fmt.Errorf("recording run start: %w", err)
	}

	runErr := r.execute(ctx, inputs, &run)

	run.FinishedAt = r.now().UTC().Format(time.RFC3339)
	if runErr != nil {
		run.Status = "failed"
		run.LastError = runErr.Error()
	} else {
		run.Status = "completed"
	}
	if err := r.catalog.FinishRun(run); err != nil {
		slog.Error("recording run outcome failed", "run_id", run.ID, "error", err)
	}
	return run, runErr
}

func (r *Runner) execute(ctx context.Context, inputs []AgendaInput, run *storage.Run) error {
	parsed, skipped, err := r.ParseMeetings(ctx, inputs)
	run.MeetingsParsed = parsed
	run.MeetingsSkipped = skipped
	if err != nil {
		return err
	}

	count, err := r.Aggregate()
	run.CouncilFiles = count
	return err
}
