package summarize

import (
	"context"
	"fmt"
	"log/slog"

	"counciltrack/internal/pdftext"
	"counciltrack/internal/summaries"
)

// maxDocumentChars caps how much extracted text is sent to the model.
const maxDocumentChars = 40000

// PDFFetcher downloads an attachment document by its history ID.
type PDFFetcher interface {
	AttachmentPDF(ctx context.Context, historyID string) ([]byte, error)
}

// SummaryRequest carries one document to a summarization backend.
type SummaryRequest struct {
	CouncilFile string
	Title       string
	Category    string
	Text        string
}

// SummaryResult is the backend's answer plus its accounting.
type SummaryResult struct {
	Summary      string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Summarizer produces a summary for one document.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (SummaryResult, error)
}

// SummaryWriter persists completed summary records.
type SummaryWriter interface {
	WriteSummary(sum summaries.PdfSummary) error
}

// Worker processes pending attachments one at a time: download, extract,
// summarize, persist.
type Worker struct {
	fetcher PDFFetcher
	model   Summarizer
	writer  SummaryWriter
	extract func(data []byte) (string, error)
}

// NewWorker wires a Worker from its three collaborators.
func NewWorker(fetcher PDFFetcher, model Summarizer, writer SummaryWriter) *Worker {
	return &Worker{
		fetcher: fetcher,
		model:   model,
		writer:  writer,
		extract: pdftext.Extract,
	}
}

// Report totals one ProcessPending pass.
type Report struct {
	Processed int
	Failed    int
	CostUSD   float64
}

// ProcessPending works through the given attachments in order. A failure on
// one document is logged and counted; it never aborts the rest of the batch.
// The context cancels between documents, not mid-document.
func (w *Worker) ProcessPending(ctx context.Context, pending []Pending) (Report, error) {
	var report Report
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result, err := w.processOne(ctx, p)
		if err != nil {
			slog.Warn("summarization failed",
				"council_file", p.CouncilFile, "history_id", p.HistoryID, "error", err)
			report.Failed++
			continue
		}
		report.Processed++
		report.CostUSD += result.CostUSD
		slog.Info("summarized attachment",
			"council_file", p.CouncilFile, "history_id", p.HistoryID,
			"category", p.Category, "cost_usd", result.CostUSD)
	}
	return report, nil
}

func (w *Worker) processOne(ctx context.Context, p Pending) (SummaryResult, error) {
	data, err := w.fetcher.AttachmentPDF(ctx, p.HistoryID)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("fetching pdf: %w", err)
	}

	text, err := w.extract(data)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("extracting text: %w", err)
	}

	result, err := w.model.Summarize(ctx, SummaryRequest{
		CouncilFile: p.CouncilFile,
		Title:       p.Title,
		Category:    p.Category,
		Text:        pdftext.Truncate(text, maxDocumentChars),
	})
	if err != nil {
		return SummaryResult{}, fmt.Errorf("summarizing: %w", err)
	}

	record := summaries.PdfSummary{
		HistoryID:        p.HistoryID,
		CouncilFile:      p.CouncilFile,
		OriginalFilename: p.Title,
		Category:         p.Category,
		Summary:          result.Summary,
		Processing: summaries.Processing{
			Model:        result.Model,
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
			CostUSD:      result.CostUSD,
		},
	}
	if err := w.writer.WriteSummary(record); err != nil {
		return SummaryResult{}, fmt.Errorf("writing summary: %w", err)
	}
	return result, nil
}
