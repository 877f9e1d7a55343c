package summarize

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"counciltrack/internal/summaries"
)

type mockFetcher struct {
	fetchFunc func(ctx context.Context, historyID string) ([]byte, error)
}

func (m *mockFetcher) AttachmentPDF(ctx context.Context, historyID string) ([]byte, error) {
	return m.fetchFunc(ctx, historyID)
}

type mockSummarizer struct {
	summarizeFunc func(ctx context.Context, req SummaryRequest) (SummaryResult, error)
}

func (m *mockSummarizer) Summarize(ctx context.Context, req SummaryRequest) (SummaryResult, error) {
	return m.summarizeFunc(ctx, req)
}

type mockWriter struct {
	written []summaries.PdfSummary
	err     error
}

func (m *mockWriter) WriteSummary(sum summaries.PdfSummary) error {
	if m.err != nil {
		return m.err
	}
	m.written = append(m.written, sum)
	return nil
}

func testWorker(fetcher PDFFetcher, model Summarizer, writer SummaryWriter) *Worker {
	w := NewWorker(fetcher, model, writer)
	w.extract = func(data []byte) (string, error) {
		return string(data), nil
	}
	return w
}

func TestProcessPending(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, historyID string) ([]byte, error) {
			return []byte("document body for " + historyID), nil
		},
	}
	model := &mockSummarizer{
		summarizeFunc: func(ctx context.Context, req SummaryRequest) (SummaryResult, error) {
			return SummaryResult{
				Summary:      "summary of " + req.Title,
				Model:        "test-model",
				InputTokens:  100,
				OutputTokens: 20,
				CostUSD:      0.01,
			}, nil
		},
	}
	writer := &mockWriter{}

	w := testWorker(fetcher, model, writer)
	report, err := w.ProcessPending(context.Background(), []Pending{
		{CouncilFile: "25-0100", HistoryID: "h1", Title: "Staff Report", Category: "staff_report"},
		{CouncilFile: "25-0200", HistoryID: "h2", Title: "Appeal", Category: "appeal"},
	})
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}

	if report.Processed != 2 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.CostUSD != 0.02 {
		t.Errorf("CostUSD = %v, want 0.02", report.CostUSD)
	}
	if len(writer.written) != 2 {
		t.Fatalf("wrote %d records", len(writer.written))
	}

	rec := writer.written[0]
	if rec.HistoryID != "h1" || rec.CouncilFile != "25-0100" ||
		rec.OriginalFilename != "Staff Report" || rec.Category != "staff_report" {
		t.Errorf("record identity fields = %+v", rec)
	}
	if rec.Summary != "summary of Staff Report" {
		t.Errorf("Summary = %q", rec.Summary)
	}
	if rec.Processing.Model != "test-model" || rec.Processing.InputTokens != 100 {
		t.Errorf("Processing = %+v", rec.Processing)
	}
}

func TestProcessPending_FailureDoesNotAbortBatch(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, historyID string) ([]byte, error) {
			if historyID == "broken" {
				return nil, fmt.Errorf("portal returned 500")
			}
			return []byte("ok"), nil
		},
	}
	model := &mockSummarizer{
		summarizeFunc: func(ctx context.Context, req SummaryRequest) (SummaryResult, error) {
			return SummaryResult{Summary: "s"}, nil
		},
	}
	writer := &mockWriter{}

	w := testWorker(fetcher, model, writer)
	report, err := w.ProcessPending(context.Background(), []Pending{
		{HistoryID: "broken"},
		{HistoryID: "fine"},
	})
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if report.Processed != 1 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(writer.written) != 1 || writer.written[0].HistoryID != "fine" {
		t.Errorf("written = %+v", writer.written)
	}
}

func TestProcessPending_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := testWorker(
		&mockFetcher{fetchFunc: func(context.Context, string) ([]byte, error) {
			t.Error("fetch called after cancellation")
			return nil, nil
		}},
		&mockSummarizer{summarizeFunc: func(context.Context, SummaryRequest) (SummaryResult, error) {
			return SummaryResult{}, nil
		}},
		&mockWriter{},
	)

	_, err := w.ProcessPending(ctx, []Pending{{HistoryID: "h1"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestProcessPending_WriteFailureCountsAsFailed(t *testing.T) {
	w := testWorker(
		&mockFetcher{fetchFunc: func(context.Context, string) ([]byte, error) {
			return []byte("ok"), nil
		}},
		&mockSummarizer{summarizeFunc: func(context.Context, SummaryRequest) (SummaryResult, error) {
			return SummaryResult{Summary: "s"}, nil
		}},
		&mockWriter{err: errors.New("disk full")},
	)

	report, err := w.ProcessPending(context.Background(), []Pending{{HistoryID: "h1"}})
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if report.Failed != 1 || report.Processed != 0 {
		t.Errorf("report = %+v", report)
	}
}
