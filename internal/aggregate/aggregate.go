// Package aggregate folds per-meeting agenda documents into canonical
// per-council-file records. The fold is a full rebuild on every run:
// idempotent-by-overwrite, no incremental state.
package aggregate

import (
	"log/slog"
	"sort"

	"counciltrack/internal/agenda"
	"counciltrack/internal/councilfile"
	"counciltrack/internal/summaries"
)

// Appearance is one sighting of a council file on one meeting's agenda.
type Appearance struct {
	MeetingID      int    `json:"meeting_id"`
	Date           string `json:"date"`
	Section        string `json:"section"`
	ItemNumber     string `json:"item_number"`
	Recommendation string `json:"recommendation"`
}

// EnrichedAttachment is one (attachment, meeting) occurrence joined against
// the summary store. Occurrences are deliberately not deduplicated by
// historyId: the same document can be validly re-filed across meetings and
// each occurrence carries its own meeting context.
type EnrichedAttachment struct {
	HistoryID  string                `json:"historyId"`
	Text       string                `json:"text"`
	URL        string                `json:"url"`
	MeetingID  int                   `json:"meeting_id"`
	HasSummary bool                  `json:"has_summary"`
	Summary    string                `json:"summary,omitempty"`
	Processing *summaries.Processing `json:"processing,omitempty"`
}

// Stats is derived bookkeeping recomputed on every fold.
type Stats struct {
	TotalAppearances         int `json:"total_appearances"`
	TotalAttachments         int `json:"total_attachments"`
	AttachmentsWithSummaries int `json:"attachments_with_summaries"`
}

// CouncilFile is the cross-meeting view of one legislative file, keyed by
// the council file number. Title and district come from the first meeting in
// which the file was observed and are never overwritten by later sightings.
type CouncilFile struct {
	CouncilFile string               `json:"council_file"`
	Title       string               `json:"title"`
	District    string               `json:"district"`
	Appearances []Appearance         `json:"appearances"`
	Attachments []EnrichedAttachment `json:"attachments"`
	// FirstSeen/LastSeen bound the parsed_at timestamps of contributing
	// meetings: load-time bounds, not event-time.
	FirstSeen string `json:"first_seen"`
	LastSeen  string `json:"last_seen"`
	Stats     Stats  `json:"stats"`
}

// SummaryLookup is the read-only view of the summary store the fold needs.
type SummaryLookup interface {
	Get(historyID string) (summaries.PdfSummary, bool)
}

// Fold aggregates every council file appearing in docs, enriching
// attachments through store. Items without an extractable council file are
// silently excluded; they remain visible only in their source document.
// The result is sorted by council file number and is byte-stable across
// reruns over the same inputs.
func Fold(docs []agenda.Document, store SummaryLookup) []CouncilFile {
	// Fold order determines first-write-wins identity metadata, so documents
	// are processed in ascending parsed_at order (meeting ID as tie-break)
	// regardless of input order.
	ordered := make([]agenda.Document, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ParsedAt != ordered[j].ParsedAt {
			return ordered[i].ParsedAt < ordered[j].ParsedAt
		}
		return ordered[i].MeetingID < ordered[j].MeetingID
	})

	byNumber := make(map[string]*CouncilFile)

	for _, doc := range ordered {
		if doc.ParsedAt == "" {
			slog.Warn("skipping agenda document without parsed_at", "meeting_id", doc.MeetingID)
			continue
		}
		for _, section := range doc.Sections {
			for _, item := range section.Items {
				if item.CouncilFile == "" {
					continue
				}
				cf := byNumber[item.CouncilFile]
				if cf == nil {
					cf = &CouncilFile{
						CouncilFile: item.CouncilFile,
						Title:       item.Title,
						District:    item.District,
						Appearances: []Appearance{},
						Attachments: []EnrichedAttachment{},
					}
					byNumber[item.CouncilFile] = cf
				}

				if cf.FirstSeen == "" || doc.ParsedAt < cf.FirstSeen {
					cf.FirstSeen = doc.ParsedAt
				}
				if cf.LastSeen == "" || doc.ParsedAt > cf.LastSeen {
					cf.LastSeen = doc.ParsedAt
				}

				cf.Appearances = append(cf.Appearances, Appearance{
					MeetingID:      doc.MeetingID,
					Date:           doc.ParsedAt,
					Section:        section.Title,
					ItemNumber:     item.ItemNumber,
					Recommendation: item.Recommendation,
				})

				for _, att := range item.Attachments {
					historyID := att.HistoryID
					if historyID == "" {
						historyID, _ = councilfile.ExtractHistoryID(att.URL)
					}
					if historyID == "" {
						// No join key, no independent value: dropped. An
						// empty value after "historyId=" counts as absent.
						continue
					}

					enriched := EnrichedAttachment{
						HistoryID: historyID,
						Text:      att.Text,
						URL:       att.URL,
						MeetingID: doc.MeetingID,
					}
					if sum, ok := store.Get(historyID); ok {
						enriched.HasSummary = true
						enriched.Summary = sum.Summary
						processing := sum.Processing
						enriched.Processing = &processing
					}
					cf.Attachments = append(cf.Attachments, enriched)
				}
			}
		}
	}

	result := make([]CouncilFile, 0, len(byNumber))
	for _, cf := range byNumber {
		sort.SliceStable(cf.Appearances, func(i, j int) bool {
			if cf.Appearances[i].Date != cf.Appearances[j].Date {
				return cf.Appearances[i].Date < cf.Appearances[j].Date
			}
			return cf.Appearances[i].MeetingID < cf.Appearances[j].MeetingID
		})

		cf.Stats = Stats{
			TotalAppearances: len(cf.Appearances),
			TotalAttachments: len(cf.Attachments),
		}
		for _, att := range cf.Attachments {
			if att.HasSummary {
				cf.Stats.AttachmentsWithSummaries++
			}
		}
		result = append(result, *cf)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CouncilFile < result[j].CouncilFile
	})
	return result
}
