// Package summarize triages council file attachments and drives summary
// generation for the ones worth reading.
package summarize

import (
	"sort"
	"strings"

	"counciltrack/internal/aggregate"
)

// Priority ranks an attachment for summarization.
type Priority int

const (
	// PrioritySkip marks procedural paperwork not worth a summary.
	PrioritySkip Priority = 0
	// PriorityHigh marks substantive documents to process first.
	PriorityHigh Priority = 1
	// PriorityMedium marks everything else.
	PriorityMedium Priority = 2
)

type titlePattern struct {
	substring string
	category  string
}

// Substantive document types, matched as case-insensitive substrings of the
// attachment title. Order matters: the first match wins.
var highValuePatterns = []titlePattern{
	{"staff report", "staff_report"},
	{"report from", "staff_report"},
	{"committee report", "staff_report"},
	{"appeal", "appeal"},
	{"findings", "findings"},
	{"conditions of approval", "conditions"},
	{"conditions", "conditions"},
}

// Procedural paperwork that never carries substance.
var lowValuePatterns = []titlePattern{
	{"proof of publication", "skip_procedural"},
	{"proof of mailing", "skip_procedural"},
	{"certificate of posting", "skip_procedural"},
	{"mailing list", "skip_procedural"},
	{"returned envelope", "skip_procedural"},
	{"speaker card", "skip_speaker_cards"},
	{"www.lacouncilfile.com", "skip_url_link"},
	{"notice of exemption", "skip_noe"},
}

// Categorize classifies an attachment by its title. Titles reading exactly
// "NOE" are notices of exemption filed without a longer label.
func Categorize(title string) (category string, priority Priority) {
	lower := strings.ToLower(strings.TrimSpace(title))

	for _, p := range highValuePatterns {
		if strings.Contains(lower, p.substring) {
			return p.category, PriorityHigh
		}
	}

	if lower == "noe" {
		return "skip_noe", PrioritySkip
	}
	for _, p := range lowValuePatterns {
		if strings.Contains(lower, p.substring) {
			return p.category, PrioritySkip
		}
	}

	return "other", PriorityMedium
}

// Pending is one attachment awaiting a summary.
type Pending struct {
	CouncilFile string
	HistoryID   string
	Title       string
	Category    string
	Priority    Priority
}

// stageRank orders priorities for processing: substantive documents first,
// then the long tail, with skippable paperwork last.
func stageRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// CollectPending walks aggregated council files and returns every attachment
// that has a history ID and no summary yet, categorized and sorted so
// high-value work comes first, with (CouncilFile, HistoryID) tie-breaks for
// deterministic output.
func CollectPending(files []aggregate.CouncilFile) []Pending {
	var pending []Pending
	for _, cf := range files {
		for _, att := range cf.Attachments {
			if att.HasSummary || att.HistoryID == "" {
				continue
			}
			category, priority := Categorize(att.Text)
			pending = append(pending, Pending{
				CouncilFile: cf.CouncilFile,
				HistoryID:   att.HistoryID,
				Title:       att.Text,
				Category:    category,
				Priority:    priority,
			})
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if ri, rj := stageRank(pending[i].Priority), stageRank(pending[j].Priority); ri != rj {
			return ri < rj
		}
		if pending[i].CouncilFile != pending[j].CouncilFile {
			return pending[i].CouncilFile < pending[j].CouncilFile
		}
		return pending[i].HistoryID < pending[j].HistoryID
	})
	return pending
}

// SelectStage filters pending attachments for one processing stage:
// stage 1 takes high-value documents, stage 2 takes the first sampleSize
// medium-value documents, stage 3 takes all medium-value documents.
// Skip-priority documents are never selected.
func SelectStage(pending []Pending, stage, sampleSize int) []Pending {
	var selected []Pending
	switch stage {
	case 1:
		for _, p := range pending {
			if p.Priority == PriorityHigh {
				selected = append(selected, p)
			}
		}
	case 2:
		for _, p := range pending {
			if p.Priority == PriorityMedium {
				selected = append(selected, p)
			}
			if len(selected) == sampleSize {
				break
			}
		}
	case 3:
		for _, p := range pending {
			if p.Priority == PriorityMedium {
				selected = append(selected, p)
			}
		}
	}
	return selected
}
