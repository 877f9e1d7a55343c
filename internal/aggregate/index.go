package aggregate

import (
	"sort"
	"time"
)

// IndexEntry is the summary row for one council file.
type IndexEntry struct {
	CouncilFile string `json:"council_file"`
	Title       string `json:"title"`
	District    string `json:"district"`
	Appearances int    `json:"appearances"`
	Attachments int    `json:"attachments"`
	FirstSeen   string `json:"first_seen"`
	LastSeen    string `json:"last_seen"`
}

// Index is the sorted directory of all aggregate records, most recently
// active legislation first.
type Index struct {
	GeneratedAt string       `json:"generated_at"`
	TotalFiles  int          `json:"total_files"`
	Files       []IndexEntry `json:"files"`
}

// BuildIndex maps every aggregate to its summary row, sorted by last_seen
// descending with the council file number as tie-break so equal timestamps
// (common within one pipeline run) still produce byte-stable output. Empty
// input yields an empty index, not an error.
func BuildIndex(files []CouncilFile, generatedAt time.Time) Index {
	entries := make([]IndexEntry, 0, len(files))
	for _, cf := range files {
		entries = append(entries, IndexEntry{
			CouncilFile: cf.CouncilFile,
			Title:       cf.Title,
			District:    cf.District,
			Appearances: cf.Stats.TotalAppearances,
			Attachments: cf.Stats.TotalAttachments,
			FirstSeen:   cf.FirstSeen,
			LastSeen:    cf.LastSeen,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastSeen != entries[j].LastSeen {
			return entries[i].LastSeen > entries[j].LastSeen
		}
		return entries[i].CouncilFile < entries[j].CouncilFile
	})

	return Index{
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		TotalFiles:  len(entries),
		Files:       entries,
	}
}
