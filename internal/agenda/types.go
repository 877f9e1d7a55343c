// Package agenda converts semi-structured meeting agenda HTML into
// normalized per-meeting documents. The markup carries no stable schema;
// extraction leans on the portal's structural markers (data-sectionid,
// data-itemid) and layered text heuristics, and degrades rather than fails
// when the markup does not cooperate.
package agenda

// Attachment is a single linked document reference inside an agenda item.
type Attachment struct {
	Text string `json:"text"`
	URL  string `json:"url"`
	// HistoryID is derived from the historyId query parameter of URL and is
	// the join key into the summary store. Empty when the URL lacks the
	// parameter; such attachments cannot be enriched.
	HistoryID string `json:"history_id,omitempty"`
}

// Item is one row on one meeting's agenda. RawText is always populated;
// every other extracted field is best-effort and may be absent.
type Item struct {
	ItemID         string       `json:"item_id"`
	ItemNumber     string       `json:"item_number"`
	HasAttachments bool         `json:"has_attachments"`
	RawText        string       `json:"raw_text"`
	CouncilFile    string       `json:"council_file,omitempty"`
	District       string       `json:"district,omitempty"`
	Title          string       `json:"title,omitempty"`
	Recommendation string       `json:"recommendation,omitempty"`
	VideoLocation  string       `json:"video_location,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Section is a titled grouping of items within one meeting.
type Section struct {
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
	// OriginalTitle preserves the raw heading when Title has been replaced
	// by a cleaned-up version.
	OriginalTitle string `json:"original_title,omitempty"`
	Items         []Item `json:"items"`
}

// Document is the parser's full output for one meeting. It is regenerated
// in full on every parse; TotalItems and TotalSections are always recomputed,
// never trusted stale.
type Document struct {
	MeetingID  int    `json:"meeting_id"`
	TemplateID int    `json:"template_id"`
	// ParsedAt is the extraction timestamp (RFC 3339, UTC), not the meeting
	// date. Aggregation compares these values lexicographically.
	ParsedAt      string    `json:"parsed_at"`
	PortalURL     string    `json:"portal_url"`
	Sections      []Section `json:"sections"`
	TotalItems    int       `json:"total_items"`
	TotalSections int       `json:"total_sections"`
}
