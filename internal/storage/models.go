package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Meeting is the catalog row for one parsed meeting agenda.
type Meeting struct {
	MeetingID     int
	TemplateID    int
	ParsedAt      string // RFC 3339; compared lexicographically
	PortalURL     string
	TotalSections int
	TotalItems    int
}

// CouncilFileRecord is the catalog row for one aggregated council file.
// The JSON docstore holds the full aggregate; this row exists so the API
// and MCP tools can answer list/search queries without re-reading the tree.
type CouncilFileRecord struct {
	CouncilFile              string
	Title                    string
	District                 string
	Appearances              int
	Attachments              int
	AttachmentsWithSummaries int
	FirstSeen                string
	LastSeen                 string
}

// Run records one pipeline execution.
type Run struct {
	ID              string
	StartedAt       string
	FinishedAt      string
	MeetingsParsed  int
	MeetingsSkipped int
	CouncilFiles    int
	Status          string // "running", "completed", "failed"
	LastError       string
}
