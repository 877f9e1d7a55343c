package agenda

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// fallbackTitle is used when a rewriter is asked to improve an unclear title
// and fails; a generic label beats a referral note.
const fallbackTitle = "Agenda items"

// staticTitleImprovements maps the portal's recurring bureaucratic section
// headings to short reader-facing titles. These never need a rewriter.
var staticTitleImprovements = map[string]string{
	"Items Noticed for Public Hearing":                             "Scheduled hearings",
	"Items for which Public Hearings Have Been Held":               "Completed hearings",
	"Items for which Public Hearings Have Not Been Held - (10 Votes Required for Consideration)": "No hearings held (requires 10 votes)",
	"Closed Session": "Closed sessions",
	"Commendatory Resolutions, Introductions and Presentations":       "Commendations and presentations",
	"Public Testimony of Non-agenda Items Within Jurisdiction of Council": "Public comments",
	"Multiple Agenda Item Comment": "General public comments",
	"MULTIPLE AGENDA ITEM COMMENT": "General public comments",
	"GENERAL PUBLIC COMMENT":       "Public comments",
}

var bureaucraticTitleRes = []*regexp.Regexp{
	regexp.MustCompile(`^\(.*\)$`),
	regexp.MustCompile(`(?i)Committee\s+Report`),
	regexp.MustCompile(`Fiscal Year \d{4}-\d{2}`),
}

// ImproveSectionTitle returns the static replacement for a known
// bureaucratic heading.
func ImproveSectionTitle(title string) (string, bool) {
	improved, ok := staticTitleImprovements[title]
	return improved, ok
}

// IsTitleUnclear reports whether a section title needs improvement: referral
// notes, over-long headings, and recognizably bureaucratic phrasing qualify.
// Empty titles and titles with a known static replacement do not.
func IsTitleUnclear(title string) bool {
	if title == "" {
		return false
	}
	if _, ok := staticTitleImprovements[title]; ok {
		return false
	}
	if strings.HasPrefix(title, "(Referred to") {
		return true
	}
	if len(title) > 80 {
		return true
	}
	for _, re := range bureaucraticTitleRes {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// TitleRewriter produces a clearer section title from the original heading
// and the section's items. Implementations are external collaborators
// (typically LLM-backed); this package only defines the boundary.
type TitleRewriter interface {
	Rewrite(ctx context.Context, title string, items []Item) (string, error)
}

// ImproveSectionTitles rewrites unclear section titles in place: static
// replacements first, then the rewriter for anything IsTitleUnclear flags.
// A nil rewriter applies static replacements only. The original heading is
// preserved in OriginalTitle. Returns the number of titles changed.
func ImproveSectionTitles(ctx context.Context, doc *Document, rw TitleRewriter) int {
	improved := 0
	for i := range doc.Sections {
		section := &doc.Sections[i]

		if replacement, ok := ImproveSectionTitle(section.Title); ok {
			if replacement != section.Title {
				section.OriginalTitle = section.Title
				section.Title = replacement
				improved++
			}
			continue
		}

		if rw == nil || !IsTitleUnclear(section.Title) {
			continue
		}

		rewritten, err := rw.Rewrite(ctx, section.Title, section.Items)
		if err != nil {
			slog.Warn("section title rewrite failed",
				"meeting_id", doc.MeetingID, "section_id", section.SectionID, "error", err)
			rewritten = fallbackTitle
		}
		if rewritten != "" && rewritten != section.Title {
			section.OriginalTitle = section.Title
			section.Title = rewritten
			improved++
		}
	}
	return improved
}
