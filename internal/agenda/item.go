package agenda

import (
	"regexp"
	"strings"

	"counciltrack/internal/councilfile"
)

// Lines at or under this length are treated as noise (stray numbering,
// vote tallies) when hunting for an item title.
const minTitleLength = 15

const proceduralPhrase = "Recommendation for Council action"

var (
	fileNumberLineRe = regexp.MustCompile(`^\d{2}-\d{4}(?:-[A-Z0-9]+)?$`)
	districtLineRe   = regexp.MustCompile(`^CD \d+$`)

	// Bare substring match: markers like "Subrecommendation:" count too.
	recommendationRe = regexp.MustCompile(`(?i)recommendation[^:]*:`)
	whitespaceRunRe  = regexp.MustCompile(`\s+`)
)

// titleRule is one named skip rule in the title heuristic. Rules run in
// order; a line matching any rule is passed over when looking for the title.
type titleRule struct {
	name string
	skip func(line string) bool
}

var titleSkipRules = []titleRule{
	{
		name: "council-file-token",
		skip: func(line string) bool { return fileNumberLineRe.MatchString(line) },
	},
	{
		name: "district-token",
		skip: func(line string) bool { return districtLineRe.MatchString(line) },
	},
	{
		name: "procedural-phrase",
		skip: func(line string) bool { return strings.Contains(line, proceduralPhrase) },
	},
}

// rawItem carries the markup-level pieces of one agenda item before text
// heuristics run. The parser fills it from the DOM.
type rawItem struct {
	itemID         string
	itemNumber     string
	hasAttachments bool
	videoLocation  string
	text           string
	links          []Attachment
}

// extractItem turns a raw item into a normalized Item. It is a pure
// transformation: items lacking extractable structure still produce a record
// with RawText populated, and a misclassified title is an accepted outcome,
// not an error.
func extractItem(raw rawItem) Item {
	item := Item{
		ItemID:         raw.itemID,
		ItemNumber:     raw.itemNumber,
		HasAttachments: raw.hasAttachments,
		VideoLocation:  raw.videoLocation,
		RawText:        raw.text,
		Attachments:    raw.links,
	}

	if cf, ok := councilfile.ExtractFileNumber(raw.text); ok {
		item.CouncilFile = cf
	}
	if d, ok := councilfile.ExtractDistrict(raw.text); ok {
		item.District = d
	}
	if title, ok := extractTitle(raw.text); ok {
		item.Title = title
	}
	if rec, ok := extractRecommendation(raw.text); ok {
		item.Recommendation = rec
	}

	return item
}

// extractTitle scans the block's non-empty lines in order, skipping lines
// matched by any titleSkipRule, and returns the first remaining line longer
// than minTitleLength. If no line qualifies it falls back to the first
// non-empty line verbatim.
func extractTitle(text string) (string, bool) {
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		return "", false
	}

scan:
	for _, line := range lines {
		for _, rule := range titleSkipRules {
			if rule.skip(line) {
				continue scan
			}
		}
		if len(line) > minTitleLength {
			return line, true
		}
	}

	return lines[0], true
}

// extractRecommendation captures the text after the first
// "Recommendation…:" marker up to the next blank-line gap or the end of the
// block, with internal whitespace runs collapsed to single spaces.
func extractRecommendation(text string) (string, bool) {
	loc := recommendationRe.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	rest := text[loc[1]:]
	if gap := strings.Index(rest, "\n\n"); gap >= 0 {
		rest = rest[:gap]
	}

	rec := strings.TrimSpace(whitespaceRunRe.ReplaceAllString(rest, " "))
	if rec == "" {
		return "", false
	}
	return rec, true
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
