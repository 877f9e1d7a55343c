package agenda

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"

	"counciltrack/internal/councilfile"
)

// Section and item boundaries are marked structurally in the portal markup,
// independent of visual heading levels.
const (
	sectionMarkerAttr = "data-sectionid"
	itemMarkerAttr    = "data-itemid"

	numberCellClass = "number-cell"
	itemCellClass   = "item-cell"
)

const untitledSection = "Untitled Section"

// Section titles longer than this are referral notes or item text that leaked
// into the heading position, not real titles.
const maxSectionTitleLength = 200

// Parser converts raw agenda markup into a Document. One Parser may be
// shared across goroutines; it holds no mutable state.
type Parser struct {
	portalBaseURL string
	now           func() time.Time
}

// NewParser returns a Parser. portalBaseURL is used only to reconstruct the
// canonical portal URL recorded on each Document.
func NewParser(portalBaseURL string) *Parser {
	return &Parser{
		portalBaseURL: strings.TrimRight(portalBaseURL, "/"),
		now:           time.Now,
	}
}

// Parse reads agenda HTML and emits one self-contained Document for the
// meeting. Malformed or unexpected markup degrades to a best-effort,
// possibly-empty document; only an unreadable input stream is an error, in
// which case the meeting should be skipped by the caller.
func (p *Parser) Parse(r io.Reader, meetingID, templateID int) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing agenda markup for meeting %d: %w", meetingID, err)
	}

	sections := p.parseSections(root)

	totalItems := 0
	for _, s := range sections {
		totalItems += len(s.Items)
	}

	return &Document{
		MeetingID:     meetingID,
		TemplateID:    templateID,
		ParsedAt:      p.now().UTC().Format(time.RFC3339),
		PortalURL:     fmt.Sprintf("%s/Portal/Meeting?meetingTemplateId=%d", p.portalBaseURL, templateID),
		Sections:      sections,
		TotalItems:    totalItems,
		TotalSections: len(sections),
	}, nil
}

func (p *Parser) parseSections(root *html.Node) []Section {
	sections := []Section{}
	for _, sectionNode := range findAllWithAttr(root, sectionMarkerAttr) {
		id, _ := attrValue(sectionNode, sectionMarkerAttr)
		sections = append(sections, Section{
			SectionID: id,
			Title:     sectionTitle(sectionNode),
			Items:     p.parseItems(sectionNode),
		})
	}
	return sections
}

func (p *Parser) parseItems(sectionNode *html.Node) []Item {
	items := []Item{}
	for _, itemNode := range findAllWithAttr(sectionNode, itemMarkerAttr) {
		if item, ok := parseItemNode(itemNode); ok {
			items = append(items, item)
		}
	}
	return items
}

// parseItemNode extracts one agenda item from its marked element. Items with
// no item-cell carry no usable content and are dropped.
func parseItemNode(itemNode *html.Node) (Item, bool) {
	itemCell := findFirstWithClass(itemNode, itemCellClass)
	if itemCell == nil {
		return Item{}, false
	}

	raw := rawItem{
		text:  textContent(itemCell, "\n"),
		links: extractLinks(itemCell),
	}
	raw.itemID, _ = attrValue(itemNode, itemMarkerAttr)
	raw.videoLocation, _ = attrValue(itemNode, "data-videolocation")
	if v, ok := attrValue(itemNode, "data-hasattachments"); ok {
		raw.hasAttachments = v == "True"
	}
	if numberCell := findFirstWithClass(itemNode, numberCellClass); numberCell != nil {
		raw.itemNumber = textContent(numberCell, "")
	}

	return extractItem(raw), true
}

// sectionTitle hunts for a heading inside the section scope, trying heading
// tags in descending prominence, then the section's first short text line,
// then the sentinel title.
func sectionTitle(sectionNode *html.Node) string {
	for _, tag := range []string{"h1", "h2", "h3", "h4", "h5", "strong", "b"} {
		if heading := findFirstElement(sectionNode, tag); heading != nil {
			if t := textContent(heading, ""); t != "" {
				return t
			}
		}
	}

	if segments := textSegments(sectionNode); len(segments) > 0 {
		first := segments[0]
		if len(first) < maxSectionTitleLength {
			return first
		}
	}

	return untitledSection
}

// extractLinks keeps every hyperlink in the subtree with a non-trivial
// target. Link text defaults to a generic placeholder. Filtering and
// deduplication are deliberately deferred to the aggregation layer.
func extractLinks(n *html.Node) []Attachment {
	var links []Attachment
	walk(n, func(node *html.Node) {
		if node.Type != html.ElementNode || node.Data != "a" {
			return
		}
		href, ok := attrValue(node, "href")
		if !ok || len(href) < 5 {
			return
		}
		text := textContent(node, "")
		if text == "" {
			text = "Attachment"
		}
		att := Attachment{Text: text, URL: href}
		if id, ok := councilfile.ExtractHistoryID(href); ok {
			att.HistoryID = id
		}
		links = append(links, att)
	})
	return links
}

// --- DOM helpers ---

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findAllWithAttr(root *html.Node, key string) []*html.Node {
	var found []*html.Node
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if _, ok := attrValue(n, key); ok {
			found = append(found, n)
		}
	})
	return found
}

func findFirstWithClass(root *html.Node, class string) *html.Node {
	return findFirst(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, class)
	})
}

func findFirstElement(root *html.Node, tag string) *html.Node {
	return findFirst(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	})
}

// findFirst returns the first node in document order (excluding root itself)
// matching the predicate.
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attrValue(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// textSegments collects the trimmed, non-empty text nodes of the subtree in
// document order. Script and style contents are excluded.
func textSegments(n *html.Node) []string {
	var segments []string
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				segments = append(segments, t)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return segments
}

func textContent(n *html.Node, sep string) string {
	return strings.Join(textSegments(n), sep)
}
