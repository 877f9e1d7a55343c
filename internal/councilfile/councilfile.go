// Package councilfile recognizes the identifier tokens that tie municipal
// legislative records together: council file numbers, council district tags,
// and the historyId join key embedded in attachment URLs.
//
// All functions are pure and total. A missing token is a normal outcome
// reported through the boolean return, never an error.
package councilfile

import (
	"regexp"
	"strings"
)

var (
	// Council file numbers look like 25-0160 or 25-0160-S93: a two-digit
	// year, a four-digit sequence, and an optional alphanumeric suffix.
	fileNumberRe = regexp.MustCompile(`\b(\d{2}-\d{4}(?:-[A-Z0-9]+)?)\b`)

	districtRe = regexp.MustCompile(`\b(CD \d+)\b`)
)

// historyIDParam is the query parameter that links an attachment URL to its
// summary record.
const historyIDParam = "historyId="

// ExtractFileNumber returns the first council file number found in text.
func ExtractFileNumber(text string) (string, bool) {
	m := fileNumberRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractDistrict returns the first council district tag (e.g. "CD 10")
// found in text.
func ExtractDistrict(text string) (string, bool) {
	m := districtRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractHistoryID returns everything after the last "historyId=" in url.
// The value is opaque: it is the join key into the summary store and is not
// guaranteed unique across unrelated attachments.
func ExtractHistoryID(url string) (string, bool) {
	i := strings.LastIndex(url, historyIDParam)
	if i < 0 {
		return "", false
	}
	return url[i+len(historyIDParam):], true
}
