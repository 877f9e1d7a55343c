// Package fetch downloads agenda HTML and attachment PDFs from the PrimeGov
// meeting portal.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// maxAgendaSize caps an agenda HTML download. Portal agendas run to a few
	// hundred kilobytes; anything larger is not an agenda.
	maxAgendaSize = 10 << 20

	// maxPDFSize caps an attachment download. Compiled attachment histories
	// can be large scanned documents.
	maxPDFSize = 100 << 20
)

// Client communicates with a PrimeGov portal instance over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client targeting the given portal base URL,
// e.g. "https://lacity.primegov.com".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 0,
		},
	}
}

// AgendaURL returns the portal page for one meeting template.
func (c *Client) AgendaURL(templateID int) string {
	return fmt.Sprintf("%s/Portal/Meeting?meetingTemplateId=%d", c.baseURL, templateID)
}

// AttachmentURL returns the download endpoint for one attachment history.
func (c *Client) AttachmentURL(historyID string) string {
	return fmt.Sprintf("%s/api/compilemeetingattachmenthistory/historyattachment/?historyId=%s", c.baseURL, historyID)
}

// AgendaHTML fetches the agenda page markup for one meeting template.
func (c *Client) AgendaHTML(ctx context.Context, templateID int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	return c.get(ctx, c.AgendaURL(templateID), maxAgendaSize)
}

// AttachmentPDF fetches the compiled attachment document for one history ID.
func (c *Client) AttachmentPDF(ctx context.Context, historyID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	return c.get(ctx, c.AttachmentURL(historyID), maxPDFSize)
}

func (c *Client) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
