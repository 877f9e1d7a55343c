package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAgendaHTML(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte("<html><body>agenda</body></html>"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	body, err := c.AgendaHTML(context.Background(), 16377)
	if err != nil {
		t.Fatalf("AgendaHTML: %v", err)
	}
	if string(body) != "<html><body>agenda</body></html>" {
		t.Errorf("body = %q", body)
	}
	if gotPath != "/Portal/Meeting" || gotQuery != "meetingTemplateId=16377" {
		t.Errorf("requested %s?%s", gotPath, gotQuery)
	}
}

func TestAttachmentPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("historyId") != "abc-123" {
			t.Errorf("historyId = %q", r.URL.Query().Get("historyId"))
		}
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	body, err := c.AttachmentPDF(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("AttachmentPDF: %v", err)
	}
	if string(body) != "%PDF-1.4" {
		t.Errorf("body = %q", body)
	}
}

func TestGet_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.AgendaHTML(context.Background(), 1); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("https://lacity.primegov.com/")
	want := "https://lacity.primegov.com/Portal/Meeting?meetingTemplateId=5"
	if got := c.AgendaURL(5); got != want {
		t.Errorf("AgendaURL = %q, want %q", got, want)
	}
}
