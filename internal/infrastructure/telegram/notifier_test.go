package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SlangHarvester/internal/domain"
)

func TestPublishReport(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotPath = r.URL.Path
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
	}))
	defer server.Close()

	n := NewNotifier("secret", "42")
	n.apiBase = server.URL
	n.client = server.Client()

	start := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	report := domain.CycleReport{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Minute),
		Tabs:       3,
		Links:      10,
		Extracted:  8,
		Inserted:   5,
		Duplicates: 3,
	}
	if err := n.PublishReport(context.Background(), report, nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if gotPath != "/botsecret/sendMessage" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotChat != "42" {
		t.Fatalf("unexpected chat id: %s", gotChat)
	}
	if !strings.Contains(gotText, "run-1 finished in 2m0s") || !strings.Contains(gotText, "5 new") {
		t.Fatalf("unexpected text: %q", gotText)
	}
}

func TestPublishReportErrors(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "").PublishReport(context.Background(), domain.CycleReport{}, nil); err == nil {
		t.Fatalf("expected misconfiguration error")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	n := NewNotifier("bad", "1")
	n.apiBase = server.URL
	if err := n.PublishReport(context.Background(), domain.CycleReport{}, nil); err == nil {
		t.Fatalf("expected error on non-200 status")
	}
}

func TestFormatReportFailure(t *testing.T) {
	t.Parallel()

	text := FormatReport(domain.CycleReport{RunID: "r", StorageFaults: 2}, errors.New("panic in parser"))
	if !strings.Contains(text, "r failed: panic in parser") {
		t.Fatalf("unexpected text: %q", text)
	}
	if !strings.Contains(text, "2 not saved") {
		t.Fatalf("expected storage faults in text: %q", text)
	}
}
