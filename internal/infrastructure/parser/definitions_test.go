package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"SlangHarvester/internal/infrastructure/fetcher"
	"SlangHarvester/internal/scanner"
)

func container(title, up, down, body string, extra string) string {
	var b strings.Builder
	b.WriteString(`<div class="box">`)
	if title != "" {
		b.WriteString(`<h1>` + title + `</h1>`)
	}
	b.WriteString(`<p>` + body + `</p>`)
	b.WriteString(extra)
	b.WriteString(`<span class="user">poster</span><span class="datetime">12.03.2021</span>`)
	b.WriteString(`<button class="btn btn-vote-up rate-up"> ` + up + ` </button>`)
	b.WriteString(`<button class="btn btn-vote-down rate-down">` + down + `</button>`)
	b.WriteString(`</div>`)
	return b.String()
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

func TestParseVotes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "2,7k", want: 2700},
		{in: "15", want: 15},
		{in: "1k", want: 1000},
		{in: " 1.5K ", want: 1500},
		{in: "4,35k", want: 4350},
		{in: "0", want: 0},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "k", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseVotes(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseVotes(%q): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseVotes(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseVotes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseDefinitionsAcceptancePolicy(t *testing.T) {
	t.Parallel()

	html := `<html><body>` +
		container("Kalja", "5", "10", "rejected body", "") +
		container("", "10", "10", "equal votes body",
			`<blockquote> first quote </blockquote><blockquote>second quote</blockquote>`+
				`<span class="label label-positive"> hauska (3) </span><span class="label label-negative">tyhmä (1)</span>`+
				`<span class="label label-neutral">ignored</span>`) +
		container("", "2,7k", "12", "popular body", "") +
		`</body></html>`

	res := ParseDefinitions(mustDoc(t, html), nil)
	if !res.Ok() {
		t.Fatalf("expected ok result, got %v: %v", res.Status, res.Reason)
	}
	if len(res.Value) != 2 {
		t.Fatalf("expected 2 accepted definitions, got %d", len(res.Value))
	}

	first := res.Value[0]
	if first.Word != "kalja" || first.Title != "Kalja" {
		t.Fatalf("title must be shared from the page header: %+v", first)
	}
	if first.Explanation != "equal votes body" {
		t.Fatalf("unexpected explanation: %q", first.Explanation)
	}
	if first.Examples != "first quote\n\nsecond quote" {
		t.Fatalf("unexpected examples: %q", first.Examples)
	}
	if first.Labels != "hauska (3), tyhmä (1)" {
		t.Fatalf("unexpected labels: %q", first.Labels)
	}
	if first.Author != "poster" || first.PostedDate != "12.03.2021" {
		t.Fatalf("unexpected author/date: %+v", first)
	}
	if first.Upvotes != 10 || first.Downvotes != 10 {
		t.Fatalf("unexpected votes: %+v", first)
	}

	second := res.Value[1]
	if second.Upvotes != 2700 || second.Examples != "" || second.Labels != "" {
		t.Fatalf("unexpected second definition: %+v", second)
	}
}

func TestParseDefinitionsMissingTitleSkipsPage(t *testing.T) {
	t.Parallel()

	html := container("", "10", "1", "body", "") + container("Late Title", "10", "1", "body", "")
	res := ParseDefinitions(mustDoc(t, html), nil)
	if res.Status != scanner.StatusSkipped || !errors.Is(res.Reason, scanner.ErrMissingTitle) {
		t.Fatalf("expected missing title skip, got %v: %v", res.Status, res.Reason)
	}

	res = ParseDefinitions(mustDoc(t, `<html><body><p>nothing here</p></body></html>`), nil)
	if res.Status != scanner.StatusSkipped || !errors.Is(res.Reason, scanner.ErrMissingContainer) {
		t.Fatalf("expected missing container skip, got %v: %v", res.Status, res.Reason)
	}
}

func TestParseDefinitionsSkipsBrokenContainer(t *testing.T) {
	t.Parallel()

	broken := `<div class="box"><p>no votes or author here</p></div>`
	badVotes := container("", "lots", "1", "bad votes", "")
	html := container("Sana", "3", "1", "good", "") + broken + badVotes + container("", "4", "0", "also good", "")

	res := ParseDefinitions(mustDoc(t, html), nil)
	if !res.Ok() {
		t.Fatalf("expected ok result, got %v", res.Status)
	}
	if len(res.Value) != 2 {
		t.Fatalf("expected broken containers to be skipped individually, got %d records", len(res.Value))
	}
	if res.Value[0].Explanation != "good" || res.Value[1].Explanation != "also good" {
		t.Fatalf("unexpected records: %+v", res.Value)
	}
}

func TestDefinitionExtractorExtract(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/word/foo/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(container("Foo", "10", "2", "a foo", "") + container("", "1", "9", "bad foo", "")))
	})
	mux.HandleFunc("/word/gone/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ex, err := NewDefinitionExtractor(fetcher.New(server.Client(), 0), server.URL, nil)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	res := ex.Extract(context.Background(), "/word/foo/")
	if !res.Ok() || len(res.Value) != 1 {
		t.Fatalf("expected one accepted record, got %v (%d)", res.Status, len(res.Value))
	}
	if res.Value[0].Title != "Foo" || res.Value[0].Word != "foo" {
		t.Fatalf("unexpected record: %+v", res.Value[0])
	}

	res = ex.Extract(context.Background(), "/word/gone/")
	if res.Status != scanner.StatusFailed || len(res.Value) != 0 {
		t.Fatalf("expected failed result for server error, got %v", res.Status)
	}
}
