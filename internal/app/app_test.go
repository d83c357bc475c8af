package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"SlangHarvester/internal/config"
	"SlangHarvester/internal/logging"
)

const wordPage = `<html><body>
<div class="box"><h1>Foo</h1><p>a placeholder word</p>
<blockquote>foo bar</blockquote>
<span class="user">tester</span><span class="datetime">1.2.2023</span>
<button class="btn-vote-up rate-up">10</button><button class="btn-vote-down rate-down">2</button></div>
<div class="box"><p>nobody likes this one</p>
<span class="user">troll</span><span class="datetime">2.2.2023</span>
<button class="btn-vote-up rate-up">1</button><button class="btn-vote-down rate-down">9</button></div>
</body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/browse/f", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/word/foo/">foo</a></body></html>`))
	})
	mux.HandleFunc("/browse/f/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/word/foo/">foo</a><a href="/word/gone/">gone</a></body></html>`))
	})
	mux.HandleFunc("/word/foo/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(wordPage))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, siteURL string) config.Config {
	t.Helper()

	runOnStart := false
	return config.Config{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "words.db")},
		Site: config.SiteConfig{
			RootURL:        siteURL,
			BrowseRootURL:  siteURL + "/browse/",
			WordPathPrefix: "/word/",
			Tabs:           []string{"f", "q"},
		},
		Fetcher:   config.FetcherConfig{Timeout: 2 * time.Second, Concurrency: 2},
		Scheduler: config.SchedulerConfig{Interval: time.Hour, RunOnStart: &runOnStart},
	}
}

func TestHarvestOnceStoresAcceptedDefinitions(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	ctx := context.Background()

	application, err := New(ctx, testConfig(t, site.URL), logging.Discard())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	defer application.Close()

	report, err := application.HarvestOnce(ctx)
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}
	if report.Tabs != 2 || report.Links != 2 || report.LinksFailed != 1 {
		t.Fatalf("unexpected link counts: %+v", report)
	}
	if report.Extracted != 1 || report.Inserted != 1 {
		t.Fatalf("unexpected definition counts: %+v", report)
	}

	set, err := application.Lookup(ctx, "FOO")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("expected exactly one definition, got %d", len(set))
	}
	if set[0].Title != "Foo" || set[0].Examples != "foo bar" || set[0].Upvotes != 10 {
		t.Fatalf("unexpected definition: %+v", set[0])
	}

	again, err := application.HarvestOnce(ctx)
	if err != nil {
		t.Fatalf("second harvest: %v", err)
	}
	if again.Inserted != 0 || again.Duplicates != 1 {
		t.Fatalf("second harvest must be idempotent: %+v", again)
	}

	removed, err := application.Dedupe(ctx)
	if err != nil {
		t.Fatalf("dedupe: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing to remove, got %d", removed)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	site := newSite(t)
	application, err := New(context.Background(), testConfig(t, site.URL), logging.Discard())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- application.Serve(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func TestNewFailsWithoutDatabasePath(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1")
	cfg.Database.Path = ""
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatalf("expected error for empty database path")
	}
}
