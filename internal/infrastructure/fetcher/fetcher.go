package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"SlangHarvester/internal/ports"
	"SlangHarvester/internal/scanner"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultUserAgent   = "SlangHarvester/1.0"
	defaultMaxBodySize = 5 << 20
)

// HTTPFetcher issues timeout-guarded GET requests.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

var _ ports.PageFetcher = (*HTTPFetcher)(nil)

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithLogger attaches a logger for fetch failures.
func WithLogger(l *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = l
	}
}

// New wires an HTTP client; a nil client gets a fresh one with the given timeout (10s when zero).
func New(client *http.Client, timeout time.Duration, opts ...Option) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	} else if client.Timeout == 0 {
		copied := *client
		copied.Timeout = timeout
		client = &copied
	}

	f := &HTTPFetcher{
		client:      client,
		userAgent:   defaultUserAgent,
		maxBodySize: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the page body, or a failed result on transport errors, timeouts and non-2xx statuses.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) scanner.Result[[]byte] {
	body, err := f.get(ctx, pageURL)
	if err != nil {
		f.debug("fetch failed", "url", pageURL, "error", err)
		return scanner.Fail[[]byte](err)
	}
	return scanner.OK(body)
}

func (f *HTTPFetcher) get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("remote returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (f *HTTPFetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
