package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/ports"
	"SlangHarvester/internal/scanner"
)

const (
	defaultWordPrefix  = "/word/"
	defaultConcurrency = 4
	defaultMaxPages    = 1000
	pageParam          = "page"
)

// ErrDiscoveryPanicked wraps a panic recovered while scanning a listing page.
var ErrDiscoveryPanicked = errors.New("link discovery panicked")

// LinkDiscoverer walks every page of every tab and collects definition-page links.
type LinkDiscoverer struct {
	fetcher     ports.PageFetcher
	wordPrefix  string
	concurrency int
	maxPages    int
	logger      *slog.Logger
}

// NewLinkDiscoverer wires a fetcher; wordPrefix defaults to "/word/".
func NewLinkDiscoverer(fetcher ports.PageFetcher, wordPrefix string, concurrency int, log *slog.Logger) *LinkDiscoverer {
	if wordPrefix == "" {
		wordPrefix = defaultWordPrefix
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &LinkDiscoverer{
		fetcher:     fetcher,
		wordPrefix:  wordPrefix,
		concurrency: concurrency,
		maxPages:    defaultMaxPages,
		logger:      log,
	}
}

// Discover returns links from all tabs in tab order, duplicates included.
// A tab whose root page cannot be fetched is skipped; so is any single page that fails.
// A panic inside a tab is recovered and returned wrapped in ErrDiscoveryPanicked
// together with the links the other pages and tabs produced.
func (d *LinkDiscoverer) Discover(ctx context.Context, tabs []scanner.Tab) ([]domain.HarvestLink, error) {
	var (
		links []domain.HarvestLink
		errs  []error
	)
	for _, tab := range tabs {
		found, err := d.discoverTab(ctx, tab)
		if err != nil {
			errs = append(errs, err)
		}
		d.debug("tab scanned", "tab", tab.Name, "links", len(found))
		links = append(links, found...)
	}
	return links, errors.Join(errs...)
}

func (d *LinkDiscoverer) discoverTab(ctx context.Context, tab scanner.Tab) (links []domain.HarvestLink, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: tab %s: %v", ErrDiscoveryPanicked, tab.Name, r)
		}
	}()

	root := d.fetcher.Fetch(ctx, tab.URL)
	if !root.Ok() {
		d.debug("skip tab", "tab", tab.Name, "reason", root.Reason)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(root.Value))
	if err != nil {
		d.debug("skip tab", "tab", tab.Name, "reason", err)
		return nil, nil
	}

	pages := pageCount(doc)
	if pages > d.maxPages {
		d.debug("clamp page count", "tab", tab.Name, "pages", pages, "max", d.maxPages)
		pages = d.maxPages
	}

	perPage := make([][]domain.HarvestLink, pages)
	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for page := 1; page <= pages; page++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: tab %s page %d: %v", ErrDiscoveryPanicked, tab.Name, page, r)
				}
			}()

			pageURL, err := buildPageURL(tab.URL, page)
			if err != nil {
				d.debug("skip page", "tab", tab.Name, "page", page, "reason", err)
				return nil
			}

			res := d.fetcher.Fetch(ctx, pageURL)
			if !res.Ok() {
				d.debug("skip page", "tab", tab.Name, "page", page, "reason", res.Reason)
				return nil
			}

			pageDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Value))
			if err != nil {
				d.debug("skip page", "tab", tab.Name, "page", page, "reason", err)
				return nil
			}

			perPage[page-1] = collectWordLinks(pageDoc, d.wordPrefix)
			return nil
		})
	}
	// only recovered panics come back as errors; the other pages have finished by now
	err = g.Wait()

	for _, found := range perPage {
		links = append(links, found...)
	}
	return links, err
}

// pageCount is the highest ?page=N seen on the listing, or 1 when there is no pagination.
func pageCount(doc *goquery.Document) int {
	pages := 1
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(href, "?") {
			return
		}
		parsed, err := url.Parse(href)
		if err != nil {
			return
		}
		n, err := strconv.Atoi(parsed.Query().Get(pageParam))
		if err != nil {
			return
		}
		if n > pages {
			pages = n
		}
	})
	return pages
}

func collectWordLinks(doc *goquery.Document, prefix string) []domain.HarvestLink {
	var links []domain.HarvestLink
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if strings.HasPrefix(href, prefix) {
			links = append(links, domain.HarvestLink(href))
		}
	})
	return links
}

func buildPageURL(tabURL string, page int) (string, error) {
	parsed, err := url.Parse(tabURL)
	if err != nil {
		return "", fmt.Errorf("invalid tab url %s: %w", tabURL, err)
	}

	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	query := parsed.Query()
	query.Set(pageParam, strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (d *LinkDiscoverer) debug(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
