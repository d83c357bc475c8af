package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/ports"
	"SlangHarvester/internal/scanner"
)

const (
	containerSelector = "div.box"
	titleSelector     = "h1"
	upvoteSelector    = "button.btn-vote-up.rate-up"
	downvoteSelector  = "button.btn-vote-down.rate-down"
	bodySelector      = "p"
	quoteSelector     = "blockquote"
	authorSelector    = "span.user"
	dateSelector      = "span.datetime"
	labelSelector     = "span.label.label-positive, span.label.label-negative"
)

var magnitudes = map[string]float64{
	"k": 1_000,
	"m": 1_000_000,
}

// DefinitionExtractor turns a definition page into accepted records.
type DefinitionExtractor struct {
	fetcher ports.PageFetcher
	rootURL *url.URL
	logger  *slog.Logger
}

// NewDefinitionExtractor resolves relative links against rootURL.
func NewDefinitionExtractor(fetcher ports.PageFetcher, rootURL string, log *slog.Logger) (*DefinitionExtractor, error) {
	root, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root url %s: %w", rootURL, err)
	}
	return &DefinitionExtractor{fetcher: fetcher, rootURL: root, logger: log}, nil
}

// Extract fetches the linked page and returns its accepted definitions.
func (e *DefinitionExtractor) Extract(ctx context.Context, link domain.HarvestLink) scanner.Result[[]domain.DefinitionRecord] {
	ref, err := url.Parse(string(link))
	if err != nil {
		return scanner.Fail[[]domain.DefinitionRecord](fmt.Errorf("invalid link %s: %w", link, err))
	}
	pageURL := e.rootURL.ResolveReference(ref).String()

	res := e.fetcher.Fetch(ctx, pageURL)
	if !res.Ok() {
		return scanner.Fail[[]domain.DefinitionRecord](res.Reason)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Value))
	if err != nil {
		return scanner.Fail[[]domain.DefinitionRecord](fmt.Errorf("parse document: %w", err))
	}

	out := ParseDefinitions(doc, e.logger)
	if out.Status == scanner.StatusSkipped {
		e.debug("skip page", "url", pageURL, "reason", out.Reason)
	}
	return out
}

// ParseDefinitions applies the container layout and the vote acceptance policy to a definition page.
// A page without a title in its first container is skipped whole; a container missing fields is skipped alone.
func ParseDefinitions(doc *goquery.Document, log *slog.Logger) scanner.Result[[]domain.DefinitionRecord] {
	boxes := doc.Find(containerSelector)
	if boxes.Length() == 0 {
		return scanner.Skip[[]domain.DefinitionRecord](scanner.ErrMissingContainer)
	}

	header := boxes.First().Find(titleSelector).First()
	title := strings.TrimSpace(header.Text())
	if header.Length() == 0 || title == "" {
		return scanner.Skip[[]domain.DefinitionRecord](scanner.ErrMissingTitle)
	}

	records := make([]domain.DefinitionRecord, 0, boxes.Length())
	boxes.Each(func(i int, box *goquery.Selection) {
		rec, err := parseContainer(box, title)
		if err != nil {
			if log != nil {
				log.Debug("skip container", "title", title, "index", i, "reason", err)
			}
			return
		}
		if !rec.Accepted() {
			return
		}
		records = append(records, rec)
	})

	return scanner.OK(records)
}

func parseContainer(box *goquery.Selection, title string) (domain.DefinitionRecord, error) {
	var rec domain.DefinitionRecord

	upvotes, err := voteCount(box, upvoteSelector)
	if err != nil {
		return rec, fmt.Errorf("upvotes: %w", err)
	}
	downvotes, err := voteCount(box, downvoteSelector)
	if err != nil {
		return rec, fmt.Errorf("downvotes: %w", err)
	}

	explanation, err := requiredText(box, bodySelector)
	if err != nil {
		return rec, err
	}
	if explanation == "" {
		return rec, errors.New("empty explanation")
	}
	author, err := requiredText(box, authorSelector)
	if err != nil {
		return rec, err
	}
	date, err := requiredText(box, dateSelector)
	if err != nil {
		return rec, err
	}

	var examples []string
	box.Find(quoteSelector).Each(func(_ int, q *goquery.Selection) {
		examples = append(examples, strings.TrimSpace(q.Text()))
	})

	var labels []string
	box.Find(labelSelector).Each(func(_ int, l *goquery.Selection) {
		labels = append(labels, strings.TrimSpace(l.Text()))
	})

	rec = domain.DefinitionRecord{
		Word:        domain.NormalizeWord(title),
		Title:       title,
		Explanation: explanation,
		Examples:    strings.Join(examples, domain.ExampleSeparator),
		Author:      author,
		PostedDate:  date,
		Upvotes:     upvotes,
		Downvotes:   downvotes,
		Labels:      strings.Join(labels, domain.LabelSeparator),
	}
	return rec, nil
}

func voteCount(box *goquery.Selection, selector string) (int, error) {
	node := box.Find(selector).First()
	if node.Length() == 0 {
		return 0, fmt.Errorf("missing %s", selector)
	}
	return ParseVotes(node.Text())
}

func requiredText(box *goquery.Selection, selector string) (string, error) {
	node := box.Find(selector).First()
	if node.Length() == 0 {
		return "", fmt.Errorf("missing %s", selector)
	}
	return strings.TrimSpace(node.Text()), nil
}

// ParseVotes reads a vote count such as "15", "1k" or "2,7k".
// A scale suffix multiplies the prefix after a decimal comma is read as a decimal point.
func ParseVotes(raw string) (int, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return 0, errors.New("empty vote count")
	}

	for suffix, scale := range magnitudes {
		if !strings.HasSuffix(value, suffix) {
			continue
		}
		prefix := strings.TrimSpace(strings.TrimSuffix(value, suffix))
		prefix = strings.ReplaceAll(prefix, ",", ".")
		f, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return 0, fmt.Errorf("parse vote count %q: %w", raw, err)
		}
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("invalid vote count %q", raw)
		}
		return int(math.Round(f * scale)), nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse vote count %q: %w", raw, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid vote count %q", raw)
	}
	return n, nil
}

func (e *DefinitionExtractor) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
