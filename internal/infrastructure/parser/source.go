package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"SlangHarvester/internal/config"
	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/ports"
	"SlangHarvester/internal/scanner"
)

// TabSource implements DefinitionSource over the configured site tabs.
type TabSource struct {
	tabs       []scanner.Tab
	discoverer *LinkDiscoverer
	extractor  *DefinitionExtractor
	logger     *slog.Logger
}

var _ ports.DefinitionSource = (*TabSource)(nil)

// NewTabSource wires discovery and extraction for the site described in config.
func NewTabSource(fetcher ports.PageFetcher, site config.SiteConfig, concurrency int, log *slog.Logger) (*TabSource, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("page fetcher is not configured")
	}

	extractor, err := NewDefinitionExtractor(fetcher, site.RootURL, log)
	if err != nil {
		return nil, err
	}

	return &TabSource{
		tabs:       ToTabs(site),
		discoverer: NewLinkDiscoverer(fetcher, site.WordPathPrefix, concurrency, log),
		extractor:  extractor,
		logger:     log,
	}, nil
}

// Tabs reports how many tabs a cycle will walk.
func (s *TabSource) Tabs() int {
	return len(s.tabs)
}

// DiscoverLinks collects definition-page links across all tabs.
func (s *TabSource) DiscoverLinks(ctx context.Context) ([]domain.HarvestLink, error) {
	s.debug("discover links", "tabs", len(s.tabs))
	links, err := s.discoverer.Discover(ctx, s.tabs)
	s.debug("discovery done", "links", len(links), "error", err)
	return links, err
}

// ExtractDefinitions fetches one definition page and returns its accepted records.
func (s *TabSource) ExtractDefinitions(ctx context.Context, link domain.HarvestLink) scanner.Result[[]domain.DefinitionRecord] {
	return s.extractor.Extract(ctx, link)
}

// ToTabs resolves configured tab names against the browse root.
func ToTabs(site config.SiteConfig) []scanner.Tab {
	tabs := make([]scanner.Tab, 0, len(site.Tabs))
	for _, name := range site.Tabs {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tabs = append(tabs, scanner.Tab{
			Name: name,
			URL:  site.BrowseRootURL + name,
		})
	}
	return tabs
}

func (s *TabSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
