package ports

import (
	"context"

	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/scanner"
)

// PageFetcher retrieves a page body; failures come back as a failed result, never as a panic or error.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) scanner.Result[[]byte]
}

// DefinitionSource discovers definition pages and extracts records from them.
// DiscoverLinks reports only unexpected failures; unreachable tabs and pages are skipped silently.
type DefinitionSource interface {
	Tabs() int
	DiscoverLinks(ctx context.Context) ([]domain.HarvestLink, error)
	ExtractDefinitions(ctx context.Context, link domain.HarvestLink) scanner.Result[[]domain.DefinitionRecord]
}

// DefinitionStore persists records keyed by word with duplicate suppression.
type DefinitionStore interface {
	Save(ctx context.Context, rec domain.DefinitionRecord) (domain.InsertOutcome, error)
	Insert(ctx context.Context, rec domain.DefinitionRecord) (bool, error)
	Lookup(ctx context.Context, word string) (domain.DefinitionSet, error)
	ListAll(ctx context.Context) ([]domain.DefinitionRecord, error)
	RemoveDuplicates(ctx context.Context) (int64, error)
	Close() error
}

// Notifier publishes cycle reports to an operator channel.
type Notifier interface {
	PublishReport(ctx context.Context, report domain.CycleReport, cycleErr error) error
}

// CycleObserver records cycle outcomes, e.g. as metrics.
type CycleObserver interface {
	ObserveCycle(report domain.CycleReport, cycleErr error)
}

// Scheduler controls when harvest cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context)) error
	Stop(ctx context.Context) error
}
