package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/ports"
	"SlangHarvester/internal/scanner"
)

const defaultConcurrency = 4

var (
	// ErrCycleRunning is returned when a cycle is requested while another one is in progress.
	ErrCycleRunning = errors.New("harvest cycle already running")
	// ErrCyclePanicked wraps a panic recovered inside a cycle.
	ErrCyclePanicked = errors.New("harvest cycle panicked")
	// ErrNotConfigured is returned when the pipeline lacks a source or a store.
	ErrNotConfigured = errors.New("pipeline is not configured")
)

// State is the orchestrator state.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// PipelineDeps wires all driven adapters into the harvest pipeline.
type PipelineDeps struct {
	Source      ports.DefinitionSource
	Store       ports.DefinitionStore
	Logger      *slog.Logger
	Concurrency int
}

// Pipeline runs one harvest cycle: discover links, extract definitions, store them.
type Pipeline struct {
	source      ports.DefinitionSource
	store       ports.DefinitionStore
	logger      *slog.Logger
	concurrency int

	state    atomic.Int32
	newRunID func() string
	now      func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Pipeline{
		source:      deps.Source,
		store:       deps.Store,
		logger:      logger,
		concurrency: concurrency,
		newRunID:    uuid.NewString,
		now:         time.Now,
	}
}

// State reports whether a cycle is currently running.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// RunCycle performs one harvest. Per-link failures are counted and skipped; only a panic or a
// closed store makes the cycle fail, and even then every sibling unit finishes first.
// Links found before a discovery failure are still harvested.
func (p *Pipeline) RunCycle(ctx context.Context) (report domain.CycleReport, err error) {
	if p.source == nil || p.store == nil {
		return report, ErrNotConfigured
	}
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return report, ErrCycleRunning
	}
	defer p.state.Store(int32(StateIdle))

	report.RunID = p.newRunID()
	report.StartedAt = p.now()
	log := p.logger.With("run_id", report.RunID)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCyclePanicked, r)
		}
		report.FinishedAt = p.now()
		if err != nil {
			log.Error("harvest cycle failed", "error", err, "links", report.Links, "inserted", report.Inserted)
			return
		}
		log.Info("harvest cycle finished",
			"links", report.Links,
			"links_failed", report.LinksFailed,
			"links_skipped", report.LinksSkipped,
			"extracted", report.Extracted,
			"inserted", report.Inserted,
			"duplicates", report.Duplicates,
			"storage_faults", report.StorageFaults,
			"duration", report.Duration(),
		)
	}()

	report.Tabs = p.source.Tabs()
	log.Info("harvest cycle started", "tabs", report.Tabs)

	links, discoverErr := p.source.DiscoverLinks(ctx)
	report.Links = len(links)
	log.Debug("links discovered", "count", len(links))
	if discoverErr != nil {
		log.Warn("link discovery incomplete", "error", discoverErr)
	}

	err = p.extractAndStore(ctx, links, &report, log)
	if err == nil && discoverErr != nil {
		err = fmt.Errorf("%w: discover links: %w", ErrCyclePanicked, discoverErr)
	}
	return report, err
}

// extractAndStore fans extraction out over a bounded errgroup while a single writer owns every insert.
func (p *Pipeline) extractAndStore(ctx context.Context, links []domain.HarvestLink, report *domain.CycleReport, log *slog.Logger) error {
	batches := make(chan []domain.DefinitionRecord, p.concurrency)
	writerDone := make(chan error, 1)
	go func() {
		writerDone <- p.write(ctx, batches, report, log)
	}()

	var (
		mu       sync.Mutex
		failed   int
		skipped  int
		produced int
	)

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, link := range links {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: link %s: %v", ErrCyclePanicked, link, r)
				}
			}()

			res := p.source.ExtractDefinitions(ctx, link)

			mu.Lock()
			switch res.Status {
			case scanner.StatusFailed:
				failed++
			case scanner.StatusSkipped:
				skipped++
			case scanner.StatusOK:
				produced += len(res.Value)
			}
			mu.Unlock()

			if res.Status != scanner.StatusOK {
				log.Debug("link not harvested", "link", link, "status", res.Status, "reason", res.Reason)
				return nil
			}
			if len(res.Value) > 0 {
				batches <- res.Value
			}
			return nil
		})
	}
	workErr := g.Wait()
	close(batches)
	writeErr := <-writerDone

	report.LinksFailed = failed
	report.LinksSkipped = skipped
	report.Extracted = produced

	if writeErr != nil {
		return writeErr
	}
	return workErr
}

// write drains every batch even after a fatal store error so workers never block.
func (p *Pipeline) write(ctx context.Context, batches <-chan []domain.DefinitionRecord, report *domain.CycleReport, log *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: writer: %v", ErrCyclePanicked, r)
			for range batches {
			}
		}
	}()

	for batch := range batches {
		if err != nil {
			continue
		}
		for _, rec := range batch {
			outcome, saveErr := p.store.Save(ctx, rec)
			if saveErr != nil {
				err = fmt.Errorf("store definition %q: %w", rec.Word, saveErr)
				break
			}
			switch outcome {
			case domain.OutcomeInserted:
				report.Inserted++
			case domain.OutcomeDuplicate:
				report.Duplicates++
			case domain.OutcomeInvalid:
				report.Invalid++
			case domain.OutcomeFaulted:
				report.StorageFaults++
				log.Warn("definition not saved", "word", rec.Word, "title", rec.Title)
			}
		}
	}
	return err
}
