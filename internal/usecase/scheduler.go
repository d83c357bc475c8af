package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"SlangHarvester/internal/domain"
	"SlangHarvester/internal/ports"
)

// SchedulerDeps wires the recurring driver with the pipeline and its observers.
type SchedulerDeps struct {
	Driver   ports.Scheduler
	Pipeline *Pipeline
	Observer ports.CycleObserver
	Notifier ports.Notifier
	Logger   *slog.Logger
}

// Scheduler runs harvest cycles on the driver's recurrence and on demand.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	observer ports.CycleObserver
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		driver:   deps.Driver,
		pipeline: deps.Pipeline,
		observer: deps.Observer,
		notifier: deps.Notifier,
		logger:   logger,
	}
}

// Start registers the pipeline with the provided scheduler. A failed cycle, or a panic while
// reporting it, is logged and the schedule carries on.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(jobCtx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("harvest job panicked", "error", fmt.Errorf("%w: %v", ErrCyclePanicked, r))
			}
		}()
		_, _ = s.RunOnce(jobCtx)
	}

	return s.driver.Start(ctx, job)
}

// RunOnce executes a single cycle and forwards its report to the observer and notifier.
func (s *Scheduler) RunOnce(ctx context.Context) (domain.CycleReport, error) {
	if s.pipeline == nil {
		return domain.CycleReport{}, ErrNotConfigured
	}

	report, err := s.pipeline.RunCycle(ctx)
	if errors.Is(err, ErrCycleRunning) {
		s.logger.Warn("harvest cycle skipped", "reason", err)
		return report, err
	}

	if s.observer != nil {
		s.observer.ObserveCycle(report, err)
	}
	if s.notifier != nil {
		if nErr := s.notifier.PublishReport(ctx, report, err); nErr != nil {
			s.logger.Warn("publish cycle report", "run_id", report.RunID, "error", nErr)
		}
	}
	return report, err
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
