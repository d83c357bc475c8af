package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"SlangHarvester/internal/ports"
)

// ErrAlreadyStarted is returned when Start is called on a running scheduler.
var ErrAlreadyStarted = errors.New("scheduler already started")

// IntervalScheduler runs a job, waits interval after it returns, and repeats.
// The wait is measured from the end of one run to the start of the next.
type IntervalScheduler struct {
	interval   time.Duration
	runOnStart bool

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler; runOnStart fires the first job without waiting.
func NewIntervalScheduler(interval time.Duration, runOnStart bool) *IntervalScheduler {
	if interval <= 0 {
		interval = 7 * 24 * time.Hour
	}
	return &IntervalScheduler{interval: interval, runOnStart: runOnStart}
}

// Start launches the background loop. The loop exits when ctx is done or Stop is called.
func (s *IntervalScheduler) Start(ctx context.Context, job func(context.Context)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return ErrAlreadyStarted
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-stop:
			cancel()
		case <-runCtx.Done():
		}
	}()

	go func() {
		defer close(done)
		defer cancel()

		if !s.runOnStart && !wait(runCtx, s.interval) {
			return
		}
		for {
			job(runCtx)
			if !wait(runCtx, s.interval) {
				return
			}
		}
	}()

	return nil
}

// Stop halts the loop and waits for an in-flight job to return or ctx to expire.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
