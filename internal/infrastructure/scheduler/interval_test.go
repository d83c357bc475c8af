package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRepeatsUntilStopped(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10*time.Millisecond, true)
	var runs int32
	reached := make(chan struct{})

	err := s.Start(context.Background(), func(context.Context) {
		if atomic.AddInt32(&runs, 1) == 3 {
			close(reached)
		}
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-reached:
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not repeat, runs=%d", atomic.LoadInt32(&runs))
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	after := atomic.LoadInt32(&runs)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != after {
		t.Fatalf("job ran after stop: %d -> %d", after, got)
	}
}

func TestIntervalSchedulerWaitsFromEndOfRun(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(30*time.Millisecond, true)
	starts := make(chan time.Time, 2)
	ends := make(chan time.Time, 2)
	send := func(ch chan time.Time) {
		select {
		case ch <- time.Now():
		default:
		}
	}

	_ = s.Start(context.Background(), func(context.Context) {
		send(starts)
		time.Sleep(40 * time.Millisecond)
		send(ends)
	})
	defer s.Stop(context.Background())

	<-starts
	firstEnd := <-ends
	secondStart := <-starts

	if gap := secondStart.Sub(firstEnd); gap < 30*time.Millisecond {
		t.Fatalf("next run started %s after previous end, want >= 30ms", gap)
	}
}

func TestIntervalSchedulerDelayedStart(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour, false)
	var runs int32
	_ = s.Start(context.Background(), func(context.Context) { atomic.AddInt32(&runs, 1) })

	time.Sleep(20 * time.Millisecond)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if atomic.LoadInt32(&runs) != 0 {
		t.Fatalf("job must not run before the first interval elapses")
	}
}

func TestIntervalSchedulerRejectsDoubleStart(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour, false)
	job := func(context.Context) {}
	if err := s.Start(context.Background(), job); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop(context.Background())

	if err := s.Start(context.Background(), job); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestIntervalSchedulerStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(time.Hour, true)
	ran := make(chan struct{}, 1)
	_ = s.Start(ctx, func(context.Context) { ran <- struct{}{} })
	<-ran
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop after cancel: %v", err)
	}
}
