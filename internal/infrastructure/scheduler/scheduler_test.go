package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_RunsEveryJob(t *testing.T) {
	s := New(time.UTC, nil)
	runs := make(chan time.Time, 10)

	if err := s.Every("tick", time.Second, func(_ context.Context, now time.Time) {
		runs <- now
	}); err != nil {
		t.Fatalf("Every() error = %v", err)
	}
	s.Start()
	defer s.Stop(context.Background()) //nolint:errcheck // Test cleanup

	select {
	case now := <-runs:
		if now.Location() != time.UTC {
			t.Errorf("job time location = %v, want UTC", now.Location())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestScheduler_Add(t *testing.T) {
	s := New(time.UTC, nil)
	noop := func(context.Context, time.Time) {}

	if err := s.Add("hourly", "0 * * * *", noop); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add("hourly", "0 * * * *", noop); !errors.Is(err, ErrDuplicateJob) {
		t.Errorf("duplicate Add() error = %v, want ErrDuplicateJob", err)
	}
	if err := s.Add("broken", "not a schedule", noop); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("invalid Add() error = %v, want ErrInvalidSchedule", err)
	}
	if s.Jobs() != 1 {
		t.Errorf("Jobs() = %d, want 1", s.Jobs())
	}
}

func TestScheduler_NextHourly(t *testing.T) {
	s := New(time.UTC, nil)
	if err := s.Add("hourly", "0 * * * *", func(context.Context, time.Time) {}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	s.Start()
	defer s.Stop(context.Background()) //nolint:errcheck // Test cleanup

	// Entries get their first Next once the run loop has started.
	var next time.Time
	deadline := time.Now().Add(time.Second)
	for next.IsZero() && time.Now().Before(deadline) {
		next = s.Next("hourly")
		time.Sleep(10 * time.Millisecond)
	}

	if next.IsZero() {
		t.Fatal("Next() is zero after Start")
	}
	if next.Minute() != 0 || next.Second() != 0 {
		t.Errorf("Next() = %v, want top of the hour", next)
	}
	if !s.Next("missing").IsZero() {
		t.Error("Next() for unknown job should be zero")
	}
}

func TestScheduler_Remove(t *testing.T) {
	s := New(nil, nil)
	if err := s.Every("tick", time.Second, func(context.Context, time.Time) {}); err != nil {
		t.Fatalf("Every() error = %v", err)
	}

	s.Remove("tick")
	s.Remove("tick")
	if s.Jobs() != 0 {
		t.Errorf("Jobs() = %d after Remove, want 0", s.Jobs())
	}
	if err := s.Every("tick", time.Second, func(context.Context, time.Time) {}); err != nil {
		t.Errorf("re-adding removed job: %v", err)
	}
}

func TestScheduler_StopCancelsAndWaits(t *testing.T) {
	s := New(time.UTC, nil)
	started := make(chan struct{})
	var finished atomic.Bool

	if err := s.Every("slow", time.Second, func(ctx context.Context, _ time.Time) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		finished.Store(true)
	}); err != nil {
		t.Fatalf("Every() error = %v", err)
	}
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !finished.Load() {
		t.Error("Stop() returned before the running job finished")
	}
	if err := s.Stop(ctx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if err := s.Every("late", time.Second, func(context.Context, time.Time) {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Every() after Stop error = %v, want ErrStopped", err)
	}
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s := New(time.UTC, nil)
	var runs atomic.Int32

	if err := s.Every("panicky", time.Second, func(context.Context, time.Time) {
		runs.Add(1)
		panic("boom")
	}); err != nil {
		t.Fatalf("Every() error = %v", err)
	}
	s.Start()
	defer s.Stop(context.Background()) //nolint:errcheck // Test cleanup

	deadline := time.Now().Add(4 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() < 2 {
		t.Errorf("job ran %d times, want at least 2 after a panic", runs.Load())
	}
}
