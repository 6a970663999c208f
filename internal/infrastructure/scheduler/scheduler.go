package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one run of a scheduled task. ctx is cancelled when the scheduler
// stops; now is the run time in the scheduler's location.
type Job func(ctx context.Context, now time.Time)

// Logger defines the logging interface used by the Scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	logger Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Scheduler runs named jobs. It is safe for concurrent use.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	stopped bool
	logger  Logger
}

// New creates a scheduler evaluating schedules in loc (nil means time.Local).
// Jobs do not run until Start.
func New(loc *time.Location, logger Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = noopLogger{}
	}
	cl := cronLogger{logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			// Recover sits inside SkipIfStillRunning so a panic still releases
			// the running token.
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		loc:    loc,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]cron.EntryID),
		logger: logger,
	}
}

// Add schedules job under name using a cron expression such as "0 * * * *" or
// "@every 5s".
//
// Returns:
//   - error: ErrDuplicateJob, ErrInvalidSchedule or ErrStopped
func (s *Scheduler) Add(name, expr string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	id, err := s.cron.AddFunc(expr, func() {
		job(s.ctx, time.Now().In(s.loc))
	})
	if err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrInvalidSchedule, name, expr, err)
	}

	s.jobs[name] = id
	s.logger.Info("job scheduled", "job", name, "schedule", expr)
	return nil
}

// Every schedules job to run every interval. Intervals below one second
// are rounded up to one second.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) error {
	return s.Add(name, "@every "+interval.String(), job)
}

// Remove unschedules name. A running instance is allowed to finish.
// Removing an unknown name is a no-op.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
		s.logger.Info("job removed", "job", name)
	}
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Next returns the next run time of name, or the zero time if name is not
// scheduled or the scheduler has not started.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", s.Jobs())
}

// Stop cancels the job context and waits for running jobs to return or
// for ctx to end. Safe to call more than once.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for jobs: %w", ctx.Err())
	}
}
