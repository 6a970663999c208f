package scheduler

import "errors"

var (
	// ErrDuplicateJob is returned when a job name is already scheduled.
	ErrDuplicateJob = errors.New("scheduler: duplicate job")

	// ErrInvalidSchedule is returned for a schedule expression cron cannot parse.
	ErrInvalidSchedule = errors.New("scheduler: invalid schedule")

	// ErrStopped is returned when adding a job after Stop.
	ErrStopped = errors.New("scheduler: stopped")
)
