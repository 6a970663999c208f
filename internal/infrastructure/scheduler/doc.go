// Package scheduler runs named background jobs on cron schedules.
//
// It wraps robfig/cron with a job context that is cancelled on Stop, panic
// recovery, overlap protection (a job still running when its next slot
// arrives is skipped) and structured logging.
//
// The dashboard schedules two jobs: the liveness watchdog ("@every 5s")
// and the hourly rule evaluation ("0 * * * *").
package scheduler
