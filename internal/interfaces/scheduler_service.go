package interfaces

import "time"

// WatchStatus represents the current state of the scheduled batch run
type WatchStatus struct {
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

// SchedulerService manages cron-based repeated batch runs
type SchedulerService interface {
	// Start the scheduler with a cron expression
	Start(cronExpr string) error

	// Stop the scheduler
	Stop() error

	// TriggerNow manually triggers a batch run
	TriggerNow() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// Status returns the current watch status
	Status() *WatchStatus
}
