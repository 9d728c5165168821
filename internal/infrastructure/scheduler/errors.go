package scheduler

import "errors"

var (
	// ErrInvalidJob is returned when a job spec cannot be scheduled
	ErrInvalidJob = errors.New("invalid scheduled job")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("job already registered")

	// ErrSchedulerRunning is returned when registering jobs on a started scheduler
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrJobPanicked wraps a recovered panic from a job
	ErrJobPanicked = errors.New("scheduled job panicked")
)
