package scheduler

import "errors"

var (
	// ErrJobExists is returned when a job name is registered twice
	ErrJobExists = errors.New("job already exists")

	// ErrJobNotFound is returned for an unknown job name
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidSchedule is returned when a cron expression does not parse
	ErrInvalidSchedule = errors.New("invalid cron schedule")
)
