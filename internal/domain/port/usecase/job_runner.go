package usecase

import (
	"context"
)

// JobRunner triggers scheduled jobs on demand
type JobRunner interface {
	// RunJob runs the named job immediately, ignoring its interval
	RunJob(ctx context.Context, name string) error

	// JobNames lists the registered jobs
	JobNames() []string
}
