package history

import "context"

// Store persists run records so partial progress survives the process.
type Store interface {
	SaveRun(ctx context.Context, record *RunRecord) error
	// LoadRuns returns records ordered newest first.
	LoadRuns(ctx context.Context) ([]*RunRecord, error)
	DeleteRun(ctx context.Context, runID string) error
	Close() error
}
