package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/MimeLyc/chunked-task-runner/internal/runner"
)

// RunRecord is the durable trace of one runner invocation, including the
// partial progress of a cancelled run.
type RunRecord struct {
	ID              string               `json:"id"`
	Source          string               `json:"source"`
	Status          runner.Status        `json:"status"`
	TotalDuration   time.Duration        `json:"total_duration"`
	ChunkSize       time.Duration        `json:"chunk_size"`
	ChunkCount      int                  `json:"chunk_count"`
	ChunksCompleted int                  `json:"chunks_completed"`
	ElapsedTotal    time.Duration        `json:"elapsed_total"`
	Error           string               `json:"error,omitempty"`
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
	Chunks          []runner.ChunkRecord `json:"chunks"`
}

// NewRunRecord builds a RunRecord from a finished run.
func NewRunRecord(source string, req runner.WorkRequest, res *runner.RunResult, startedAt, finishedAt time.Time) *RunRecord {
	rec := &RunRecord{
		ID:            uuid.NewString(),
		Source:        source,
		TotalDuration: req.TotalDuration,
		ChunkSize:     req.ChunkSize,
		ChunkCount:    req.ChunkCount(),
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
	}
	if res != nil {
		rec.Status = res.Status
		rec.ChunksCompleted = res.ChunksCompleted
		rec.ElapsedTotal = res.ElapsedTotal
		rec.Chunks = res.Chunks
	}
	return rec
}
