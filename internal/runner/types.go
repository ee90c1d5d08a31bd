package runner

import "time"

type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// DefaultSubInterval is the wait granularity used when a WorkRequest does
// not set one. Cancellation latency is bounded by this value.
const DefaultSubInterval = time.Second

// WorkRequest describes one chunked unit of simulated work.
type WorkRequest struct {
	// TotalDuration is the overall amount of work, must be positive.
	TotalDuration time.Duration `json:"total_duration"`
	// ChunkSize is the duration of a single chunk, must be positive.
	// It may exceed TotalDuration, in which case the run is one chunk.
	ChunkSize time.Duration `json:"chunk_size"`
	// SubInterval is the wait granularity within a chunk. Zero means
	// DefaultSubInterval; values above ChunkSize are clamped to it.
	SubInterval time.Duration `json:"sub_interval,omitempty"`
}

// ChunkCount is the number of chunks the request divides into,
// ceil(TotalDuration / ChunkSize).
func (r WorkRequest) ChunkCount() int {
	if r.ChunkSize <= 0 {
		return 0
	}
	return int((r.TotalDuration + r.ChunkSize - 1) / r.ChunkSize)
}

// ChunkRecord captures one fully completed chunk. Records are never
// mutated after creation and are appended in increasing Index order.
type ChunkRecord struct {
	Index       int           `json:"index"`
	Elapsed     time.Duration `json:"elapsed"`
	CompletedAt time.Time     `json:"completed_at"`
	Status      Status        `json:"status"`
}

// RunResult reports how much of the request completed and why the run
// stopped. ChunksCompleted always equals len(Chunks).
type RunResult struct {
	Status          Status        `json:"status"`
	ChunksCompleted int           `json:"chunks_completed"`
	ElapsedTotal    time.Duration `json:"elapsed_total"`
	Chunks          []ChunkRecord `json:"chunks"`
}
