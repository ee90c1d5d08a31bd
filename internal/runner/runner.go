package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/MimeLyc/chunked-task-runner/pkg/log"
)

// ErrInvalidRequest is returned by Run when the WorkRequest durations are
// malformed. It is the only error Run can produce; a cancelled run is a
// normal result, not an error.
var ErrInvalidRequest = errors.New("invalid work request")

func (r WorkRequest) validate() error {
	if r.TotalDuration <= 0 {
		return fmt.Errorf("%w: total_duration must be positive, got %s", ErrInvalidRequest, r.TotalDuration)
	}
	if r.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %s", ErrInvalidRequest, r.ChunkSize)
	}
	if r.SubInterval < 0 {
		return fmt.Errorf("%w: sub_interval must not be negative, got %s", ErrInvalidRequest, r.SubInterval)
	}
	return nil
}

// Run executes the request chunk by chunk until it either finishes or
// observes the cancellation signal. Each chunk is subdivided into
// sub-intervals; the wait for a sub-interval and the cancellation check
// are a single select, so a signal is observed within one sub-interval
// and no new sub-interval or chunk starts after it. A chunk interrupted
// mid-way leaves no ChunkRecord.
//
// A nil cancel behaves as a source that is never signalled.
func Run(req WorkRequest, cancel *Cancellation) (*RunResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if cancel == nil {
		cancel = NewCancellation()
	}

	sub := req.SubInterval
	if sub == 0 {
		sub = DefaultSubInterval
	}
	if sub > req.ChunkSize {
		sub = req.ChunkSize
	}
	subCount := int((req.ChunkSize + sub - 1) / sub)

	chunkCount := req.ChunkCount()
	chunks := make([]ChunkRecord, 0, chunkCount)

	log.Debug("starting run: %d chunks of %s, sub-interval %s", chunkCount, req.ChunkSize, sub)

	timer := time.NewTimer(sub)
	defer timer.Stop()
	firstWait := true

	for index := 1; index <= chunkCount; index++ {
		chunkStart := time.Now()
		for k := 0; k < subCount; k++ {
			if firstWait {
				firstWait = false
			} else {
				timer.Reset(sub)
			}
			select {
			case <-cancel.Done():
				log.Info("cancellation observed in chunk %d/%d, %d chunks completed", index, chunkCount, len(chunks))
				return partialResult(req, chunks), nil
			case <-timer.C:
			}
		}
		rec := ChunkRecord{
			Index:       index,
			Elapsed:     time.Since(chunkStart),
			CompletedAt: time.Now(),
			Status:      StatusCompleted,
		}
		chunks = append(chunks, rec)
		log.Debug("chunk %d/%d completed in %s", index, chunkCount, rec.Elapsed)
	}

	return &RunResult{
		Status:          StatusCompleted,
		ChunksCompleted: len(chunks),
		ElapsedTotal:    time.Duration(len(chunks)) * req.ChunkSize,
		Chunks:          chunks,
	}, nil
}

func partialResult(req WorkRequest, chunks []ChunkRecord) *RunResult {
	return &RunResult{
		Status:          StatusCancelled,
		ChunksCompleted: len(chunks),
		ElapsedTotal:    time.Duration(len(chunks)) * req.ChunkSize,
		Chunks:          chunks,
	}
}
