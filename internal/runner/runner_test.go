package runner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CompletesAllChunks(t *testing.T) {
	res, err := Run(WorkRequest{
		TotalDuration: 40 * time.Millisecond,
		ChunkSize:     20 * time.Millisecond,
		SubInterval:   5 * time.Millisecond,
	}, NewCancellation())

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 2, res.ChunksCompleted)
	assert.Equal(t, 40*time.Millisecond, res.ElapsedTotal)

	require.Len(t, res.Chunks, res.ChunksCompleted)
	for i, chunk := range res.Chunks {
		assert.Equal(t, i+1, chunk.Index)
		assert.Equal(t, StatusCompleted, chunk.Status)
		assert.Greater(t, chunk.Elapsed, time.Duration(0))
		assert.False(t, chunk.CompletedAt.IsZero())
	}
}

func TestRun_OversizedChunkProducesSingleChunk(t *testing.T) {
	res, err := Run(WorkRequest{
		TotalDuration: 10 * time.Millisecond,
		ChunkSize:     25 * time.Millisecond,
		SubInterval:   5 * time.Millisecond,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 1, res.ChunksCompleted)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, 1, res.Chunks[0].Index)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	cancel := NewCancellation()
	cancel.Signal()

	res, err := Run(WorkRequest{
		TotalDuration: 100 * time.Millisecond,
		ChunkSize:     10 * time.Millisecond,
		SubInterval:   time.Millisecond,
	}, cancel)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, 0, res.ChunksCompleted)
	assert.Empty(t, res.Chunks)
	assert.Equal(t, time.Duration(0), res.ElapsedTotal)
}

func TestRun_CancelledMidChunkDropsCurrentChunk(t *testing.T) {
	cancel := NewCancellation()
	timer := time.AfterFunc(20*time.Millisecond, cancel.Signal)
	defer timer.Stop()

	start := time.Now()
	res, err := Run(WorkRequest{
		TotalDuration: 200 * time.Millisecond,
		ChunkSize:     200 * time.Millisecond,
		SubInterval:   5 * time.Millisecond,
	}, cancel)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, 0, res.ChunksCompleted)
	assert.Empty(t, res.Chunks)
	// observed within one sub-interval of the signal, far before the
	// chunk would have completed
	assert.Less(t, elapsed, 100*time.Millisecond)
}

func TestRun_CancelledBetweenChunksKeepsCompletedOnes(t *testing.T) {
	cancel := NewCancellation()
	timer := time.AfterFunc(150*time.Millisecond, cancel.Signal)
	defer timer.Stop()

	res, err := Run(WorkRequest{
		TotalDuration: 200 * time.Millisecond,
		ChunkSize:     100 * time.Millisecond,
		SubInterval:   20 * time.Millisecond,
	}, cancel)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, 1, res.ChunksCompleted)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, 1, res.Chunks[0].Index)
	assert.Equal(t, 100*time.Millisecond, res.ElapsedTotal)
}

func TestRun_RepeatedSignalsBehaveAsOne(t *testing.T) {
	cancel := NewCancellation()
	cancel.Signal()
	cancel.Signal()
	cancel.Signal()

	res, err := Run(WorkRequest{
		TotalDuration: 50 * time.Millisecond,
		ChunkSize:     10 * time.Millisecond,
		SubInterval:   time.Millisecond,
	}, cancel)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, 0, res.ChunksCompleted)
}

func TestRun_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  WorkRequest
	}{
		{
			name: "zero chunk size",
			req:  WorkRequest{TotalDuration: time.Second},
		},
		{
			name: "zero total duration",
			req:  WorkRequest{ChunkSize: time.Second},
		},
		{
			name: "negative total duration",
			req:  WorkRequest{TotalDuration: -time.Second, ChunkSize: time.Second},
		},
		{
			name: "negative sub interval",
			req: WorkRequest{
				TotalDuration: time.Second,
				ChunkSize:     time.Second,
				SubInterval:   -time.Millisecond,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(tt.req, NewCancellation())
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Nil(t, res)
		})
	}
}

func TestWorkRequest_ChunkCount(t *testing.T) {
	tests := []struct {
		name  string
		total time.Duration
		chunk time.Duration
		want  int
	}{
		{name: "exact multiple", total: 10 * time.Second, chunk: 5 * time.Second, want: 2},
		{name: "rounds up", total: 11 * time.Second, chunk: 5 * time.Second, want: 3},
		{name: "oversized chunk", total: 3 * time.Second, chunk: 10 * time.Second, want: 1},
		{name: "equal", total: 5 * time.Second, chunk: 5 * time.Second, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorkRequest{TotalDuration: tt.total, ChunkSize: tt.chunk}.ChunkCount()
			assert.Equal(t, tt.want, got)
		})
	}
}
