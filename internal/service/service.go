package service

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/chunked-task-runner/internal/config"
	"github.com/MimeLyc/chunked-task-runner/internal/history"
	"github.com/MimeLyc/chunked-task-runner/internal/runner"
	"github.com/MimeLyc/chunked-task-runner/pkg/icron"
	"github.com/MimeLyc/chunked-task-runner/pkg/log"
)

// WorkService triggers chunked runs on a cron schedule, relays shutdown
// signals to the in-flight run and records every result, partial or not.
type WorkService struct {
	cfg   config.Config
	cron  *cron.Cron
	store history.Store

	mu      sync.Mutex
	current *runner.Cancellation
	stopped bool
}

func NewWorkService(
	cfg config.Config,
	cron *cron.Cron,
	store history.Store,
) *WorkService {
	return &WorkService{
		cfg:   cfg,
		cron:  cron,
		store: store,
	}
}

var singleflightGroup singleflight.Group

// Schedule registers the cron trigger and starts the scheduler.
// Overlapping triggers collapse into the run already in flight.
func (s *WorkService) Schedule(
	ctx context.Context,
) error {
	log.Info("Run WorkService with cron expression %q", s.cfg.Schedule.CronExpr)

	runFunc := func() {
		_, _, _ = singleflightGroup.Do("run", func() (any, error) {
			if _, err := s.RunOnce(ctx, "cron"); err != nil {
				log.Error("Failed to run scheduled work: %v", err)
			}
			return nil, nil
		})
	}
	if _, err := s.cron.AddFunc(s.cfg.Schedule.CronExpr, runFunc); err != nil {
		return err
	}
	s.cron.Start()

	if info, err := icron.NextTrigger(s.cfg.Schedule.CronExpr, time.Now()); err == nil {
		log.Info("Next scheduled run at %s (in %s)", info.Next.Format(time.RFC3339), info.TimeUntilNext.Round(time.Second))
	}
	return nil
}

// RunOnce executes one chunked run and records its result. A run
// interrupted by Shutdown still returns its partial result.
func (s *WorkService) RunOnce(
	ctx context.Context,
	source string,
) (*runner.RunResult, error) {
	cancel, err := s.beginRun()
	if err != nil {
		return nil, err
	}
	defer s.endRun()

	req := runner.WorkRequest{
		TotalDuration: s.cfg.Work.TotalDuration,
		ChunkSize:     s.cfg.Work.ChunkSize,
		SubInterval:   s.cfg.Work.SubInterval,
	}

	log.Info("Starting %s run: %s of work in chunks of %s", source, req.TotalDuration, req.ChunkSize)
	startedAt := time.Now().UTC()
	res, err := runner.Run(req, cancel)
	finishedAt := time.Now().UTC()
	if err != nil {
		log.Error("Failed to run work request: %v", err)
		return nil, err
	}

	switch res.Status {
	case runner.StatusCancelled:
		log.Warn("Run cancelled after %d/%d chunks, %s of %s done",
			res.ChunksCompleted, req.ChunkCount(), res.ElapsedTotal, req.TotalDuration)
	default:
		log.Info("Run completed: %d chunks, %s of work", res.ChunksCompleted, res.ElapsedTotal)
	}

	s.record(source, req, res, startedAt, finishedAt)
	return res, nil
}

// Shutdown cancels the in-flight run, rejects new ones and stops the
// scheduler, waiting for the running cron job to finish. Safe to call
// more than once.
func (s *WorkService) Shutdown() {
	s.mu.Lock()
	s.stopped = true
	current := s.current
	s.mu.Unlock()

	if current != nil {
		current.Signal()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *WorkService) beginRun() (*runner.Cancellation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, ErrShuttingDown
	}
	cancel := runner.NewCancellation()
	s.current = cancel
	return cancel, nil
}

func (s *WorkService) endRun() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// record persists the result with a fresh context: the caller's context
// is typically already cancelled when a run was stopped by a termination
// signal, and the partial result must still be saved.
func (s *WorkService) record(
	source string,
	req runner.WorkRequest,
	res *runner.RunResult,
	startedAt time.Time,
	finishedAt time.Time,
) {
	if s.store == nil {
		return
	}
	rec := history.NewRunRecord(source, req, res, startedAt, finishedAt)
	if err := s.store.SaveRun(context.Background(), rec); err != nil {
		log.Error("Failed to persist run %s: %v", rec.ID, err)
	}
}
