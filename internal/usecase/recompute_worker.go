package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

// SearchIndexer is the downstream search-index consumer.
type SearchIndexer interface {
	Index(ctx context.Context, entity, entityID string) error
}

type JobHandler interface {
	Handle(ctx context.Context, job jobscheduler.Job) error
}

// ErrWorkerStopped is recorded on jobs parked because the worker was stopped
// before it could run them.
var ErrWorkerStopped = errors.New("recompute worker stopped before the job ran")

// JobSource yields jobs until it is closed.
type JobSource interface {
	Jobs() <-chan jobscheduler.Job
}

// RecomputeHandler routes a job to the service that owns its target.
type RecomputeHandler struct {
	stats     *StatsService
	standings *StandingsService
	indexer   SearchIndexer
}

func NewRecomputeHandler(stats *StatsService, standings *StandingsService, indexer SearchIndexer) *RecomputeHandler {
	return &RecomputeHandler{stats: stats, standings: standings, indexer: indexer}
}

func (h *RecomputeHandler) Handle(ctx context.Context, job jobscheduler.Job) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecomputeHandler.Handle")
	defer span.End()

	switch job.Kind {
	case jobscheduler.KindStats:
		_, err := h.stats.RecomputeMatchStats(ctx, job.TargetID)
		return err
	case jobscheduler.KindStandings:
		_, err := h.standings.RecomputeStandings(ctx, job.TargetID)
		return err
	case jobscheduler.KindSearchIndex:
		if h.indexer == nil {
			return nil
		}
		entity := strings.TrimSpace(job.Payload["entity"])
		if entity == "" {
			return fmt.Errorf("%w: search-index job without entity", ErrInvalidInput)
		}
		return h.indexer.Index(ctx, entity, job.TargetID)
	default:
		return fmt.Errorf("%w: unknown job kind %q", ErrInvalidInput, job.Kind)
	}
}

type RecomputeWorkerConfig struct {
	Workers         int
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// RecomputeWorker drains a job source on a bounded pool. Failed jobs are
// retried with exponential backoff and parked once retries run out.
type RecomputeWorker struct {
	handler      JobHandler
	dispatchRepo jobscheduler.Repository
	cfg          RecomputeWorkerConfig
	metrics      Metrics
	logger       *logging.Logger
	now          func() time.Time
}

func NewRecomputeWorker(
	handler JobHandler,
	dispatchRepo jobscheduler.Repository,
	cfg RecomputeWorkerConfig,
	metrics Metrics,
	logger *logging.Logger,
) *RecomputeWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * time.Second
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &RecomputeWorker{
		handler:      handler,
		dispatchRepo: dispatchRepo,
		cfg:          cfg,
		metrics:      metrics,
		logger:       logger.With("component", "recompute_worker"),
		now:          time.Now,
	}
}

// Run consumes the source until it closes, then waits for in-flight jobs.
// Cancelling ctx stops the worker early: jobs still buffered in the source are
// parked with ErrWorkerStopped instead of being run.
func (w *RecomputeWorker) Run(ctx context.Context, source JobSource) error {
	pool, err := ants.NewPool(w.cfg.Workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	jobs := source.Jobs()
	for {
		select {
		case <-ctx.Done():
			w.parkBuffered(ctx, jobs)
			return nil
		case job, ok := <-jobs:
			if !ok {
				return nil
			}
			if ctx.Err() != nil {
				w.parkUnrun(ctx, job, ErrWorkerStopped)
				w.parkBuffered(ctx, jobs)
				return nil
			}
			inflight.Add(1)
			if err := pool.Submit(func() {
				defer inflight.Done()
				_ = w.Process(ctx, job)
			}); err != nil {
				inflight.Done()
				w.logger.ErrorContext(ctx, "submit job to worker pool failed", "job_id", job.ID, "error", err)
				w.parkUnrun(ctx, job, err)
			}
		}
	}
}

// parkBuffered parks whatever the source holds right now without waiting for
// more.
func (w *RecomputeWorker) parkBuffered(ctx context.Context, jobs <-chan jobscheduler.Job) {
	parked := 0
	defer func() {
		if parked > 0 {
			w.logger.WarnContext(ctx, "recompute worker stopped with queued jobs", "parked", parked)
		}
	}()
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.parkUnrun(ctx, job, ErrWorkerStopped)
			parked++
		default:
			return
		}
	}
}

func (w *RecomputeWorker) parkUnrun(ctx context.Context, job jobscheduler.Job, cause error) {
	w.metrics.JobFinished(job.Kind, jobscheduler.StatusParked, 0, 0)
	w.park(ctx, job, 0, cause)
}

// Process runs one job with retries. It returns nil on success and the last
// error after the job was parked.
func (w *RecomputeWorker) Process(ctx context.Context, job jobscheduler.Job) error {
	started := time.Now()
	attempts := 0

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.cfg.InitialInterval
	policy.MaxInterval = w.cfg.MaxInterval
	policy.MaxElapsedTime = 0

	operation := func() error {
		attempts++
		job.Attempt = attempts
		err := w.handler.Handle(ctx, job)
		if err == nil {
			return nil
		}
		if isPermanentJobError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		w.metrics.JobRetried(job.Kind)
		w.logger.WarnContext(ctx, "recompute job failed, retrying",
			"job_id", job.ID,
			"kind", job.Kind,
			"target_id", job.TargetID,
			"attempt", attempts,
			"retry_in", wait,
			"error", err,
		)
	}

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(w.cfg.MaxRetries)), ctx),
		notify,
	)
	if err != nil {
		w.metrics.JobFinished(job.Kind, jobscheduler.StatusParked, attempts, time.Since(started))
		w.park(ctx, job, attempts, err)
		return err
	}

	w.metrics.JobFinished(job.Kind, jobscheduler.StatusCompleted, attempts, time.Since(started))
	recordDispatchEvent(context.WithoutCancel(ctx), w.dispatchRepo, w.logger, jobscheduler.DispatchEvent{
		JobID:      job.ID,
		Kind:       job.Kind,
		TargetID:   job.TargetID,
		Status:     jobscheduler.StatusCompleted,
		Attempt:    attempts,
		OccurredAt: w.now().UTC(),
	})
	return nil
}

func (w *RecomputeWorker) park(ctx context.Context, job jobscheduler.Job, attempts int, cause error) {
	w.logger.ErrorContext(ctx, "recompute job parked",
		"job_id", job.ID,
		"kind", job.Kind,
		"target_id", job.TargetID,
		"attempts", attempts,
		"error", cause,
	)
	// The event must land even when the worker is being cancelled.
	recordDispatchEvent(context.WithoutCancel(ctx), w.dispatchRepo, w.logger, jobscheduler.DispatchEvent{
		JobID:        job.ID,
		Kind:         job.Kind,
		TargetID:     job.TargetID,
		Status:       jobscheduler.StatusParked,
		Attempt:      attempts,
		ErrorMessage: cause.Error(),
		OccurredAt:   w.now().UTC(),
	})
}

// Retrying cannot fix a job whose input is malformed or whose target is gone.
func isPermanentJobError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound)
}
