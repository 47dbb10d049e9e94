package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/platform/id"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

// JobQueue hands recompute jobs to whatever runs them. Implementations must
// not block the caller for long.
type JobQueue interface {
	Enqueue(ctx context.Context, job jobscheduler.Job) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(context.Context, jobscheduler.Job) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

// JobDispatcher enqueues recompute jobs on behalf of use cases. Dispatch is
// fire-and-forget: a failed enqueue is recorded and logged but never returned
// to the caller whose write already committed.
type JobDispatcher struct {
	queue        JobQueue
	dispatchRepo jobscheduler.Repository
	ids          id.Generator
	metrics      Metrics
	logger       *logging.Logger
	now          func() time.Time
}

func NewJobDispatcher(
	queue JobQueue,
	dispatchRepo jobscheduler.Repository,
	ids id.Generator,
	metrics Metrics,
	logger *logging.Logger,
) *JobDispatcher {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &JobDispatcher{
		queue:        queue,
		dispatchRepo: dispatchRepo,
		ids:          ids,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

func (d *JobDispatcher) Stats(ctx context.Context, matchID string) {
	d.Dispatch(ctx, jobscheduler.KindStats, matchID, nil)
}

func (d *JobDispatcher) Standings(ctx context.Context, seasonID string) {
	d.Dispatch(ctx, jobscheduler.KindStandings, seasonID, nil)
}

// SearchIndex asks the search consumer to (re)index one canonical entity.
func (d *JobDispatcher) SearchIndex(ctx context.Context, entity, entityID string) {
	d.Dispatch(ctx, jobscheduler.KindSearchIndex, entityID, map[string]string{"entity": entity})
}

func (d *JobDispatcher) Dispatch(ctx context.Context, kind jobscheduler.Kind, targetID string, payload map[string]string) {
	if d == nil {
		return
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		d.logger.WarnContext(ctx, "skip job dispatch without target", "kind", kind)
		return
	}

	jobID, err := d.ids.NewID()
	if err != nil {
		d.logger.ErrorContext(ctx, "generate job id failed", "kind", kind, "target_id", targetID, "error", err)
		return
	}

	job := jobscheduler.Job{
		ID:         jobID,
		Kind:       kind,
		TargetID:   targetID,
		Payload:    payload,
		Attempt:    0,
		EnqueuedAt: d.now().UTC(),
	}

	if err := d.queue.Enqueue(ctx, job); err != nil {
		d.metrics.JobEnqueued(kind, false)
		d.record(ctx, job, jobscheduler.StatusFailed, err.Error())
		d.logger.WarnContext(ctx, "enqueue recompute job failed",
			"job_id", job.ID,
			"kind", kind,
			"target_id", targetID,
			"error", err,
		)
		return
	}

	d.metrics.JobEnqueued(kind, true)
	d.record(ctx, job, jobscheduler.StatusSent, "")
}

func (d *JobDispatcher) record(ctx context.Context, job jobscheduler.Job, status jobscheduler.DispatchStatus, message string) {
	recordDispatchEvent(ctx, d.dispatchRepo, d.logger, jobscheduler.DispatchEvent{
		JobID:        job.ID,
		Kind:         job.Kind,
		TargetID:     job.TargetID,
		Status:       status,
		Attempt:      job.Attempt,
		ErrorMessage: message,
		OccurredAt:   d.now().UTC(),
	})
}

func recordDispatchEvent(ctx context.Context, repo jobscheduler.Repository, logger *logging.Logger, event jobscheduler.DispatchEvent) {
	if repo == nil || strings.TrimSpace(event.JobID) == "" {
		return
	}
	traceID, spanID := traceMetaFromContext(ctx)
	event.TraceID = traceID
	event.SpanID = spanID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := repo.UpsertEvent(ctx, event); err != nil {
		logger.WarnContext(ctx, "record job dispatch event failed",
			"job_id", event.JobID,
			"status", event.Status,
			"error", err,
		)
	}
}
