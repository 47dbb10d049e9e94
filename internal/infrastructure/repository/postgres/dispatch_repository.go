package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

type JobDispatchRepository struct {
	db *sqlx.DB
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db}
}

// UpsertEvent keeps the latest state per job. Events are written on the pool,
// never inside a caller's transaction, so a rolled back write still leaves
// its dispatch trail.
func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	jobID := strings.TrimSpace(event.JobID)
	if jobID == "" {
		return fmt.Errorf("job id is required")
	}
	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	model := jobDispatchTableModel{
		JobID:      jobID,
		Kind:       string(event.Kind),
		TargetID:   event.TargetID,
		Status:     string(event.Status),
		Attempt:    event.Attempt,
		OccurredAt: occurredAt,
	}
	model.LastError.String, model.LastError.Valid = event.ErrorMessage, event.ErrorMessage != ""
	model.TraceID.String, model.TraceID.Valid = event.TraceID, event.TraceID != ""
	model.SpanID.String, model.SpanID.Valid = event.SpanID, event.SpanID != ""

	query, args, err := qb.InsertModel("job_dispatches", model, `ON CONFLICT (job_id)
DO UPDATE SET
    status = EXCLUDED.status,
    attempt = GREATEST(job_dispatches.attempt, EXCLUDED.attempt),
    last_error = CASE
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE COALESCE(EXCLUDED.last_error, job_dispatches.last_error)
    END,
    trace_id = COALESCE(EXCLUDED.trace_id, job_dispatches.trace_id),
    span_id = COALESCE(EXCLUDED.span_id, job_dispatches.span_id),
    occurred_at = EXCLUDED.occurred_at`)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch job_id=%s status=%s: %w", jobID, event.Status, err)
	}
	return nil
}

func (r *JobDispatchRepository) ListByStatus(ctx context.Context, status jobscheduler.DispatchStatus, limit int) ([]jobscheduler.DispatchEvent, error) {
	query, args, err := qb.Select(qb.Columns(jobDispatchTableModel{})...).From("job_dispatches").
		Where(qb.Eq("status", string(status))).
		OrderBy("occurred_at DESC", "job_id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list job dispatches query: %w", err)
	}

	var rows []jobDispatchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list job dispatches status=%s: %w", status, err)
	}
	out := make([]jobscheduler.DispatchEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, jobscheduler.DispatchEvent{
			JobID:        row.JobID,
			Kind:         jobscheduler.Kind(row.Kind),
			TargetID:     row.TargetID,
			Status:       jobscheduler.DispatchStatus(row.Status),
			Attempt:      row.Attempt,
			ErrorMessage: nullStringValue(row.LastError),
			OccurredAt:   row.OccurredAt.UTC(),
			TraceID:      nullStringValue(row.TraceID),
			SpanID:       nullStringValue(row.SpanID),
		})
	}
	return out, nil
}
