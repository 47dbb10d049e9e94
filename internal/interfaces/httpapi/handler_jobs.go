package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/usecase"
)

type recomputeJobRequest struct {
	ID       string            `json:"id" validate:"required,max=100"`
	Kind     string            `json:"kind" validate:"required,oneof=stats standings search-index"`
	TargetID string            `json:"target_id" validate:"required"`
	Payload  map[string]string `json:"payload"`
	Attempt  int               `json:"attempt" validate:"min=0"`
	// EnqueuedAt is informational; QStash may deliver long after it.
	EnqueuedAt string `json:"enqueued_at"`
}

// RunRecomputeJob executes one job pushed back by the external queue. A non
// 2xx answer makes the queue redeliver, so handlers stay idempotent.
func (h *Handler) RunRecomputeJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRecomputeJob")
	defer span.End()

	if h.jobHandler == nil {
		writeError(ctx, w, fmt.Errorf("%w: recompute handler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req recomputeJobRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	job := jobscheduler.Job{
		ID:       req.ID,
		Kind:     jobscheduler.Kind(req.Kind),
		TargetID: strings.TrimSpace(req.TargetID),
		Payload:  req.Payload,
		Attempt:  deliveryAttempt(r, req.Attempt),
	}
	if enqueuedAt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(req.EnqueuedAt)); err == nil {
		job.EnqueuedAt = enqueuedAt.UTC()
	}

	started := time.Now()
	if err := h.jobHandler.Handle(ctx, job); err != nil {
		h.recordJobDispatch(ctx, job, jobscheduler.StatusFailed, err.Error())
		h.logger.WarnContext(ctx, "run recompute job failed",
			"job_id", job.ID,
			"kind", job.Kind,
			"target_id", job.TargetID,
			"attempt", job.Attempt,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}
	h.recordJobDispatch(ctx, job, jobscheduler.StatusCompleted, "")

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"job_id":      job.ID,
		"kind":        job.Kind,
		"target_id":   job.TargetID,
		"duration_ms": time.Since(started).Milliseconds(),
	})
}

// deliveryAttempt prefers the queue's own retry counter over the body.
func deliveryAttempt(r *http.Request, fallback int) int {
	raw := strings.TrimSpace(r.Header.Get("Upstash-Retried"))
	if raw == "" {
		return fallback
	}
	retried, err := strconv.Atoi(raw)
	if err != nil || retried < 0 {
		return fallback
	}
	return retried + 1
}

func (h *Handler) recordJobDispatch(ctx context.Context, job jobscheduler.Job, status jobscheduler.DispatchStatus, message string) {
	if h.jobDispatchRepo == nil {
		return
	}

	traceID, spanID := traceMetaFromContext(ctx)
	event := jobscheduler.DispatchEvent{
		JobID:        job.ID,
		Kind:         job.Kind,
		TargetID:     job.TargetID,
		Status:       status,
		Attempt:      job.Attempt,
		ErrorMessage: message,
		OccurredAt:   time.Now().UTC(),
		TraceID:      traceID,
		SpanID:       spanID,
	}
	if err := h.jobDispatchRepo.UpsertEvent(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "record job dispatch failed",
			"job_id", job.ID,
			"kind", job.Kind,
			"status", status,
			"error", err,
		)
	}
}

type jobDispatchDTO struct {
	JobID        string `json:"job_id"`
	Kind         string `json:"kind"`
	TargetID     string `json:"target_id"`
	Status       string `json:"status"`
	Attempt      int    `json:"attempt"`
	ErrorMessage string `json:"error_message,omitempty"`
	OccurredAt   string `json:"occurred_at"`
	TraceID      string `json:"trace_id,omitempty"`
}

// ListJobDispatches shows the latest dispatch state per job, parked jobs by
// default.
func (h *Handler) ListJobDispatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJobDispatches")
	defer span.End()

	if h.jobDispatchRepo == nil {
		writeError(ctx, w, fmt.Errorf("%w: job dispatch store is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	status := jobscheduler.DispatchStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	switch status {
	case "":
		status = jobscheduler.StatusParked
	case jobscheduler.StatusSent, jobscheduler.StatusCompleted, jobscheduler.StatusFailed, jobscheduler.StatusParked:
	default:
		writeError(ctx, w, fmt.Errorf("%w: invalid status %q", usecase.ErrInvalidInput, status))
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be within [1, 500]", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	events, err := h.jobDispatchRepo.ListByStatus(ctx, status, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list job dispatches failed", "status", status, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]jobDispatchDTO, 0, len(events))
	for _, e := range events {
		items = append(items, jobDispatchDTO{
			JobID:        e.JobID,
			Kind:         string(e.Kind),
			TargetID:     e.TargetID,
			Status:       string(e.Status),
			Attempt:      e.Attempt,
			ErrorMessage: e.ErrorMessage,
			OccurredAt:   formatTime(e.OccurredAt),
			TraceID:      e.TraceID,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
