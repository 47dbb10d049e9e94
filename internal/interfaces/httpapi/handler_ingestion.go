package httpapi

import (
	"context"
	"net/http"

	"github.com/riskibarqy/matchday/internal/usecase"
)

func (h *Handler) SubmitIngestion(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitIngestion")
	defer span.End()

	submitter, err := actorID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req ingestRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.ingestionService.Submit(ctx, usecase.SubmitIngestionInput{
		Kind:        req.Type,
		Source:      req.Source,
		Payload:     req.Payload,
		SubmittedBy: submitter,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit ingestion failed", "type", req.Type, "source", req.Source, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, ingestionLogToDTO(item))
}

func (h *Handler) GetIngestion(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetIngestion")
	defer span.End()

	ingestionID := r.PathValue("ingestionID")
	item, err := h.ingestionService.Get(ctx, ingestionID)
	if err != nil {
		h.logger.WarnContext(ctx, "get ingestion failed", "ingestion_id", ingestionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ingestionLogToDTO(item))
}

func (h *Handler) VerifyIngestion(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.VerifyIngestion")
	defer span.End()

	verifier, err := actorID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req verifyRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	ingestionID := r.PathValue("ingestionID")
	result, err := h.ingestionService.Verify(ctx, usecase.VerifyIngestionInput{
		ID:              ingestionID,
		VerifierID:      verifier,
		ConfidenceScore: *req.Score,
		Notes:           req.Notes,
	})
	if err != nil {
		h.logVerifyFailure(ctx, ingestionID, err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, verifyResultDTO{
		Log:      ingestionLogToDTO(result.Log),
		EntityID: result.EntityID,
		Created:  result.Created,
	})
}

func (h *Handler) RetryIngestionResolution(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RetryIngestionResolution")
	defer span.End()

	ingestionID := r.PathValue("ingestionID")
	result, err := h.ingestionService.RetryResolution(ctx, ingestionID)
	if err != nil {
		h.logVerifyFailure(ctx, ingestionID, err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, verifyResultDTO{
		Log:      ingestionLogToDTO(result.Log),
		EntityID: result.EntityID,
		Created:  result.Created,
	})
}

func (h *Handler) RejectIngestion(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectIngestion")
	defer span.End()

	reviewer, err := actorID(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req rejectRequest
	if err := h.decodeRequest(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	ingestionID := r.PathValue("ingestionID")
	item, err := h.ingestionService.Reject(ctx, usecase.RejectIngestionInput{
		ID:         ingestionID,
		ReviewerID: reviewer,
		Reason:     req.Reason,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "reject ingestion failed", "ingestion_id", ingestionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ingestionLogToDTO(item))
}

// logVerifyFailure logs caller mistakes and review conflicts at warn level.
func (h *Handler) logVerifyFailure(ctx context.Context, ingestionID string, err error) {
	if mapError(ctx, err).HTTPStatus < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, "verify ingestion rejected", "ingestion_id", ingestionID, "error", err)
		return
	}
	h.logger.ErrorContext(ctx, "verify ingestion failed", "ingestion_id", ingestionID, "error", err)
}
