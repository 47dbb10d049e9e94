package httpapi

import (
	"net/http"

	"github.com/riskibarqy/matchday/internal/usecase"
)

func (h *Handler) UpdateMatchStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMatchStatus")
	defer span.End()

	var req matchStatusRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.Transition(ctx, usecase.TransitionInput{
		MatchID:       req.MatchID,
		Status:        req.Status,
		CurrentMinute: req.CurrentMinute,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update match status failed", "match_id", req.MatchID, "status", req.Status, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) UpdateMatchScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMatchScore")
	defer span.End()

	var req matchScoreRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.SetScore(ctx, usecase.SetScoreInput{
		MatchID:   req.MatchID,
		HomeScore: *req.HomeScore,
		AwayScore: *req.AwayScore,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update match score failed", "match_id", req.MatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) RecordMatchEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordMatchEvent")
	defer span.End()

	var req matchEventRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	event, err := h.matchService.RecordEvent(ctx, usecase.RecordEventInput{
		MatchID:  req.MatchID,
		TeamID:   req.TeamID,
		PlayerID: req.PlayerID,
		Type:     req.EventType,
		Minute:   *req.Minute,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record match event failed",
			"match_id", req.MatchID,
			"team_id", req.TeamID,
			"event_type", req.EventType,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchEventToDTO(event))
}

func (h *Handler) RecordMatchPossession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordMatchPossession")
	defer span.End()

	var req matchPossessionRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.possessionService.RecordPossession(ctx, usecase.RecordPossessionInput{
		MatchID: req.MatchID,
		TeamID:  req.TeamID,
		Second:  req.Second,
		Source:  req.Source,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record possession failed", "match_id", req.MatchID, "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) UpsertMatchStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertMatchStats")
	defer span.End()

	var req matchStatsRequest
	if err := h.decodeRequest(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	counters, err := h.statsService.UpsertCounters(ctx, usecase.UpsertCountersInput{
		MatchID:         req.MatchID,
		TeamID:          req.TeamID,
		Shots:           req.Shots,
		ShotsOnTarget:   req.ShotsOnTarget,
		Corners:         req.Corners,
		Fouls:           req.Fouls,
		Offsides:        req.Offsides,
		YellowCards:     req.YellowCards,
		RedCards:        req.RedCards,
		Passes:          req.Passes,
		PassesCompleted: req.PassesCompleted,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "upsert match stats failed", "match_id", req.MatchID, "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamCountersToDTO(counters))
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := r.PathValue("matchID")
	item, err := h.matchService.Get(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) ListMatchEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchEvents")
	defer span.End()

	matchID := r.PathValue("matchID")
	events, err := h.matchService.ListEvents(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "list match events failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchEventDTO, 0, len(events))
	for _, e := range events {
		items = append(items, matchEventToDTO(e))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListMatchStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchStats")
	defer span.End()

	matchID := r.PathValue("matchID")
	stats, err := h.statsService.ListByMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "list match stats failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamMatchStatsDTO, 0, len(stats))
	for _, s := range stats {
		items = append(items, teamMatchStatsToDTO(s))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListMatchPossessions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchPossessions")
	defer span.End()

	matchID := r.PathValue("matchID")
	intervals, err := h.possessionService.ListByMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "list match possessions failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]possessionIntervalDTO, 0, len(intervals))
	for _, i := range intervals {
		items = append(items, possessionIntervalToDTO(i))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
