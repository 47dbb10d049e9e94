package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListSeasonStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSeasonStandings")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	items, err := h.standingsService.ListBySeason(ctx, seasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "list standings failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueStandingsToDTO(items))
}

// ListLiveSeasonStandings projects the table as if the given in-play match
// ended with its current score. Nothing is persisted.
func (h *Handler) ListLiveSeasonStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLiveSeasonStandings")
	defer span.End()

	seasonID := r.PathValue("seasonID")
	matchID := strings.TrimSpace(r.URL.Query().Get("match_id"))
	items, err := h.standingsService.ProjectLiveStandings(ctx, seasonID, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "project live standings failed", "season_id", seasonID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueStandingsToDTO(items))
}
