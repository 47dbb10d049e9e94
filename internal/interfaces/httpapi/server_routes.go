package httpapi

import (
	"net/http"

	"github.com/riskibarqy/matchday/internal/domain/user"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, cfg RouterConfig) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}
	if !cfg.SwaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}/events", handler.ListMatchEvents)
	mux.HandleFunc("GET /v1/matches/{matchID}/stats", handler.ListMatchStats)
	mux.HandleFunc("GET /v1/matches/{matchID}/possessions", handler.ListMatchPossessions)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/standings", handler.ListSeasonStandings)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/standings/live", handler.ListLiveSeasonStandings)
}

func registerOperatorRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	operator := func(h http.HandlerFunc) http.Handler {
		return RequireRole(verifier, h, user.RoleOperator)
	}

	mux.Handle("POST /v1/match-status", operator(handler.UpdateMatchStatus))
	mux.Handle("POST /v1/match-score", operator(handler.UpdateMatchScore))
	mux.Handle("POST /v1/match-events", operator(handler.RecordMatchEvent))
	mux.Handle("POST /v1/match-possessions", operator(handler.RecordMatchPossession))
	mux.Handle("POST /v1/match-stats", operator(handler.UpsertMatchStats))
}

func registerIngestionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, limiter *ClientRateLimiter) {
	ingestor := func(h http.HandlerFunc) http.Handler {
		return RateLimit(limiter, RequireRole(verifier, h, user.RoleIngestor))
	}
	reviewer := func(h http.HandlerFunc) http.Handler {
		return RateLimit(limiter, RequireRole(verifier, h, user.RoleVerifier))
	}

	mux.Handle("POST /v1/ingest", ingestor(handler.SubmitIngestion))
	mux.Handle("GET /v1/ingest/{ingestionID}", reviewer(handler.GetIngestion))
	mux.Handle("POST /v1/verify/{ingestionID}", reviewer(handler.VerifyIngestion))
	mux.Handle("POST /v1/verify/{ingestionID}/retry", reviewer(handler.RetryIngestionResolution))
	mux.Handle("POST /v1/reject/{ingestionID}", reviewer(handler.RejectIngestion))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/recompute", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRecomputeJob)))
	mux.Handle("GET /v1/internal/jobs/dispatches", RequireRole(verifier, http.HandlerFunc(handler.ListJobDispatches), user.RoleAdmin))
}
