package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday/internal/platform/id"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testInternalToken = "job-secret"
	seededMatchID     = "idn-2025-md1-psj-psb"
)

type testEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       map[string]any   `json:"data"`
	Error      *googleErrorBody `json:"error"`
}

type testListEnvelope struct {
	Data []map[string]any `json:"data"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store := memory.NewStore()
	store.Seed()

	logger := logging.NewNop()
	ids := &id.Sequence{Prefix: "id-"}
	matches := memory.NewMatchRepository(store)
	events := memory.NewMatchEventRepository(store)
	possessions := memory.NewPossessionRepository(store)
	stats := memory.NewTeamStatsRepository(store)
	standings := memory.NewLeagueStandingRepository(store)
	dispatch := memory.NewJobDispatchRepository(store)
	seasons := memory.NewSeasonRepository(store)
	teams := memory.NewTeamRepository(store)

	jobs := usecase.NewJobDispatcher(nil, dispatch, ids, nil, logger)
	matchService := usecase.NewMatchService(matches, events, jobs, ids, nil, logger)
	possessionService := usecase.NewPossessionService(matches, possessions, jobs, ids, logger)
	statsService := usecase.NewStatsService(matches, events, possessions, stats, jobs)
	standingsService := usecase.NewStandingsService(seasons, teams, matches, standings)
	resolvers := usecase.NewResolvers(usecase.CatalogRepositories{
		Countries: memory.NewCountryRepository(store),
		Leagues:   memory.NewLeagueRepository(store),
		Seasons:   seasons,
		Teams:     teams,
		Players:   memory.NewPlayerRepository(store),
		Matches:   matches,
	}, usecase.ResolverPolicy{DefaultCountryID: memory.CountryIDIndonesia}, ids, nil)
	ingestionService := usecase.NewIngestionService(memory.NewIngestionRepository(store), store, resolvers, jobs, ids, logger)

	handler := NewHandler(
		matchService,
		possessionService,
		statsService,
		standingsService,
		ingestionService,
		usecase.NewRecomputeHandler(statsService, standingsService, nil),
		dispatch,
		logger,
	)
	return NewRouter(handler, testVerifier, logger, RouterConfig{
		InternalJobToken: testInternalToken,
	})
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope testEnvelope
	if rec.Body.Len() > 0 {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("unmarshal %s %s response: %v body=%s", method, path, err, rec.Body.String())
		}
	}
	return rec, envelope
}

func TestRouter_MatchLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doRequest(t, router, http.MethodPost, "/v1/match-status", "operator-token",
		`{"match_id":"`+seededMatchID+`","status":"finished"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "invalidTransition", body.Error.Errors[0].Reason)

	rec, body = doRequest(t, router, http.MethodPost, "/v1/match-status", "operator-token",
		`{"match_id":"`+seededMatchID+`","status":"live"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "live", body.Data["status"])
	assert.Equal(t, "1H", body.Data["period"])
	assert.EqualValues(t, 0, body.Data["current_minute"])

	rec, body = doRequest(t, router, http.MethodPost, "/v1/match-status", "operator-token",
		`{"match_id":"`+seededMatchID+`","status":"finished"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "scoreRequired", body.Error.Errors[0].Reason)

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/match-events", "operator-token",
		`{"match_id":"`+seededMatchID+`","team_id":"idn-persib","event_type":"goal","minute":12}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body = doRequest(t, router, http.MethodPost, "/v1/match-status", "operator-token",
		`{"match_id":"`+seededMatchID+`","status":"finished"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "FT", body.Data["period"])
	assert.EqualValues(t, 0, body.Data["home_score"])
	assert.EqualValues(t, 1, body.Data["away_score"])

	rec, body = doRequest(t, router, http.MethodGet, "/v1/matches/"+seededMatchID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "finished", body.Data["status"])
}

func TestRouter_OperatorRoutesRequireRole(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doRequest(t, router, http.MethodPost, "/v1/match-status", "",
		`{"match_id":"`+seededMatchID+`","status":"live"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/match-status", "verifier-token",
		`{"match_id":"`+seededMatchID+`","status":"live"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/match-status", "operator-token",
		`{"match_id":"`+seededMatchID+`","status":"live","extra":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/matches/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_IngestVerifyMissingReference(t *testing.T) {
	router := newTestRouter(t)

	payload := `{"type":"MATCH","source":"feed","payload":{"seasonId":"idn-liga-1-2025","homeTeamName":"Persija Jakarta","awayTeamName":"Atletico Nowhere","scheduledAt":"2025-09-01T12:00:00Z"}}`
	rec, body := doRequest(t, router, http.MethodPost, "/v1/ingest", "ingestor-token", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "pending", body.Data["status"])
	ingestionID, _ := body.Data["id"].(string)
	require.NotEmpty(t, ingestionID)

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/verify/"+ingestionID, "ingestor-token", `{"score":0.9}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = doRequest(t, router, http.MethodPost, "/v1/verify/"+ingestionID, "verifier-token", `{"score":0.9}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "missingReference", body.Error.Errors[0].Reason)

	rec, body = doRequest(t, router, http.MethodGet, "/v1/ingest/"+ingestionID, "verifier-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "verified", body.Data["status"])
	assert.Contains(t, body.Data["resolution_error"], "away team")

	rec, body = doRequest(t, router, http.MethodPost, "/v1/verify/"+ingestionID, "verifier-token", `{"score":0.9}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "alreadyReviewed", body.Error.Errors[0].Reason)

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/reject/"+ingestionID, "verifier-token", `{"reason":"late"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_IngestRejectsUnknownType(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doRequest(t, router, http.MethodPost, "/v1/ingest", "ingestor-token", `{"type":"REFEREE","payload":{"name":"x"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", body.Error.Status)
}

func TestRouter_InternalRecomputeJob(t *testing.T) {
	router := newTestRouter(t)
	job := `{"id":"job-1","kind":"stats","target_id":"` + seededMatchID + `","attempt":0,"enqueued_at":"2025-08-16T12:00:00Z"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/recompute", strings.NewReader(job))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/recompute", strings.NewReader(job))
	req.Header.Set("X-Internal-Job-Token", testInternalToken)
	req.Header.Set("Upstash-Retried", "2")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/internal/jobs/dispatches?status=completed", "operator-token", "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/internal/jobs/dispatches?status=completed", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var list testListEnvelope
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "job-1", list.Data[0]["job_id"])
	assert.EqualValues(t, 3, list.Data[0]["attempt"])

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/internal/jobs/dispatches?limit=0", "admin-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_StandingsAreListedForSeason(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/seasons/"+memory.SeasonIDLiga1Indonesia2025+"/standings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = doRequest(t, router, http.MethodGet, "/v1/seasons/"+memory.SeasonIDLiga1Indonesia2025+"/standings/live", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "match_id is required")
}
