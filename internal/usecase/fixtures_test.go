package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday/internal/platform/id"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

const (
	seededMatchID  = "idn-2025-md1-psj-psb"
	seededMatch2ID = "idn-2025-md1-prb-bu"
	homeTeamID     = "idn-persija"
	awayTeamID     = "idn-persib"
)

var fixedNow = time.Date(2025, time.August, 16, 12, 30, 0, 0, time.UTC)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobscheduler.Job
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job jobscheduler.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) kinds() map[jobscheduler.Kind][]string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[jobscheduler.Kind][]string)
	for _, job := range q.jobs {
		out[job.Kind] = append(out[job.Kind], job.TargetID)
	}
	return out
}

// testEnv wires the services over one seeded memory store.
type testEnv struct {
	store      *memory.Store
	queue      *recordingQueue
	dispatch   *memory.JobDispatchRepository
	jobs       *JobDispatcher
	matches    *MatchService
	possession *PossessionService
	stats      *StatsService
	standings  *StandingsService
	ingestion  *IngestionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	store.Seed()
	logger := logging.NewNop()
	queue := &recordingQueue{}
	dispatch := memory.NewJobDispatchRepository(store)
	matchRepo := memory.NewMatchRepository(store)
	eventRepo := memory.NewMatchEventRepository(store)
	possessionRepo := memory.NewPossessionRepository(store)

	jobs := NewJobDispatcher(queue, dispatch, &id.Sequence{Prefix: "job-"}, nil, logger)
	env := &testEnv{
		store:      store,
		queue:      queue,
		dispatch:   dispatch,
		jobs:       jobs,
		matches:    NewMatchService(matchRepo, eventRepo, jobs, &id.Sequence{Prefix: "event-"}, nil, logger),
		possession: NewPossessionService(matchRepo, possessionRepo, jobs, &id.Sequence{Prefix: "interval-"}, logger),
		stats:      NewStatsService(matchRepo, eventRepo, possessionRepo, memory.NewTeamStatsRepository(store), jobs),
		standings: NewStandingsService(
			memory.NewSeasonRepository(store),
			memory.NewTeamRepository(store),
			matchRepo,
			memory.NewLeagueStandingRepository(store),
		),
	}
	resolvers := NewResolvers(CatalogRepositories{
		Countries: memory.NewCountryRepository(store),
		Leagues:   memory.NewLeagueRepository(store),
		Seasons:   memory.NewSeasonRepository(store),
		Teams:     memory.NewTeamRepository(store),
		Players:   memory.NewPlayerRepository(store),
		Matches:   matchRepo,
	}, ResolverPolicy{DefaultCountryID: memory.CountryIDIndonesia}, &id.Sequence{Prefix: "entity-"}, func() time.Time { return fixedNow })
	env.ingestion = NewIngestionService(memory.NewIngestionRepository(store), store, resolvers, jobs, &id.Sequence{Prefix: "ingest-"}, logger)

	now := func() time.Time { return fixedNow }
	env.jobs.now = now
	env.matches.now = now
	env.possession.now = now
	env.stats.now = now
	env.ingestion.now = now
	return env
}

func (e *testEnv) kickOff(t *testing.T, matchID string) match.Match {
	t.Helper()
	item, err := e.matches.Transition(context.Background(), TransitionInput{MatchID: matchID, Status: "live"})
	if err != nil {
		t.Fatalf("kick off %s: %v", matchID, err)
	}
	return item
}

// setMinute moves the stored clock directly, bypassing transition rules.
func (e *testEnv) setMinute(t *testing.T, matchID string, minute int) {
	t.Helper()
	_, err := e.matches.matchRepo.Update(context.Background(), matchID, func(_ context.Context, m *match.Match) error {
		m.CurrentMinute = &minute
		return nil
	})
	if err != nil {
		t.Fatalf("set minute %s: %v", matchID, err)
	}
}

func intPtr(v int) *int {
	return &v
}

var errFlaky = errors.New("flaky dependency")
