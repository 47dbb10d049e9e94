//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/riskibarqy/matchday/internal/domain/ingestion"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/matchevent"
	"github.com/riskibarqy/matchday/internal/domain/teamstats"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/memory"
)

var testDB *sqlx.DB

// TestMain starts a throwaway postgres unless TEST_DB_URL points at one,
// applies db/migrations and loads the demo seed.
func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_URL")
	var container *tcpostgres.PostgresContainer
	if dsn == "" {
		var err error
		container, err = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("matchday_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("start postgres container: %v\n", err)
			os.Exit(1)
		}
		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("postgres connection string: %v\n", err)
			_ = container.Terminate(ctx)
			os.Exit(1)
		}
	}

	code := func() int {
		if err := applyMigrations(dsn); err != nil {
			fmt.Printf("apply migrations: %v\n", err)
			return 1
		}
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			fmt.Printf("connect postgres: %v\n", err)
			return 1
		}
		defer db.Close()
		if err := BootstrapSeed(ctx, db); err != nil {
			fmt.Printf("seed postgres: %v\n", err)
			return 1
		}
		testDB = db
		return m.Run()
	}()

	if container != nil {
		_ = container.Terminate(ctx)
	}
	os.Exit(code)
}

func applyMigrations(dsn string) error {
	dir, err := filepath.Abs("../../../../db/migrations")
	if err != nil {
		return err
	}
	m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

const seededMatchID = "idn-2025-md1-psj-psb"

func TestMatchRepositoryUpdate_RollsBackSideWrites(t *testing.T) {
	ctx := context.Background()
	matches := NewMatchRepository(testDB)
	events := NewMatchEventRepository(testDB)

	boom := errors.New("boom")
	_, err := matches.Update(ctx, seededMatchID, func(ctx context.Context, m *match.Match) error {
		minute := 12
		m.CurrentMinute = &minute
		require.NoError(t, events.Create(ctx, matchevent.Event{
			ID:        "evt-rollback",
			MatchID:   seededMatchID,
			TeamID:    "idn-persija",
			Type:      matchevent.TypeCorner,
			Minute:    12,
			CreatedAt: time.Now().UTC(),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, ok, err := matches.GetByID(ctx, seededMatchID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, stored.CurrentMinute)

	list, err := events.ListByMatch(ctx, seededMatchID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMatchRepositoryUpdate_SerializesWithRowLock(t *testing.T) {
	ctx := context.Background()
	matches := NewMatchRepository(testDB)
	const matchID = "eng-2025-md1-ars-liv"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := matches.Update(ctx, matchID, func(_ context.Context, m *match.Match) error {
				next := m.Minute() + 1
				m.CurrentMinute = &next
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, _, err := matches.GetByID(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Minute())

	_, err = matches.Update(ctx, "missing", func(context.Context, *match.Match) error { return nil })
	assert.ErrorIs(t, err, match.ErrNotFound)
}

func TestIngestionRepository_OnlyOneReviewWins(t *testing.T) {
	ctx := context.Background()
	repo := NewIngestionRepository(testDB)
	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, ingestion.Log{
		ID:        "ing-race",
		Kind:      ingestion.KindClub,
		Source:    "test",
		Payload:   []byte(`{"name":"Arema FC"}`),
		Status:    ingestion.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = repo.MarkVerified(ctx, "ing-race", ingestion.VerificationRecord{IngestionID: "ing-race", VerifierID: "v", ConfidenceScore: 0.9, CreatedAt: now})
			} else {
				_, err = repo.MarkRejected(ctx, "ing-race", "dup", "v", now)
			}
			if err == nil {
				wins.Add(1)
				return
			}
			assert.True(t, errors.Is(err, ingestion.ErrAlreadyVerified) || errors.Is(err, ingestion.ErrAlreadyRejected), "unexpected error: %v", err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	_, err := repo.MarkRejected(ctx, "ing-missing", "", "v", now)
	assert.ErrorIs(t, err, ingestion.ErrNotFound)
}

func TestTeamStatsRepository_ReplaceAndMergeCounters(t *testing.T) {
	ctx := context.Background()
	repo := NewTeamStatsRepository(testDB)
	const matchID = "idn-2025-md1-prb-bu"
	computedAt := time.Date(2025, 8, 16, 15, 0, 0, 0, time.UTC)

	rows := []teamstats.MatchStats{
		{MatchID: matchID, TeamID: "idn-baliutd", Goals: 1, PossessionPct: 40, ComputedAt: computedAt},
		{MatchID: matchID, TeamID: "idn-persebaya", Goals: 2, PossessionPct: 60, ComputedAt: computedAt},
	}
	require.NoError(t, repo.ReplaceByMatch(ctx, matchID, rows))
	require.NoError(t, repo.ReplaceByMatch(ctx, matchID, rows))

	stored, err := repo.ListByMatch(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, rows, stored)

	shots, corners := 7, 3
	require.NoError(t, repo.UpsertCounters(ctx, teamstats.Counters{MatchID: matchID, TeamID: "idn-persebaya", Shots: &shots, UpdatedAt: computedAt}))
	require.NoError(t, repo.UpsertCounters(ctx, teamstats.Counters{MatchID: matchID, TeamID: "idn-persebaya", Corners: &corners, UpdatedAt: computedAt}))

	counters, err := repo.ListCountersByMatch(ctx, matchID)
	require.NoError(t, err)
	require.Len(t, counters, 1)
	require.NotNil(t, counters[0].Shots)
	require.NotNil(t, counters[0].Corners)
	assert.Equal(t, 7, *counters[0].Shots)
	assert.Equal(t, 3, *counters[0].Corners)
}

func TestCatalogRepositories_InsertIgnoresExisting(t *testing.T) {
	ctx := context.Background()
	teams := NewTeamRepository(testDB)

	created, err := teams.Insert(ctx, memory.SeedTeams()[0])
	require.NoError(t, err)
	assert.False(t, created)

	got, err := teams.GetByIDs(ctx, []string{"idn-persib", "unknown", "idn-persija"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "idn-persib", got[0].ID)
	assert.Equal(t, "idn-persija", got[1].ID)

	seasons := NewSeasonRepository(testDB)
	item, ok, err := seasons.FindByName(ctx, memory.LeagueIDLiga1Indonesia, "2025/2026")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, item.TeamIDs, 4)
}

func TestCatalogRepositories_NaturalKeysAreUnique(t *testing.T) {
	ctx := context.Background()

	renamed := memory.SeedTeams()[0]
	renamed.ID = "dup-" + renamed.ID
	created, err := NewTeamRepository(testDB).Insert(ctx, renamed)
	require.NoError(t, err)
	assert.False(t, created, "club name is unique")

	matches := NewMatchRepository(testDB)
	fixture := memory.SeedMatches()[0]
	fixture.ID = "dup-" + fixture.ID
	created, err = matches.Insert(ctx, fixture)
	require.NoError(t, err)
	assert.False(t, created, "season, teams and kick-off are unique")

	found, ok, err := matches.FindFixture(ctx, fixture.SeasonID, fixture.HomeTeamID, fixture.AwayTeamID, fixture.ScheduledAt)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, memory.SeedMatches()[0].ID, found.ID)
}
