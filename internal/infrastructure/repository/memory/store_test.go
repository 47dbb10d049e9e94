package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/ingestion"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/matchevent"
	"github.com/riskibarqy/matchday/internal/domain/team"
	"github.com/riskibarqy/matchday/internal/domain/teamstats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWithinTx_RollsBackInsertsOnError(t *testing.T) {
	store := NewStore()
	teams := NewTeamRepository(store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		created, err := teams.Insert(ctx, team.Team{ID: "t-1", Name: "Alpha"})
		require.NoError(t, err)
		require.True(t, created)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, exists, err := teams.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreWithinTx_KeepsInsertsOnCommit(t *testing.T) {
	store := NewStore()
	teams := NewTeamRepository(store)
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		_, err := teams.Insert(ctx, team.Team{ID: "t-1", Name: "Alpha"})
		return err
	})
	require.NoError(t, err)

	found, exists, err := teams.FindByName(ctx, "Alpha")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "t-1", found.ID)

	created, err := teams.Insert(ctx, team.Team{ID: "t-1", Name: "Other"})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestTeamRepository_NaturalKeyIsUnique(t *testing.T) {
	store := NewStore()
	teams := NewTeamRepository(store)
	ctx := context.Background()

	created, err := teams.Insert(ctx, team.Team{ID: "t-2", Name: "Alpha"})
	require.NoError(t, err)
	require.True(t, created)
	created, err = teams.Insert(ctx, team.Team{ID: "t-1", Name: "Alpha"})
	require.NoError(t, err)
	assert.False(t, created, "a second club with the same name must be refused")

	_, exists, err := teams.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFirstByID_PicksLowestID(t *testing.T) {
	items := map[string]team.Team{
		"t-3": {ID: "t-3", Name: "Alpha"},
		"t-1": {ID: "t-1", Name: "Alpha"},
		"t-2": {ID: "t-2", Name: "Beta"},
	}
	for range 20 {
		got, ok, err := firstByID(items, func(item team.Team) bool { return item.Name == "Alpha" })
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "t-1", got.ID)
	}
}

func TestMatchRepository_FixtureIsUnique(t *testing.T) {
	store := NewStore()
	store.Seed()
	matches := NewMatchRepository(store)
	ctx := context.Background()

	seeded, exists, err := matches.GetByID(ctx, "idn-2025-md1-psj-psb")
	require.NoError(t, err)
	require.True(t, exists)

	duplicate := seeded
	duplicate.ID = "another-id"
	created, err := matches.Insert(ctx, duplicate)
	require.NoError(t, err)
	assert.False(t, created)

	found, exists, err := matches.FindFixture(ctx, seeded.SeasonID, seeded.HomeTeamID, seeded.AwayTeamID, seeded.ScheduledAt)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, seeded.ID, found.ID)

	_, exists, err = matches.FindFixture(ctx, seeded.SeasonID, seeded.AwayTeamID, seeded.HomeTeamID, seeded.ScheduledAt)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMatchRepositoryUpdate_FailedUpdateDiscardsSideWrites(t *testing.T) {
	store := NewStore()
	store.Seed()
	matches := NewMatchRepository(store)
	events := NewMatchEventRepository(store)
	ctx := context.Background()
	matchID := SeedMatches()[0].ID

	_, err := matches.Update(ctx, matchID, func(ctx context.Context, m *match.Match) error {
		m.Venue = "changed"
		if err := events.Create(ctx, matchevent.Event{ID: "e-1", MatchID: m.ID, Type: matchevent.TypeCorner}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	stored, _, err := matches.GetByID(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, SeedMatches()[0].Venue, stored.Venue)

	items, err := events.ListByMatch(ctx, matchID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMatchRepositoryUpdate_SerializesPerMatch(t *testing.T) {
	store := NewStore()
	store.Seed()
	matches := NewMatchRepository(store)
	ctx := context.Background()
	matchID := SeedMatches()[0].ID

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
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
	assert.Equal(t, 50, stored.Minute())
}

func TestMatchRepositoryUpdate_UnknownMatch(t *testing.T) {
	matches := NewMatchRepository(NewStore())
	_, err := matches.Update(context.Background(), "missing", func(context.Context, *match.Match) error { return nil })
	if !errors.Is(err, match.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIngestionRepository_OnlyOneReviewWins(t *testing.T) {
	store := NewStore()
	repo := NewIngestionRepository(store)
	ctx := context.Background()
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, ingestion.Log{ID: "ing-1", Kind: ingestion.KindClub, Status: ingestion.StatusPending, CreatedAt: now}))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		verified int
		rejected int
		failed   int
	)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.MarkVerified(ctx, "ing-1", ingestion.VerificationRecord{IngestionID: "ing-1", VerifierID: "v", CreatedAt: now})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				verified++
			} else {
				failed++
			}
		}()
		go func() {
			defer wg.Done()
			_, err := repo.MarkRejected(ctx, "ing-1", "dup", "r", now)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				rejected++
			} else {
				failed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, verified+rejected)
	assert.Equal(t, 39, failed)
}

func TestTeamStatsRepositoryUpsertCounters_MergesFields(t *testing.T) {
	store := NewStore()
	repo := NewTeamStatsRepository(store)
	ctx := context.Background()

	shots := 5
	corners := 2
	require.NoError(t, repo.UpsertCounters(ctx, statsCounters("m-1", "home", &shots, nil)))
	require.NoError(t, repo.UpsertCounters(ctx, statsCounters("m-1", "home", nil, &corners)))

	rows, err := repo.ListCountersByMatch(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Shots)
	require.NotNil(t, rows[0].Corners)
	assert.Equal(t, 5, *rows[0].Shots)
	assert.Equal(t, 2, *rows[0].Corners)
}

func statsCounters(matchID, teamID string, shots, corners *int) teamstats.Counters {
	return teamstats.Counters{MatchID: matchID, TeamID: teamID, Shots: shots, Corners: corners}
}
