package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/ingestion"
	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aremaMatchPayload = `{"id":"idn-2025-md2-psj-are","seasonId":"idn-liga-1-2025","homeTeamName":"Persija Jakarta","awayTeamName":"Arema FC","scheduledAt":"2025-08-23T12:00:00Z","venue":"Jakarta International Stadium"}`
	aremaClubPayload  = `{"id":"idn-arema","name":"Arema FC","shortName":"ARE"}`
)

func submit(t *testing.T, env *testEnv, kind, payload string) ingestion.Log {
	t.Helper()
	item, err := env.ingestion.Submit(context.Background(), SubmitIngestionInput{
		Kind:        kind,
		Source:      "scraper",
		Payload:     []byte(payload),
		SubmittedBy: "ingestor-1",
	})
	require.NoError(t, err)
	return item
}

func TestIngestionService_SubmitValidatesPayload(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	item := submit(t, env, "match", aremaMatchPayload)
	assert.Equal(t, ingestion.StatusPending, item.Status)
	assert.Equal(t, ingestion.KindMatch, item.Kind)
	assert.Equal(t, "scraper", item.Source)

	_, err := env.ingestion.Submit(ctx, SubmitIngestionInput{Kind: "FIXTURE", Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.ingestion.Submit(ctx, SubmitIngestionInput{Kind: "CLUB", Payload: []byte(`{"shortName":"X"}`)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.ingestion.Submit(ctx, SubmitIngestionInput{Kind: "CLUB", Payload: []byte(`not json`)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngestionService_MissingReferenceThenRetry(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	pending := submit(t, env, "MATCH", aremaMatchPayload)

	_, err := env.ingestion.Verify(ctx, VerifyIngestionInput{ID: pending.ID, VerifierID: "verifier-1", ConfidenceScore: 0.9})
	if !errors.Is(err, ingestion.ErrMissingRequiredReference) {
		t.Fatalf("expected ErrMissingRequiredReference, got %v", err)
	}

	stored, err := env.ingestion.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, ingestion.StatusVerified, stored.Status)
	assert.Contains(t, stored.ResolutionError, "away team")
	assert.Empty(t, stored.ResolvedEntityID)

	_, exists, err := env.matches.matchRepo.GetByID(ctx, "idn-2025-md2-psj-are")
	require.NoError(t, err)
	assert.False(t, exists, "failed resolution must not leave a match behind")
	assert.Empty(t, env.queue.kinds()[jobscheduler.KindSearchIndex])

	_, err = env.ingestion.Verify(ctx, VerifyIngestionInput{ID: pending.ID, VerifierID: "verifier-2", ConfidenceScore: 0.9})
	assert.ErrorIs(t, err, ingestion.ErrAlreadyVerified)

	club := submit(t, env, "CLUB", aremaClubPayload)
	clubResult, err := env.ingestion.Verify(ctx, VerifyIngestionInput{ID: club.ID, VerifierID: "verifier-1", ConfidenceScore: 1})
	require.NoError(t, err)
	assert.True(t, clubResult.Created)
	assert.Equal(t, "idn-arema", clubResult.EntityID)

	retried, err := env.ingestion.RetryResolution(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, "idn-2025-md2-psj-are", retried.EntityID)
	assert.True(t, retried.Created)

	created, exists, err := env.matches.matchRepo.GetByID(ctx, "idn-2025-md2-psj-are")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, homeTeamID, created.HomeTeamID)
	assert.Equal(t, "idn-arema", created.AwayTeamID)
	assert.Equal(t, match.StatusScheduled, created.Status)

	kinds := env.queue.kinds()
	assert.Contains(t, kinds[jobscheduler.KindSearchIndex], "idn-2025-md2-psj-are")
	assert.Contains(t, kinds[jobscheduler.KindSearchIndex], "idn-arema")
	assert.Contains(t, kinds[jobscheduler.KindStandings], liga1SeasonID)

	_, err = env.ingestion.RetryResolution(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestIngestionService_VerifyingSameClubTwiceLinksOneRow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	const payload = `{"name":"Persija Jakarta","countryName":"Indonesia"}`

	for i := range 2 {
		pending := submit(t, env, "CLUB", payload)
		result, err := env.ingestion.Verify(ctx, VerifyIngestionInput{ID: pending.ID, VerifierID: "verifier-1", ConfidenceScore: 1})
		require.NoError(t, err, "verify %d", i)
		assert.Equal(t, homeTeamID, result.EntityID, "verify %d", i)
		assert.False(t, result.Created, "verify %d", i)
	}

	found, exists, err := memory.NewTeamRepository(env.store).FindByName(ctx, "Persija Jakarta")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, homeTeamID, found.ID)
	assert.Empty(t, env.queue.kinds()[jobscheduler.KindSearchIndex], "linking an existing club indexes nothing")

	club := submit(t, env, "CLUB", `{"name":"Madura United","countryName":"Indonesia"}`)
	first, err := env.ingestion.Verify(ctx, VerifyIngestionInput{ID: club.ID, VerifierID: "verifier-1", ConfidenceScore: 1})
	require.NoError(t, err)
	require.True(t, first.Created)

	again := submit(t, env, "CLUB", `{"name":"Madura United","countryName":"Indonesia"}`)
	second, err := env.ingestion.Verify(ctx, VerifyIngestionInput{ID: again.ID, VerifierID: "verifier-2", ConfidenceScore: 1})
	require.NoError(t, err)
	assert.Equal(t, first.EntityID, second.EntityID)
	assert.False(t, second.Created)
	assert.Equal(t, []string{first.EntityID}, env.queue.kinds()[jobscheduler.KindSearchIndex])
}

func TestIngestionService_MatchWithoutIDResolvesToExistingFixture(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	seeded, exists, err := env.matches.matchRepo.GetByID(ctx, seededMatchID)
	require.NoError(t, err)
	require.True(t, exists)

	payload := `{"seasonId":"` + seeded.SeasonID + `","homeTeamName":"Persija Jakarta","awayTeamName":"Persib Bandung","scheduledAt":"` +
		seeded.ScheduledAt.Format(time.RFC3339) + `"}`
	pending := submit(t, env, "MATCH", payload)
	result, err := env.ingestion.Verify(ctx, VerifyIngestionInput{ID: pending.ID, VerifierID: "verifier-1", ConfidenceScore: 1})
	require.NoError(t, err)
	assert.Equal(t, seededMatchID, result.EntityID)
	assert.False(t, result.Created)

	matches, err := env.matches.matchRepo.ListBySeason(ctx, seeded.SeasonID)
	require.NoError(t, err)
	fixtures := 0
	for _, item := range matches {
		if item.HomeTeamID == homeTeamID && item.AwayTeamID == awayTeamID {
			fixtures++
		}
	}
	assert.Equal(t, 1, fixtures)
	assert.Empty(t, env.queue.kinds()[jobscheduler.KindStandings])
}

func TestIngestionService_RejectIsTerminal(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	pending := submit(t, env, "CLUB", aremaClubPayload)

	rejected, err := env.ingestion.Reject(ctx, RejectIngestionInput{ID: pending.ID, ReviewerID: "verifier-1", Reason: " duplicate "})
	require.NoError(t, err)
	assert.Equal(t, ingestion.StatusRejected, rejected.Status)
	assert.Equal(t, "duplicate", rejected.RejectReason)

	_, err = env.ingestion.Verify(ctx, VerifyIngestionInput{ID: pending.ID, VerifierID: "verifier-2", ConfidenceScore: 0.5})
	assert.ErrorIs(t, err, ingestion.ErrAlreadyRejected)
	_, err = env.ingestion.Reject(ctx, RejectIngestionInput{ID: pending.ID, ReviewerID: "verifier-2"})
	assert.ErrorIs(t, err, ingestion.ErrAlreadyRejected)

	_, err = env.ingestion.Verify(ctx, VerifyIngestionInput{ID: pending.ID, ConfidenceScore: 1.5})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.ingestion.Verify(ctx, VerifyIngestionInput{ID: "missing", ConfidenceScore: 0.5})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIngestionService_ConcurrentReviewsHaveOneWinner(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	pending := submit(t, env, "CLUB", aremaClubPayload)

	var (
		wg      sync.WaitGroup
		wins    atomic.Int32
		losses  atomic.Int32
		unknown atomic.Int32
	)
	for i := range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = env.ingestion.Verify(ctx, VerifyIngestionInput{ID: pending.ID, VerifierID: "verifier", ConfidenceScore: 0.8})
			} else {
				_, err = env.ingestion.Reject(ctx, RejectIngestionInput{ID: pending.ID, ReviewerID: "verifier", Reason: "dup"})
			}
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ingestion.ErrAlreadyVerified), errors.Is(err, ingestion.ErrAlreadyRejected):
				losses.Add(1)
			default:
				unknown.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(11), losses.Load())
	assert.Zero(t, unknown.Load())

	stored, err := env.ingestion.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsTerminal())
}
