package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_MatchPayload(t *testing.T) {
	payload, err := Decode(KindMatch, []byte(`{"homeTeamName":"Unknown FC","awayTeamId":"t-2","seasonId":"s-1"}`))
	require.NoError(t, err)
	require.Equal(t, KindMatch, payload.Kind)

	data, ok := payload.Data.(*MatchPayload)
	require.True(t, ok)
	assert.Equal(t, "Unknown FC", data.HomeTeamName)
	assert.Equal(t, "t-2", data.AwayTeamID)
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode(Kind("STADIUM"), []byte(`{}`))
	require.ErrorIs(t, err, ErrUnknownKind)

	_, err = Decode(KindClub, []byte(`{"countryName":"England"}`))
	require.Error(t, err)

	_, err = Decode(KindClub, []byte(`not-json`))
	require.Error(t, err)
}

func TestParseKind(t *testing.T) {
	kind, ok := ParseKind(" player ")
	require.True(t, ok)
	assert.Equal(t, KindPlayer, kind)

	_, ok = ParseKind("coach")
	assert.False(t, ok)
}

func TestResolve_OrderedStrategies(t *testing.T) {
	var calls []string
	strategy := func(name string, hit bool) Strategy[string] {
		return Strategy[string]{
			Name: name,
			Resolve: func(_ context.Context, ref Reference) (string, bool, error) {
				calls = append(calls, name)
				if hit {
					return name + ":" + ref.Name, true, nil
				}
				return "", false, nil
			},
		}
	}

	got, err := Resolve(context.Background(), "team", Reference{Name: "Rovers"}, []Strategy[string]{
		strategy("id", false),
		strategy("name", true),
		strategy("default", true),
	})
	require.NoError(t, err)
	assert.Equal(t, "name:Rovers", got)
	assert.Equal(t, []string{"id", "name"}, calls)
}

func TestResolve_FailsClosed(t *testing.T) {
	_, err := Resolve(context.Background(), "team", Reference{Name: "Unknown FC"}, []Strategy[string]{
		{Name: "id", Resolve: func(context.Context, Reference) (string, bool, error) { return "", false, nil }},
	})
	if !errors.Is(err, ErrMissingRequiredReference) {
		t.Fatalf("expected ErrMissingRequiredReference, got %v", err)
	}
}

func TestResolve_PropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Resolve(context.Background(), "team", Reference{ID: "t-1"}, []Strategy[string]{
		{Name: "id", Resolve: func(context.Context, Reference) (string, bool, error) { return "", false, boom }},
	})
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrMissingRequiredReference)
}

func TestLookup_MissIsNotAnError(t *testing.T) {
	got, ok, err := Lookup(context.Background(), "team", Reference{Name: "Unknown FC"}, []Strategy[string]{
		{Name: "id", Resolve: func(context.Context, Reference) (string, bool, error) { return "", false, nil }},
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestLog_TerminalError(t *testing.T) {
	assert.NoError(t, Log{Status: StatusPending}.TerminalError())
	assert.ErrorIs(t, Log{Status: StatusVerified}.TerminalError(), ErrAlreadyVerified)
	assert.ErrorIs(t, Log{Status: StatusRejected}.TerminalError(), ErrAlreadyRejected)
}
