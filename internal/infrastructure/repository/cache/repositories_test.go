package cache

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/team"
	basecache "github.com/riskibarqy/matchday/internal/platform/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTeams struct {
	items   map[string]team.Team
	batches int
	gets    int
}

func (c *countingTeams) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	c.gets++
	item, ok := c.items[teamID]
	return item, ok, nil
}

func (c *countingTeams) GetByIDs(_ context.Context, teamIDs []string) ([]team.Team, error) {
	c.batches++
	out := make([]team.Team, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		if item, ok := c.items[teamID]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (c *countingTeams) FindByName(context.Context, string) (team.Team, bool, error) {
	return team.Team{}, false, nil
}

func (c *countingTeams) Insert(_ context.Context, t team.Team) (bool, error) {
	c.items[t.ID] = t
	return true, nil
}

func TestTeamRepository_GetByIDsServesHitsFromCache(t *testing.T) {
	next := &countingTeams{items: map[string]team.Team{
		"a": {ID: "a", Name: "Alpha"},
		"b": {ID: "b", Name: "Beta"},
	}}
	repo := NewTeamRepository(next, basecache.NewStore[team.Team](time.Minute, 0))
	ctx := context.Background()

	first, err := repo.GetByIDs(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := repo.GetByIDs(ctx, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, []string{second[0].ID, second[1].ID})
	assert.Equal(t, 1, next.batches)
}

func TestTeamRepository_MissIsNotCached(t *testing.T) {
	next := &countingTeams{items: map[string]team.Team{}}
	repo := NewTeamRepository(next, basecache.NewStore[team.Team](time.Minute, 0))
	ctx := context.Background()

	_, exists, err := repo.GetByID(ctx, "late")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Insert(ctx, team.Team{ID: "late", Name: "Late FC"})
	require.NoError(t, err)

	item, exists, err := repo.GetByID(ctx, "late")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "Late FC", item.Name)
	assert.Equal(t, 2, next.gets)
}
