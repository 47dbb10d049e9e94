package cache

import (
	"context"

	"github.com/riskibarqy/matchday/internal/domain/season"
	"github.com/riskibarqy/matchday/internal/domain/team"
	basecache "github.com/riskibarqy/matchday/internal/platform/cache"
)

// Catalog rows are insert-only, so a cached hit never goes stale. Misses are
// not cached; a club ingested later becomes visible on the next read.

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store[team.Team]
}

func NewTeamRepository(next team.Repository, cache *basecache.Store[team.Team]) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	if item, ok := r.cache.Get(ctx, teamKey(teamID)); ok {
		return item, true, nil
	}
	item, exists, err := r.next.GetByID(ctx, teamID)
	if err != nil || !exists {
		return team.Team{}, false, err
	}
	r.cache.Set(ctx, teamKey(teamID), item)
	return item, true, nil
}

func (r *TeamRepository) GetByIDs(ctx context.Context, teamIDs []string) ([]team.Team, error) {
	found := make(map[string]team.Team, len(teamIDs))
	missing := make([]string, 0)
	for _, teamID := range teamIDs {
		if item, ok := r.cache.Get(ctx, teamKey(teamID)); ok {
			found[teamID] = item
			continue
		}
		missing = append(missing, teamID)
	}

	if len(missing) > 0 {
		loaded, err := r.next.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, item := range loaded {
			r.cache.Set(ctx, teamKey(item.ID), item)
			found[item.ID] = item
		}
	}

	out := make([]team.Team, 0, len(found))
	for _, teamID := range teamIDs {
		if item, ok := found[teamID]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *TeamRepository) FindByName(ctx context.Context, name string) (team.Team, bool, error) {
	return r.next.FindByName(ctx, name)
}

func (r *TeamRepository) Insert(ctx context.Context, t team.Team) (bool, error) {
	r.cache.Delete(ctx, teamKey(t.ID))
	return r.next.Insert(ctx, t)
}

type SeasonRepository struct {
	next  season.Repository
	cache *basecache.Store[season.Season]
}

func NewSeasonRepository(next season.Repository, cache *basecache.Store[season.Season]) *SeasonRepository {
	return &SeasonRepository{next: next, cache: cache}
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	if item, ok := r.cache.Get(ctx, seasonKey(seasonID)); ok {
		return cloneSeason(item), true, nil
	}
	item, exists, err := r.next.GetByID(ctx, seasonID)
	if err != nil || !exists {
		return season.Season{}, false, err
	}
	r.cache.Set(ctx, seasonKey(seasonID), cloneSeason(item))
	return item, true, nil
}

func (r *SeasonRepository) FindByName(ctx context.Context, leagueID, name string) (season.Season, bool, error) {
	return r.next.FindByName(ctx, leagueID, name)
}

func (r *SeasonRepository) Insert(ctx context.Context, s season.Season) (bool, error) {
	r.cache.Delete(ctx, seasonKey(s.ID))
	return r.next.Insert(ctx, s)
}

func teamKey(teamID string) string { return "team:id:" + teamID }

func seasonKey(seasonID string) string { return "season:id:" + seasonID }

func cloneSeason(item season.Season) season.Season {
	item.TeamIDs = append([]string(nil), item.TeamIDs...)
	return item
}
