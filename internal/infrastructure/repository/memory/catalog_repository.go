package memory

import (
	"context"

	"github.com/riskibarqy/matchday/internal/domain/country"
	"github.com/riskibarqy/matchday/internal/domain/league"
	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/season"
	"github.com/riskibarqy/matchday/internal/domain/team"
)

type CountryRepository struct {
	store *Store
}

func NewCountryRepository(store *Store) *CountryRepository {
	return &CountryRepository{store: store}
}

func (r *CountryRepository) GetByID(_ context.Context, countryID string) (country.Country, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.countries[countryID]
	return item, ok, nil
}

func (r *CountryRepository) FindByName(_ context.Context, name string) (country.Country, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return firstByID(r.store.countries, func(item country.Country) bool { return item.Name == name })
}

func (r *CountryRepository) Insert(ctx context.Context, c country.Country) (bool, error) {
	return insertOnce(ctx, r.store, r.store.countries, c.ID, c)
}

type LeagueRepository struct {
	store *Store
}

func NewLeagueRepository(store *Store) *LeagueRepository {
	return &LeagueRepository{store: store}
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.leagues[leagueID]
	return item, ok, nil
}

func (r *LeagueRepository) FindByName(_ context.Context, name string) (league.League, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return firstByID(r.store.leagues, func(item league.League) bool { return item.Name == name })
}

func (r *LeagueRepository) Insert(ctx context.Context, l league.League) (bool, error) {
	return insertUnique(ctx, r.store, r.store.leagues, l.ID, l, func(item league.League) bool {
		return item.Name == l.Name
	})
}

type SeasonRepository struct {
	store *Store
}

func NewSeasonRepository(store *Store) *SeasonRepository {
	return &SeasonRepository{store: store}
}

func (r *SeasonRepository) GetByID(_ context.Context, seasonID string) (season.Season, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.seasons[seasonID]
	if !ok {
		return season.Season{}, false, nil
	}
	return cloneSeason(item), true, nil
}

func (r *SeasonRepository) FindByName(_ context.Context, leagueID, name string) (season.Season, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok, err := firstByID(r.store.seasons, func(item season.Season) bool {
		return item.LeagueID == leagueID && item.Name == name
	})
	return cloneSeason(item), ok, err
}

func (r *SeasonRepository) Insert(ctx context.Context, s season.Season) (bool, error) {
	return insertUnique(ctx, r.store, r.store.seasons, s.ID, cloneSeason(s), func(item season.Season) bool {
		return item.LeagueID == s.LeagueID && item.Name == s.Name
	})
}

type TeamRepository struct {
	store *Store
}

func NewTeamRepository(store *Store) *TeamRepository {
	return &TeamRepository{store: store}
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.teams[teamID]
	return item, ok, nil
}

func (r *TeamRepository) GetByIDs(_ context.Context, teamIDs []string) ([]team.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]team.Team, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		if item, ok := r.store.teams[teamID]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *TeamRepository) FindByName(_ context.Context, name string) (team.Team, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return firstByID(r.store.teams, func(item team.Team) bool { return item.Name == name })
}

func (r *TeamRepository) Insert(ctx context.Context, t team.Team) (bool, error) {
	return insertUnique(ctx, r.store, r.store.teams, t.ID, t, func(item team.Team) bool {
		return item.Name == t.Name
	})
}

type PlayerRepository struct {
	store *Store
}

func NewPlayerRepository(store *Store) *PlayerRepository {
	return &PlayerRepository{store: store}
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID string) (player.Player, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.players[playerID]
	return item, ok, nil
}

func (r *PlayerRepository) FindByName(_ context.Context, teamID, name string) (player.Player, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return firstByID(r.store.players, func(item player.Player) bool {
		return item.TeamID == teamID && item.Name == name
	})
}

func (r *PlayerRepository) Insert(ctx context.Context, p player.Player) (bool, error) {
	return insertUnique(ctx, r.store, r.store.players, p.ID, p, func(item player.Player) bool {
		return item.TeamID == p.TeamID && item.Name == p.Name
	})
}

// insertOnce stores value under key unless the key is taken.
func insertOnce[T any](ctx context.Context, store *Store, items map[string]T, key string, value T) (bool, error) {
	return insertUnique(ctx, store, items, key, value, nil)
}

// insertUnique is insertOnce that also refuses a value whose natural key,
// as judged by sameKey, is already stored under another id.
func insertUnique[T any](ctx context.Context, store *Store, items map[string]T, key string, value T, sameKey func(T) bool) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := items[key]; exists {
		return false, nil
	}
	if sameKey != nil {
		for _, item := range items {
			if sameKey(item) {
				return false, nil
			}
		}
	}
	items[key] = value
	onRollback(ctx, func() { delete(items, key) })
	return true, nil
}

// firstByID returns the match with the lowest id so lookups do not depend on
// map order. The caller holds the store lock.
func firstByID[T any](items map[string]T, match func(T) bool) (T, bool, error) {
	var (
		best   T
		bestID string
		found  bool
	)
	for itemID, item := range items {
		if !match(item) {
			continue
		}
		if !found || itemID < bestID {
			best, bestID, found = item, itemID, true
		}
	}
	return best, found, nil
}

func cloneSeason(item season.Season) season.Season {
	item.TeamIDs = append([]string(nil), item.TeamIDs...)
	return item
}
