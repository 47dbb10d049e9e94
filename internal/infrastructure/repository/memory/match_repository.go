package memory

import (
	"context"
	"sort"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/match"
)

type MatchRepository struct {
	store *Store
}

func NewMatchRepository(store *Store) *MatchRepository {
	return &MatchRepository{store: store}
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.matches[matchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return cloneMatch(item), true, nil
}

func (r *MatchRepository) ListByStatus(_ context.Context, statuses ...match.Status) ([]match.Match, error) {
	wanted := make(map[match.Status]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, item := range r.store.matches {
		if _, ok := wanted[item.Status]; ok || len(wanted) == 0 {
			out = append(out, cloneMatch(item))
		}
	}
	sortMatches(out)
	return out, nil
}

func (r *MatchRepository) ListBySeason(_ context.Context, seasonID string) ([]match.Match, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, item := range r.store.matches {
		if item.SeasonID == seasonID {
			out = append(out, cloneMatch(item))
		}
	}
	sortMatches(out)
	return out, nil
}

func (r *MatchRepository) FindFixture(_ context.Context, seasonID, homeTeamID, awayTeamID string, scheduledAt time.Time) (match.Match, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok, err := firstByID(r.store.matches, func(item match.Match) bool {
		return sameFixture(item, seasonID, homeTeamID, awayTeamID, scheduledAt)
	})
	if !ok {
		return match.Match{}, false, err
	}
	return cloneMatch(item), true, err
}

// Insert refuses a second match with the same id or the same fixture.
func (r *MatchRepository) Insert(ctx context.Context, m match.Match) (bool, error) {
	return insertUnique(ctx, r.store, r.store.matches, m.ID, cloneMatch(m), func(item match.Match) bool {
		return sameFixture(item, m.SeasonID, m.HomeTeamID, m.AwayTeamID, m.ScheduledAt)
	})
}

func sameFixture(item match.Match, seasonID, homeTeamID, awayTeamID string, scheduledAt time.Time) bool {
	return item.SeasonID == seasonID &&
		item.HomeTeamID == homeTeamID &&
		item.AwayTeamID == awayTeamID &&
		item.ScheduledAt.Equal(scheduledAt)
}

// Update holds the match lock while fn runs. Writes fn makes through other
// repositories with the given ctx are undone when fn fails.
func (r *MatchRepository) Update(ctx context.Context, matchID string, fn match.UpdateFunc) (match.Match, error) {
	unlock := r.store.lockMatch(matchID)
	defer unlock()

	r.store.mu.RLock()
	current, ok := r.store.matches[matchID]
	r.store.mu.RUnlock()
	if !ok {
		return match.Match{}, match.ErrNotFound
	}

	working := cloneMatch(current)
	err := r.store.atomically(ctx, func(ctx context.Context) error {
		if err := fn(ctx, &working); err != nil {
			return err
		}
		r.store.mu.Lock()
		r.store.matches[matchID] = cloneMatch(working)
		r.store.mu.Unlock()
		return nil
	})
	if err != nil {
		return match.Match{}, err
	}
	return cloneMatch(working), nil
}

func sortMatches(items []match.Match) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].ScheduledAt.Equal(items[j].ScheduledAt) {
			return items[i].ScheduledAt.Before(items[j].ScheduledAt)
		}
		return items[i].ID < items[j].ID
	})
}

func cloneMatch(m match.Match) match.Match {
	m.CurrentMinute = cloneInt(m.CurrentMinute)
	m.HomeScore = cloneInt(m.HomeScore)
	m.AwayScore = cloneInt(m.AwayScore)
	if m.StartedAt != nil {
		startedAt := *m.StartedAt
		m.StartedAt = &startedAt
	}
	if m.EndedAt != nil {
		endedAt := *m.EndedAt
		m.EndedAt = &endedAt
	}
	return m
}
