package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/matchday/internal/domain/teamstats"
)

type TeamStatsRepository struct {
	store *Store
}

func NewTeamStatsRepository(store *Store) *TeamStatsRepository {
	return &TeamStatsRepository{store: store}
}

func (r *TeamStatsRepository) ListByMatch(_ context.Context, matchID string) ([]teamstats.MatchStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := r.store.stats[matchID]
	out := make([]teamstats.MatchStats, len(items))
	copy(out, items)
	return out, nil
}

func (r *TeamStatsRepository) ReplaceByMatch(ctx context.Context, matchID string, stats []teamstats.MatchStats) error {
	rows := make([]teamstats.MatchStats, len(stats))
	copy(rows, stats)
	sort.Slice(rows, func(i, j int) bool { return rows[i].TeamID < rows[j].TeamID })

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	previous, existed := r.store.stats[matchID]
	r.store.stats[matchID] = rows
	onRollback(ctx, func() {
		if existed {
			r.store.stats[matchID] = previous
			return
		}
		delete(r.store.stats, matchID)
	})
	return nil
}

func (r *TeamStatsRepository) ListCountersByMatch(_ context.Context, matchID string) ([]teamstats.Counters, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	byTeam := r.store.counters[matchID]
	out := make([]teamstats.Counters, 0, len(byTeam))
	for _, item := range byTeam {
		out = append(out, cloneCounters(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

// UpsertCounters merges non-nil fields into the stored row for the team.
func (r *TeamStatsRepository) UpsertCounters(ctx context.Context, counters teamstats.Counters) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	byTeam, ok := r.store.counters[counters.MatchID]
	if !ok {
		byTeam = make(map[string]teamstats.Counters)
		r.store.counters[counters.MatchID] = byTeam
	}
	previous, existed := byTeam[counters.TeamID]
	merged := cloneCounters(previous)
	merged.MatchID = counters.MatchID
	merged.TeamID = counters.TeamID
	mergeCounter(&merged.Shots, counters.Shots)
	mergeCounter(&merged.ShotsOnTarget, counters.ShotsOnTarget)
	mergeCounter(&merged.Corners, counters.Corners)
	mergeCounter(&merged.Fouls, counters.Fouls)
	mergeCounter(&merged.Offsides, counters.Offsides)
	mergeCounter(&merged.YellowCards, counters.YellowCards)
	mergeCounter(&merged.RedCards, counters.RedCards)
	mergeCounter(&merged.Passes, counters.Passes)
	mergeCounter(&merged.PassesCompleted, counters.PassesCompleted)
	merged.UpdatedAt = counters.UpdatedAt
	byTeam[counters.TeamID] = merged

	onRollback(ctx, func() {
		if existed {
			r.store.counters[counters.MatchID][counters.TeamID] = previous
			return
		}
		delete(r.store.counters[counters.MatchID], counters.TeamID)
	})
	return nil
}

func mergeCounter(dst **int, value *int) {
	if value != nil {
		*dst = cloneInt(value)
	}
}

func cloneCounters(item teamstats.Counters) teamstats.Counters {
	item.Shots = cloneInt(item.Shots)
	item.ShotsOnTarget = cloneInt(item.ShotsOnTarget)
	item.Corners = cloneInt(item.Corners)
	item.Fouls = cloneInt(item.Fouls)
	item.Offsides = cloneInt(item.Offsides)
	item.YellowCards = cloneInt(item.YellowCards)
	item.RedCards = cloneInt(item.RedCards)
	item.Passes = cloneInt(item.Passes)
	item.PassesCompleted = cloneInt(item.PassesCompleted)
	return item
}
