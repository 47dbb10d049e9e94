package memory

import (
	"context"

	"github.com/riskibarqy/matchday/internal/domain/leaguestanding"
)

type LeagueStandingRepository struct {
	store *Store
}

func NewLeagueStandingRepository(store *Store) *LeagueStandingRepository {
	return &LeagueStandingRepository{store: store}
}

func (r *LeagueStandingRepository) ListBySeason(_ context.Context, seasonID string) ([]leaguestanding.Standing, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := r.store.standings[seasonID]
	out := make([]leaguestanding.Standing, len(items))
	copy(out, items)
	return out, nil
}

func (r *LeagueStandingRepository) ReplaceBySeason(ctx context.Context, seasonID string, standings []leaguestanding.Standing) error {
	rows := make([]leaguestanding.Standing, len(standings))
	copy(rows, standings)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	previous, existed := r.store.standings[seasonID]
	r.store.standings[seasonID] = rows
	onRollback(ctx, func() {
		if existed {
			r.store.standings[seasonID] = previous
			return
		}
		delete(r.store.standings, seasonID)
	})
	return nil
}

func (r *LeagueStandingRepository) ListDeductions(_ context.Context, seasonID string) ([]leaguestanding.Deduction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := r.store.deductions[seasonID]
	out := make([]leaguestanding.Deduction, len(items))
	copy(out, items)
	return out, nil
}

// AddDeduction records an administrative points penalty.
func (r *LeagueStandingRepository) AddDeduction(_ context.Context, deduction leaguestanding.Deduction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.deductions[deduction.SeasonID] = append(r.store.deductions[deduction.SeasonID], deduction)
	return nil
}
