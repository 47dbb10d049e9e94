package memory

import (
	"context"
	"fmt"

	"github.com/riskibarqy/matchday/internal/domain/possession"
)

type PossessionRepository struct {
	store *Store
}

func NewPossessionRepository(store *Store) *PossessionRepository {
	return &PossessionRepository{store: store}
}

func (r *PossessionRepository) ListByMatch(_ context.Context, matchID string) ([]possession.Interval, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := r.store.intervals[matchID]
	out := make([]possession.Interval, 0, len(items))
	for _, item := range items {
		out = append(out, cloneInterval(item))
	}
	return out, nil
}

func (r *PossessionRepository) Insert(ctx context.Context, interval possession.Interval) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.intervalMatch[interval.ID]; exists {
		return fmt.Errorf("possession interval=%s already exists", interval.ID)
	}
	r.store.intervals[interval.MatchID] = append(r.store.intervals[interval.MatchID], cloneInterval(interval))
	r.store.intervalMatch[interval.ID] = interval.MatchID
	onRollback(ctx, func() {
		items := r.store.intervals[interval.MatchID]
		for i := len(items) - 1; i >= 0; i-- {
			if items[i].ID == interval.ID {
				r.store.intervals[interval.MatchID] = append(items[:i:i], items[i+1:]...)
				break
			}
		}
		delete(r.store.intervalMatch, interval.ID)
	})
	return nil
}

func (r *PossessionRepository) Close(ctx context.Context, intervalID string, endSecond int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	matchID, ok := r.store.intervalMatch[intervalID]
	if !ok {
		return fmt.Errorf("possession interval=%s not found", intervalID)
	}
	items := r.store.intervals[matchID]
	for i := range items {
		if items[i].ID != intervalID {
			continue
		}
		previous := items[i].EndSecond
		end := endSecond
		items[i].EndSecond = &end
		onRollback(ctx, func() {
			for j := range r.store.intervals[matchID] {
				if r.store.intervals[matchID][j].ID == intervalID {
					r.store.intervals[matchID][j].EndSecond = previous
				}
			}
		})
		return nil
	}
	return fmt.Errorf("possession interval=%s not found", intervalID)
}

func cloneInterval(item possession.Interval) possession.Interval {
	item.TeamID = cloneString(item.TeamID)
	item.EndSecond = cloneInt(item.EndSecond)
	return item
}
