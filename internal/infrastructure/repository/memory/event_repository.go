package memory

import (
	"context"

	"github.com/riskibarqy/matchday/internal/domain/matchevent"
)

type MatchEventRepository struct {
	store *Store
}

func NewMatchEventRepository(store *Store) *MatchEventRepository {
	return &MatchEventRepository{store: store}
}

func (r *MatchEventRepository) Create(ctx context.Context, event matchevent.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.events[event.MatchID] = append(r.store.events[event.MatchID], event)
	onRollback(ctx, func() {
		items := r.store.events[event.MatchID]
		for i := len(items) - 1; i >= 0; i-- {
			if items[i].ID == event.ID {
				r.store.events[event.MatchID] = append(items[:i:i], items[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *MatchEventRepository) ListByMatch(_ context.Context, matchID string) ([]matchevent.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	items := r.store.events[matchID]
	out := make([]matchevent.Event, len(items))
	copy(out, items)
	return out, nil
}
