package memory

import (
	"context"

	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
)

type JobDispatchRepository struct {
	store *Store
}

func NewJobDispatchRepository(store *Store) *JobDispatchRepository {
	return &JobDispatchRepository{store: store}
}

// UpsertEvent keeps the latest state per job.
func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobscheduler.DispatchEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.dispatch[event.JobID]; !exists {
		r.store.dispatchOrder = append(r.store.dispatchOrder, event.JobID)
	}
	r.store.dispatch[event.JobID] = event
	return nil
}

func (r *JobDispatchRepository) ListByStatus(_ context.Context, status jobscheduler.DispatchStatus, limit int) ([]jobscheduler.DispatchEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]jobscheduler.DispatchEvent, 0)
	for i := len(r.store.dispatchOrder) - 1; i >= 0; i-- {
		event := r.store.dispatch[r.store.dispatchOrder[i]]
		if event.Status != status {
			continue
		}
		out = append(out, event)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
