package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/ingestion"
)

type IngestionRepository struct {
	store *Store
}

func NewIngestionRepository(store *Store) *IngestionRepository {
	return &IngestionRepository{store: store}
}

func (r *IngestionRepository) Create(_ context.Context, log ingestion.Log) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.ingestions[log.ID]; exists {
		return fmt.Errorf("ingestion log=%s already exists", log.ID)
	}
	log.Payload = append([]byte(nil), log.Payload...)
	r.store.ingestions[log.ID] = log
	return nil
}

func (r *IngestionRepository) GetByID(_ context.Context, id string) (ingestion.Log, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.ingestions[id]
	if !ok {
		return ingestion.Log{}, false, nil
	}
	item.Payload = append([]byte(nil), item.Payload...)
	return item, true, nil
}

func (r *IngestionRepository) MarkVerified(_ context.Context, id string, record ingestion.VerificationRecord) (ingestion.Log, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, err := r.pendingLocked(id)
	if err != nil {
		return ingestion.Log{}, err
	}
	item.Status = ingestion.StatusVerified
	item.ReviewedBy = record.VerifierID
	item.UpdatedAt = record.CreatedAt
	r.store.ingestions[id] = item
	r.store.verifications[id] = record
	return item, nil
}

func (r *IngestionRepository) MarkRejected(_ context.Context, id, reason, reviewerID string, at time.Time) (ingestion.Log, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, err := r.pendingLocked(id)
	if err != nil {
		return ingestion.Log{}, err
	}
	item.Status = ingestion.StatusRejected
	item.RejectReason = reason
	item.ReviewedBy = reviewerID
	item.UpdatedAt = at
	r.store.ingestions[id] = item
	return item, nil
}

func (r *IngestionRepository) SetResolution(_ context.Context, id, entityID, resolutionErr string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, ok := r.store.ingestions[id]
	if !ok {
		return ingestion.ErrNotFound
	}
	item.ResolvedEntityID = entityID
	item.ResolutionError = resolutionErr
	item.UpdatedAt = at
	r.store.ingestions[id] = item
	return nil
}

func (r *IngestionRepository) GetVerification(_ context.Context, id string) (ingestion.VerificationRecord, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.verifications[id]
	return item, ok, nil
}

func (r *IngestionRepository) pendingLocked(id string) (ingestion.Log, error) {
	item, ok := r.store.ingestions[id]
	if !ok {
		return ingestion.Log{}, ingestion.ErrNotFound
	}
	if err := item.TerminalError(); err != nil {
		return ingestion.Log{}, err
	}
	return item, nil
}
