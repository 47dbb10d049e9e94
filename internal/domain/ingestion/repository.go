package ingestion

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, log Log) error
	GetByID(ctx context.Context, id string) (Log, bool, error)
	// MarkVerified stores the record and flips the row to verified only while
	// it is still pending, returning ErrAlreadyVerified or ErrAlreadyRejected
	// otherwise.
	MarkVerified(ctx context.Context, id string, record VerificationRecord) (Log, error)
	MarkRejected(ctx context.Context, id, reason, reviewerID string, at time.Time) (Log, error)
	// SetResolution records the outcome of entity resolution for a verified row.
	SetResolution(ctx context.Context, id, entityID, resolutionErr string, at time.Time) error
	GetVerification(ctx context.Context, id string) (VerificationRecord, bool, error)
}
