package jobscheduler

import "context"

type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
	ListByStatus(ctx context.Context, status DispatchStatus, limit int) ([]DispatchEvent, error)
}
