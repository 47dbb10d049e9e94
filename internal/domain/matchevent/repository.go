package matchevent

import "context"

type Repository interface {
	Create(ctx context.Context, event Event) error
	ListByMatch(ctx context.Context, matchID string) ([]Event, error)
}
