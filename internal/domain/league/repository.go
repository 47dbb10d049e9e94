package league

import "context"

// Repository describes league persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	FindByName(ctx context.Context, name string) (League, bool, error)
	Insert(ctx context.Context, l League) (bool, error)
}
