package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	GetByIDs(ctx context.Context, teamIDs []string) ([]Team, error)
	// FindByName matches the exact club name.
	FindByName(ctx context.Context, name string) (Team, bool, error)
	Insert(ctx context.Context, t Team) (bool, error)
}
