package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, playerID string) (Player, bool, error)
	// FindByName matches the exact player name inside one club.
	FindByName(ctx context.Context, teamID, name string) (Player, bool, error)
	Insert(ctx context.Context, p Player) (bool, error)
}
