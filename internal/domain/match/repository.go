package match

import (
	"context"
	"time"
)

// UpdateFunc mutates a match while its per-match lock is held. The context it
// receives carries the lock's transaction, so writes made through other
// repositories with that context commit together with the match.
type UpdateFunc func(ctx context.Context, m *Match) error

// Repository describes match persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]Match, error)
	ListBySeason(ctx context.Context, seasonID string) ([]Match, error)
	// FindFixture looks a match up by its natural key.
	FindFixture(ctx context.Context, seasonID, homeTeamID, awayTeamID string, scheduledAt time.Time) (Match, bool, error)
	// Insert creates the match unless a row with the same id exists.
	Insert(ctx context.Context, m Match) (bool, error)
	// Update serializes against every other Update of the same match and
	// persists the mutated match when fn returns nil.
	Update(ctx context.Context, matchID string, fn UpdateFunc) (Match, error)
}
