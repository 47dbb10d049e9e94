package season

import "context"

type Repository interface {
	GetByID(ctx context.Context, seasonID string) (Season, bool, error)
	// FindByName looks a season up by name inside one league.
	FindByName(ctx context.Context, leagueID, name string) (Season, bool, error)
	Insert(ctx context.Context, s Season) (bool, error)
}
