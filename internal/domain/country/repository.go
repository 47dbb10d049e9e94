package country

import "context"

type Repository interface {
	GetByID(ctx context.Context, countryID string) (Country, bool, error)
	FindByName(ctx context.Context, name string) (Country, bool, error)
}
