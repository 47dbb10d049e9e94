package leaguestanding

import "context"

type Repository interface {
	ListBySeason(ctx context.Context, seasonID string) ([]Standing, error)
	// ReplaceBySeason swaps the whole season table in one transaction.
	ReplaceBySeason(ctx context.Context, seasonID string, standings []Standing) error
	ListDeductions(ctx context.Context, seasonID string) ([]Deduction, error)
}
