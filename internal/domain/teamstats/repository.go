package teamstats

import "context"

type Repository interface {
	ListByMatch(ctx context.Context, matchID string) ([]MatchStats, error)
	// ReplaceByMatch upserts the complete set of rows for a match in one transaction.
	ReplaceByMatch(ctx context.Context, matchID string, stats []MatchStats) error
	ListCountersByMatch(ctx context.Context, matchID string) ([]Counters, error)
	UpsertCounters(ctx context.Context, counters Counters) error
}
