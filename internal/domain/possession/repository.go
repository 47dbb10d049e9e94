package possession

import "context"

// Repository persists possession intervals. Writes are expected to run under
// the owning match's lock (see match.Repository.Update).
type Repository interface {
	ListByMatch(ctx context.Context, matchID string) ([]Interval, error)
	Insert(ctx context.Context, interval Interval) error
	Close(ctx context.Context, intervalID string, endSecond int) error
}
