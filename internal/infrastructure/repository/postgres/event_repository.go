package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/domain/matchevent"
	"github.com/riskibarqy/matchday/internal/domain/possession"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

type MatchEventRepository struct {
	db *sqlx.DB
}

func NewMatchEventRepository(db *sqlx.DB) *MatchEventRepository {
	return &MatchEventRepository{db: db}
}

func (r *MatchEventRepository) Create(ctx context.Context, event matchevent.Event) error {
	row := matchEventTableModel{
		ID:        event.ID,
		MatchID:   event.MatchID,
		TeamID:    event.TeamID,
		Type:      string(event.Type),
		Minute:    event.Minute,
		CreatedAt: event.CreatedAt.UTC(),
	}
	if event.PlayerID != "" {
		row.PlayerID = sql.NullString{String: event.PlayerID, Valid: true}
	}
	query, args, err := qb.InsertModel("match_events", row, "")
	if err != nil {
		return fmt.Errorf("build insert match event query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match event match=%s: %w", event.MatchID, err)
	}
	return nil
}

func (r *MatchEventRepository) ListByMatch(ctx context.Context, matchID string) ([]matchevent.Event, error) {
	query, args, err := qb.Select(qb.Columns(matchEventTableModel{})...).From("match_events").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("minute", "created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list match events query: %w", err)
	}

	var rows []matchEventTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list match events: %w", err)
	}
	out := make([]matchevent.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchevent.Event{
			ID:        row.ID,
			MatchID:   row.MatchID,
			TeamID:    row.TeamID,
			PlayerID:  nullStringValue(row.PlayerID),
			Type:      matchevent.Type(row.Type),
			Minute:    row.Minute,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

type PossessionRepository struct {
	db *sqlx.DB
}

func NewPossessionRepository(db *sqlx.DB) *PossessionRepository {
	return &PossessionRepository{db: db}
}

func (r *PossessionRepository) ListByMatch(ctx context.Context, matchID string) ([]possession.Interval, error) {
	query, args, err := qb.Select(qb.Columns(possessionIntervalTableModel{})...).From("possession_intervals").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("start_second", "created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list possession intervals query: %w", err)
	}

	var rows []possessionIntervalTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list possession intervals: %w", err)
	}
	out := make([]possession.Interval, 0, len(rows))
	for _, row := range rows {
		out = append(out, possession.Interval{
			ID:          row.ID,
			MatchID:     row.MatchID,
			TeamID:      nullStringToPtr(row.TeamID),
			StartSecond: row.StartSecond,
			EndSecond:   nullInt64ToIntPtr(row.EndSecond),
			Source:      row.Source,
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// Insert fails on a second open interval for the match; the partial unique
// index backs the single-open-interval rule.
func (r *PossessionRepository) Insert(ctx context.Context, interval possession.Interval) error {
	row := possessionIntervalTableModel{
		ID:          interval.ID,
		MatchID:     interval.MatchID,
		StartSecond: interval.StartSecond,
		Source:      interval.Source,
		CreatedAt:   interval.CreatedAt.UTC(),
	}
	if interval.TeamID != nil {
		row.TeamID = sql.NullString{String: *interval.TeamID, Valid: true}
	}
	if interval.EndSecond != nil {
		row.EndSecond = sql.NullInt64{Int64: int64(*interval.EndSecond), Valid: true}
	}
	query, args, err := qb.InsertModel("possession_intervals", row, "")
	if err != nil {
		return fmt.Errorf("build insert possession interval query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert possession interval match=%s: %w", interval.MatchID, possession.ErrOverlappingInterval)
		}
		return fmt.Errorf("insert possession interval match=%s: %w", interval.MatchID, err)
	}
	return nil
}

func (r *PossessionRepository) Close(ctx context.Context, intervalID string, endSecond int) error {
	query, args, err := qb.Update("possession_intervals").
		Set("end_second", endSecond).
		Where(qb.Eq("id", intervalID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build close possession interval query: %w", err)
	}
	result, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("close possession interval=%s: %w", intervalID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close possession interval=%s rows affected: %w", intervalID, err)
	}
	if affected == 0 {
		return fmt.Errorf("possession interval=%s not found", intervalID)
	}
	return nil
}
