package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/domain/match"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	row, ok, err := getOne[matchTableModel](ctx, conn(ctx, r.db), "matches", qb.Eq("id", matchID))
	if err != nil || !ok {
		return match.Match{}, ok, err
	}
	return matchFromRow(row), true, nil
}

// ListByStatus returns every match when no status is given.
func (r *MatchRepository) ListByStatus(ctx context.Context, statuses ...match.Status) ([]match.Match, error) {
	var conditions []qb.Condition
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, string(status))
		}
		conditions = append(conditions, qb.InStrings("status", values))
	}
	return r.list(ctx, "list matches by status", conditions...)
}

func (r *MatchRepository) ListBySeason(ctx context.Context, seasonID string) ([]match.Match, error) {
	return r.list(ctx, "list matches by season", qb.Eq("season_id", seasonID))
}

func (r *MatchRepository) FindFixture(ctx context.Context, seasonID, homeTeamID, awayTeamID string, scheduledAt time.Time) (match.Match, bool, error) {
	row, ok, err := getOne[matchTableModel](ctx, conn(ctx, r.db), "matches",
		qb.Eq("season_id", seasonID),
		qb.Eq("home_team_id", homeTeamID),
		qb.Eq("away_team_id", awayTeamID),
		qb.Eq("scheduled_at", scheduledAt.UTC()),
	)
	if err != nil || !ok {
		return match.Match{}, ok, err
	}
	return matchFromRow(row), true, nil
}

func (r *MatchRepository) list(ctx context.Context, op string, conditions ...qb.Condition) ([]match.Match, error) {
	query, args, err := qb.Select(qb.Columns(matchTableModel{})...).From("matches").
		Where(conditions...).
		OrderBy("scheduled_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []matchTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) Insert(ctx context.Context, m match.Match) (bool, error) {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now().UTC()
	}
	return insertIgnore(ctx, conn(ctx, r.db), "matches", matchToRow(m))
}

// Update locks the match row with SELECT ... FOR UPDATE for the length of one
// transaction. fn runs inside that transaction, so its other writes commit or
// roll back together with the match.
func (r *MatchRepository) Update(ctx context.Context, matchID string, fn match.UpdateFunc) (match.Match, error) {
	var updated match.Match
	err := withinTx(ctx, r.db, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		query, args, err := qb.Select(qb.Columns(matchTableModel{})...).From("matches").
			Where(qb.Eq("id", matchID)).
			ForUpdate().
			ToSQL()
		if err != nil {
			return fmt.Errorf("build lock match query: %w", err)
		}

		var row matchTableModel
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			if isNotFound(err) {
				return match.ErrNotFound
			}
			return fmt.Errorf("lock match=%s: %w", matchID, err)
		}

		working := matchFromRow(row)
		if err := fn(ctx, &working); err != nil {
			return err
		}

		next := matchToRow(working)
		update, updateArgs, err := qb.Update("matches").
			Set("status", next.Status).
			Set("period", next.Period).
			Set("current_minute", next.CurrentMinute).
			Set("home_score", next.HomeScore).
			Set("away_score", next.AwayScore).
			Set("started_at", next.StartedAt).
			Set("ended_at", next.EndedAt).
			Set("venue", next.Venue).
			Set("scheduled_at", next.ScheduledAt).
			Set("updated_at", next.UpdatedAt).
			Where(qb.Eq("id", matchID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update match query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, update, updateArgs...); err != nil {
			return fmt.Errorf("update match=%s: %w", matchID, err)
		}
		updated = working
		return nil
	})
	if err != nil {
		return match.Match{}, err
	}
	return updated, nil
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:            row.ID,
		SeasonID:      row.SeasonID,
		HomeTeamID:    row.HomeTeamID,
		AwayTeamID:    row.AwayTeamID,
		ScheduledAt:   row.ScheduledAt.UTC(),
		Venue:         row.Venue,
		Status:        match.Status(row.Status),
		Period:        match.Period(row.Period),
		CurrentMinute: nullInt64ToIntPtr(row.CurrentMinute),
		HomeScore:     nullInt64ToIntPtr(row.HomeScore),
		AwayScore:     nullInt64ToIntPtr(row.AwayScore),
		StartedAt:     nullTimeToTimePtr(row.StartedAt),
		EndedAt:       nullTimeToTimePtr(row.EndedAt),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func matchToRow(m match.Match) matchTableModel {
	row := matchTableModel{
		ID:          m.ID,
		SeasonID:    m.SeasonID,
		HomeTeamID:  m.HomeTeamID,
		AwayTeamID:  m.AwayTeamID,
		ScheduledAt: m.ScheduledAt.UTC(),
		Venue:       m.Venue,
		Status:      string(m.Status),
		Period:      string(m.Period),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	if m.CurrentMinute != nil {
		row.CurrentMinute.Int64, row.CurrentMinute.Valid = int64(*m.CurrentMinute), true
	}
	if m.HomeScore != nil {
		row.HomeScore.Int64, row.HomeScore.Valid = int64(*m.HomeScore), true
	}
	if m.AwayScore != nil {
		row.AwayScore.Int64, row.AwayScore.Valid = int64(*m.AwayScore), true
	}
	if m.StartedAt != nil {
		row.StartedAt.Time, row.StartedAt.Valid = m.StartedAt.UTC(), true
	}
	if m.EndedAt != nil {
		row.EndedAt.Time, row.EndedAt.Valid = m.EndedAt.UTC(), true
	}
	return row
}
