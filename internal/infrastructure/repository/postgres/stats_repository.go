package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/matchday/internal/domain/teamstats"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

type TeamStatsRepository struct {
	db *sqlx.DB
}

func NewTeamStatsRepository(db *sqlx.DB) *TeamStatsRepository {
	return &TeamStatsRepository{db: db}
}

func (r *TeamStatsRepository) ListByMatch(ctx context.Context, matchID string) ([]teamstats.MatchStats, error) {
	query, args, err := qb.Select(qb.Columns(teamMatchStatsTableModel{})...).From("team_match_stats").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list match stats query: %w", err)
	}

	var rows []teamMatchStatsTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list match stats: %w", err)
	}
	out := make([]teamstats.MatchStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamstats.MatchStats{
			MatchID:           row.MatchID,
			TeamID:            row.TeamID,
			Goals:             row.Goals,
			Shots:             row.Shots,
			ShotsOnTarget:     row.ShotsOnTarget,
			Corners:           row.Corners,
			Fouls:             row.Fouls,
			Offsides:          row.Offsides,
			YellowCards:       row.YellowCards,
			RedCards:          row.RedCards,
			Passes:            row.Passes,
			PassesCompleted:   row.PassesCompleted,
			PossessionSeconds: row.PossessionSeconds,
			PossessionPct:     row.PossessionPct,
			ComputedAt:        row.ComputedAt.UTC(),
		})
	}
	return out, nil
}

// ReplaceByMatch upserts every row and drops rows of teams no longer in the
// set, all in one transaction. Whole rows are written so concurrent
// recomputes never interleave column by column.
func (r *TeamStatsRepository) ReplaceByMatch(ctx context.Context, matchID string, stats []teamstats.MatchStats) error {
	return withinTx(ctx, r.db, func(ctx context.Context) error {
		exec := conn(ctx, r.db)

		teamIDs := make([]string, 0, len(stats))
		rows := make([]teamMatchStatsTableModel, 0, len(stats))
		for _, item := range stats {
			teamIDs = append(teamIDs, item.TeamID)
			rows = append(rows, teamMatchStatsTableModel{
				MatchID:           matchID,
				TeamID:            item.TeamID,
				Goals:             item.Goals,
				Shots:             item.Shots,
				ShotsOnTarget:     item.ShotsOnTarget,
				Corners:           item.Corners,
				Fouls:             item.Fouls,
				Offsides:          item.Offsides,
				YellowCards:       item.YellowCards,
				RedCards:          item.RedCards,
				Passes:            item.Passes,
				PassesCompleted:   item.PassesCompleted,
				PossessionSeconds: item.PossessionSeconds,
				PossessionPct:     item.PossessionPct,
				ComputedAt:        item.ComputedAt.UTC(),
			})
		}

		purge, purgeArgs, err := qb.DeleteFrom("team_match_stats").
			Where(qb.Eq("match_id", matchID), qb.Expr("NOT (team_id = ANY(?))", pq.StringArray(teamIDs))).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build clear match stats query: %w", err)
		}
		if _, err := exec.ExecContext(ctx, purge, purgeArgs...); err != nil {
			return fmt.Errorf("clear match stats match=%s: %w", matchID, err)
		}
		if len(rows) == 0 {
			return nil
		}

		query, args, err := qb.InsertModels("team_match_stats", rows, `ON CONFLICT (match_id, team_id)
DO UPDATE SET
    goals = EXCLUDED.goals,
    shots = EXCLUDED.shots,
    shots_on_target = EXCLUDED.shots_on_target,
    corners = EXCLUDED.corners,
    fouls = EXCLUDED.fouls,
    offsides = EXCLUDED.offsides,
    yellow_cards = EXCLUDED.yellow_cards,
    red_cards = EXCLUDED.red_cards,
    passes = EXCLUDED.passes,
    passes_completed = EXCLUDED.passes_completed,
    possession_seconds = EXCLUDED.possession_seconds,
    possession_pct = EXCLUDED.possession_pct,
    computed_at = EXCLUDED.computed_at`)
		if err != nil {
			return fmt.Errorf("build upsert match stats query: %w", err)
		}
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert match stats match=%s: %w", matchID, err)
		}
		return nil
	})
}

func (r *TeamStatsRepository) ListCountersByMatch(ctx context.Context, matchID string) ([]teamstats.Counters, error) {
	query, args, err := qb.Select(qb.Columns(teamMatchCountersTableModel{})...).From("team_match_counters").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list match counters query: %w", err)
	}

	var rows []teamMatchCountersTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list match counters: %w", err)
	}
	out := make([]teamstats.Counters, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamstats.Counters{
			MatchID:         row.MatchID,
			TeamID:          row.TeamID,
			Shots:           nullInt64ToIntPtr(row.Shots),
			ShotsOnTarget:   nullInt64ToIntPtr(row.ShotsOnTarget),
			Corners:         nullInt64ToIntPtr(row.Corners),
			Fouls:           nullInt64ToIntPtr(row.Fouls),
			Offsides:        nullInt64ToIntPtr(row.Offsides),
			YellowCards:     nullInt64ToIntPtr(row.YellowCards),
			RedCards:        nullInt64ToIntPtr(row.RedCards),
			Passes:          nullInt64ToIntPtr(row.Passes),
			PassesCompleted: nullInt64ToIntPtr(row.PassesCompleted),
			UpdatedAt:       row.UpdatedAt.UTC(),
		})
	}
	return out, nil
}

// UpsertCounters merges reported fields; a NULL in the new row keeps the
// stored value.
func (r *TeamStatsRepository) UpsertCounters(ctx context.Context, counters teamstats.Counters) error {
	row := teamMatchCountersTableModel{
		MatchID:         counters.MatchID,
		TeamID:          counters.TeamID,
		Shots:           intPtrToNull(counters.Shots),
		ShotsOnTarget:   intPtrToNull(counters.ShotsOnTarget),
		Corners:         intPtrToNull(counters.Corners),
		Fouls:           intPtrToNull(counters.Fouls),
		Offsides:        intPtrToNull(counters.Offsides),
		YellowCards:     intPtrToNull(counters.YellowCards),
		RedCards:        intPtrToNull(counters.RedCards),
		Passes:          intPtrToNull(counters.Passes),
		PassesCompleted: intPtrToNull(counters.PassesCompleted),
		UpdatedAt:       counters.UpdatedAt.UTC(),
	}
	query, args, err := qb.InsertModel("team_match_counters", row, `ON CONFLICT (match_id, team_id)
DO UPDATE SET
    shots = COALESCE(EXCLUDED.shots, team_match_counters.shots),
    shots_on_target = COALESCE(EXCLUDED.shots_on_target, team_match_counters.shots_on_target),
    corners = COALESCE(EXCLUDED.corners, team_match_counters.corners),
    fouls = COALESCE(EXCLUDED.fouls, team_match_counters.fouls),
    offsides = COALESCE(EXCLUDED.offsides, team_match_counters.offsides),
    yellow_cards = COALESCE(EXCLUDED.yellow_cards, team_match_counters.yellow_cards),
    red_cards = COALESCE(EXCLUDED.red_cards, team_match_counters.red_cards),
    passes = COALESCE(EXCLUDED.passes, team_match_counters.passes),
    passes_completed = COALESCE(EXCLUDED.passes_completed, team_match_counters.passes_completed),
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert match counters query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match counters match=%s team=%s: %w", counters.MatchID, counters.TeamID, err)
	}
	return nil
}

func intPtrToNull(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
