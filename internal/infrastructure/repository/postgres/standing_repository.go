package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/matchday/internal/domain/leaguestanding"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

type LeagueStandingRepository struct {
	db *sqlx.DB
}

func NewLeagueStandingRepository(db *sqlx.DB) *LeagueStandingRepository {
	return &LeagueStandingRepository{db: db}
}

func (r *LeagueStandingRepository) ListBySeason(ctx context.Context, seasonID string) ([]leaguestanding.Standing, error) {
	query, args, err := qb.Select(qb.Columns(leagueStandingTableModel{})...).From("league_standings").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("position", "team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list league standings query: %w", err)
	}

	var rows []leagueStandingTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list league standings: %w", err)
	}

	out := make([]leaguestanding.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, leaguestanding.Standing{
			SeasonID:        row.SeasonID,
			TeamID:          row.TeamID,
			TeamName:        row.TeamName,
			Position:        row.Position,
			Played:          row.Played,
			Won:             row.Won,
			Drawn:           row.Drawn,
			Lost:            row.Lost,
			GoalsFor:        row.GoalsFor,
			GoalsAgainst:    row.GoalsAgainst,
			GoalDifference:  row.GoalDifference,
			Points:          row.Points,
			PointsDeduction: row.PointsDeduction,
			Status:          leaguestanding.Tag(row.Status),
			ComputedAt:      row.ComputedAt.UTC(),
		})
	}
	return out, nil
}

func (r *LeagueStandingRepository) ReplaceBySeason(ctx context.Context, seasonID string, standings []leaguestanding.Standing) error {
	return withinTx(ctx, r.db, func(ctx context.Context) error {
		exec := conn(ctx, r.db)

		teamIDs := make([]string, 0, len(standings))
		rows := make([]leagueStandingTableModel, 0, len(standings))
		for _, item := range standings {
			teamIDs = append(teamIDs, item.TeamID)
			rows = append(rows, leagueStandingTableModel{
				SeasonID:        seasonID,
				TeamID:          item.TeamID,
				TeamName:        item.TeamName,
				Position:        item.Position,
				Played:          item.Played,
				Won:             item.Won,
				Drawn:           item.Drawn,
				Lost:            item.Lost,
				GoalsFor:        item.GoalsFor,
				GoalsAgainst:    item.GoalsAgainst,
				GoalDifference:  item.GoalDifference,
				Points:          item.Points,
				PointsDeduction: item.PointsDeduction,
				Status:          string(item.Status),
				ComputedAt:      item.ComputedAt.UTC(),
			})
		}

		purge, purgeArgs, err := qb.DeleteFrom("league_standings").
			Where(qb.Eq("season_id", seasonID), qb.Expr("NOT (team_id = ANY(?))", pq.StringArray(teamIDs))).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build clear league standings query: %w", err)
		}
		if _, err := exec.ExecContext(ctx, purge, purgeArgs...); err != nil {
			return fmt.Errorf("clear league standings season=%s: %w", seasonID, err)
		}
		if len(rows) == 0 {
			return nil
		}

		query, args, err := qb.InsertModels("league_standings", rows, `ON CONFLICT (season_id, team_id)
DO UPDATE SET
    team_name = EXCLUDED.team_name,
    position = EXCLUDED.position,
    played = EXCLUDED.played,
    won = EXCLUDED.won,
    drawn = EXCLUDED.drawn,
    lost = EXCLUDED.lost,
    goals_for = EXCLUDED.goals_for,
    goals_against = EXCLUDED.goals_against,
    goal_difference = EXCLUDED.goal_difference,
    points = EXCLUDED.points,
    points_deduction = EXCLUDED.points_deduction,
    status = EXCLUDED.status,
    computed_at = EXCLUDED.computed_at`)
		if err != nil {
			return fmt.Errorf("build upsert league standings query: %w", err)
		}
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert league standings season=%s: %w", seasonID, err)
		}
		return nil
	})
}

func (r *LeagueStandingRepository) ListDeductions(ctx context.Context, seasonID string) ([]leaguestanding.Deduction, error) {
	query, args, err := qb.Select(qb.Columns(pointsDeductionTableModel{})...).From("points_deductions").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list points deductions query: %w", err)
	}

	var rows []pointsDeductionTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list points deductions: %w", err)
	}
	out := make([]leaguestanding.Deduction, 0, len(rows))
	for _, row := range rows {
		out = append(out, leaguestanding.Deduction{
			SeasonID: row.SeasonID,
			TeamID:   row.TeamID,
			Points:   row.Points,
			Reason:   row.Reason,
		})
	}
	return out, nil
}

func (r *LeagueStandingRepository) AddDeduction(ctx context.Context, deduction leaguestanding.Deduction) error {
	query, args, err := qb.InsertModel("points_deductions", pointsDeductionTableModel{
		SeasonID: deduction.SeasonID,
		TeamID:   deduction.TeamID,
		Points:   deduction.Points,
		Reason:   deduction.Reason,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert points deduction query: %w", err)
	}
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert points deduction season=%s team=%s: %w", deduction.SeasonID, deduction.TeamID, err)
	}
	return nil
}
