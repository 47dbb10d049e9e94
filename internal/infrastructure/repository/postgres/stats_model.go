package postgres

import (
	"database/sql"
	"time"
)

type teamMatchStatsTableModel struct {
	MatchID           string    `db:"match_id"`
	TeamID            string    `db:"team_id"`
	Goals             int       `db:"goals"`
	Shots             int       `db:"shots"`
	ShotsOnTarget     int       `db:"shots_on_target"`
	Corners           int       `db:"corners"`
	Fouls             int       `db:"fouls"`
	Offsides          int       `db:"offsides"`
	YellowCards       int       `db:"yellow_cards"`
	RedCards          int       `db:"red_cards"`
	Passes            int       `db:"passes"`
	PassesCompleted   int       `db:"passes_completed"`
	PossessionSeconds int       `db:"possession_seconds"`
	PossessionPct     float64   `db:"possession_pct"`
	ComputedAt        time.Time `db:"computed_at"`
}

type teamMatchCountersTableModel struct {
	MatchID         string        `db:"match_id"`
	TeamID          string        `db:"team_id"`
	Shots           sql.NullInt64 `db:"shots"`
	ShotsOnTarget   sql.NullInt64 `db:"shots_on_target"`
	Corners         sql.NullInt64 `db:"corners"`
	Fouls           sql.NullInt64 `db:"fouls"`
	Offsides        sql.NullInt64 `db:"offsides"`
	YellowCards     sql.NullInt64 `db:"yellow_cards"`
	RedCards        sql.NullInt64 `db:"red_cards"`
	Passes          sql.NullInt64 `db:"passes"`
	PassesCompleted sql.NullInt64 `db:"passes_completed"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

type leagueStandingTableModel struct {
	SeasonID        string    `db:"season_id"`
	TeamID          string    `db:"team_id"`
	TeamName        string    `db:"team_name"`
	Position        int       `db:"position"`
	Played          int       `db:"played"`
	Won             int       `db:"won"`
	Drawn           int       `db:"drawn"`
	Lost            int       `db:"lost"`
	GoalsFor        int       `db:"goals_for"`
	GoalsAgainst    int       `db:"goals_against"`
	GoalDifference  int       `db:"goal_difference"`
	Points          int       `db:"points"`
	PointsDeduction int       `db:"points_deduction"`
	Status          string    `db:"status"`
	ComputedAt      time.Time `db:"computed_at"`
}

type pointsDeductionTableModel struct {
	SeasonID string `db:"season_id"`
	TeamID   string `db:"team_id"`
	Points   int    `db:"points"`
	Reason   string `db:"reason"`
}
