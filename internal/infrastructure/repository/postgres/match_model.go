package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID            string        `db:"id"`
	SeasonID      string        `db:"season_id"`
	HomeTeamID    string        `db:"home_team_id"`
	AwayTeamID    string        `db:"away_team_id"`
	ScheduledAt   time.Time     `db:"scheduled_at"`
	Venue         string        `db:"venue"`
	Status        string        `db:"status"`
	Period        string        `db:"period"`
	CurrentMinute sql.NullInt64 `db:"current_minute"`
	HomeScore     sql.NullInt64 `db:"home_score"`
	AwayScore     sql.NullInt64 `db:"away_score"`
	StartedAt     sql.NullTime  `db:"started_at"`
	EndedAt       sql.NullTime  `db:"ended_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

type matchEventTableModel struct {
	ID        string         `db:"id"`
	MatchID   string         `db:"match_id"`
	TeamID    string         `db:"team_id"`
	PlayerID  sql.NullString `db:"player_id"`
	Type      string         `db:"type"`
	Minute    int            `db:"minute"`
	CreatedAt time.Time      `db:"created_at"`
}

type possessionIntervalTableModel struct {
	ID          string         `db:"id"`
	MatchID     string         `db:"match_id"`
	TeamID      sql.NullString `db:"team_id"`
	StartSecond int            `db:"start_second"`
	EndSecond   sql.NullInt64  `db:"end_second"`
	Source      string         `db:"source"`
	CreatedAt   time.Time      `db:"created_at"`
}
