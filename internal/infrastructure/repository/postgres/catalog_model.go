package postgres

import (
	"github.com/lib/pq"
)

type countryTableModel struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	Code string `db:"code"`
}

type leagueTableModel struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CountryID string `db:"country_id"`
}

type seasonTableModel struct {
	ID              string         `db:"id"`
	LeagueID        string         `db:"league_id"`
	Name            string         `db:"name"`
	PromotionSpots  int            `db:"promotion_spots"`
	RelegationSpots int            `db:"relegation_spots"`
	TeamIDs         pq.StringArray `db:"team_ids"`
}

type teamTableModel struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	ShortName string `db:"short_name"`
	CountryID string `db:"country_id"`
}

type playerTableModel struct {
	ID        string `db:"id"`
	TeamID    string `db:"team_id"`
	CountryID string `db:"country_id"`
	Name      string `db:"name"`
	Position  string `db:"position"`
}
