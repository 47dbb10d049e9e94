package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/matchday/internal/domain/country"
	"github.com/riskibarqy/matchday/internal/domain/league"
	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/season"
	"github.com/riskibarqy/matchday/internal/domain/team"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

type CountryRepository struct {
	db *sqlx.DB
}

func NewCountryRepository(db *sqlx.DB) *CountryRepository {
	return &CountryRepository{db: db}
}

func (r *CountryRepository) GetByID(ctx context.Context, countryID string) (country.Country, bool, error) {
	row, ok, err := getOne[countryTableModel](ctx, conn(ctx, r.db), "countries", qb.Eq("id", countryID))
	if err != nil || !ok {
		return country.Country{}, ok, err
	}
	return countryFromRow(row), true, nil
}

func (r *CountryRepository) FindByName(ctx context.Context, name string) (country.Country, bool, error) {
	row, ok, err := getOne[countryTableModel](ctx, conn(ctx, r.db), "countries", qb.Eq("name", name))
	if err != nil || !ok {
		return country.Country{}, ok, err
	}
	return countryFromRow(row), true, nil
}

func (r *CountryRepository) Insert(ctx context.Context, c country.Country) (bool, error) {
	return insertIgnore(ctx, conn(ctx, r.db), "countries", countryTableModel{ID: c.ID, Name: c.Name, Code: c.Code})
}

func countryFromRow(row countryTableModel) country.Country {
	return country.Country{ID: row.ID, Name: row.Name, Code: row.Code}
}

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	row, ok, err := getOne[leagueTableModel](ctx, conn(ctx, r.db), "leagues", qb.Eq("id", leagueID))
	if err != nil || !ok {
		return league.League{}, ok, err
	}
	return league.League{ID: row.ID, Name: row.Name, CountryID: row.CountryID}, true, nil
}

func (r *LeagueRepository) FindByName(ctx context.Context, name string) (league.League, bool, error) {
	row, ok, err := getOne[leagueTableModel](ctx, conn(ctx, r.db), "leagues", qb.Eq("name", name))
	if err != nil || !ok {
		return league.League{}, ok, err
	}
	return league.League{ID: row.ID, Name: row.Name, CountryID: row.CountryID}, true, nil
}

func (r *LeagueRepository) Insert(ctx context.Context, l league.League) (bool, error) {
	return insertIgnore(ctx, conn(ctx, r.db), "leagues", leagueTableModel{ID: l.ID, Name: l.Name, CountryID: l.CountryID})
}

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	row, ok, err := getOne[seasonTableModel](ctx, conn(ctx, r.db), "seasons", qb.Eq("id", seasonID))
	if err != nil || !ok {
		return season.Season{}, ok, err
	}
	return seasonFromRow(row), true, nil
}

func (r *SeasonRepository) FindByName(ctx context.Context, leagueID, name string) (season.Season, bool, error) {
	row, ok, err := getOne[seasonTableModel](ctx, conn(ctx, r.db), "seasons", qb.Eq("league_id", leagueID), qb.Eq("name", name))
	if err != nil || !ok {
		return season.Season{}, ok, err
	}
	return seasonFromRow(row), true, nil
}

func (r *SeasonRepository) Insert(ctx context.Context, s season.Season) (bool, error) {
	return insertIgnore(ctx, conn(ctx, r.db), "seasons", seasonTableModel{
		ID:              s.ID,
		LeagueID:        s.LeagueID,
		Name:            s.Name,
		PromotionSpots:  s.PromotionSpots,
		RelegationSpots: s.RelegationSpots,
		TeamIDs:         pq.StringArray(append([]string{}, s.TeamIDs...)),
	})
}

func seasonFromRow(row seasonTableModel) season.Season {
	return season.Season{
		ID:              row.ID,
		LeagueID:        row.LeagueID,
		Name:            row.Name,
		PromotionSpots:  row.PromotionSpots,
		RelegationSpots: row.RelegationSpots,
		TeamIDs:         append([]string(nil), row.TeamIDs...),
	}
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	row, ok, err := getOne[teamTableModel](ctx, conn(ctx, r.db), "teams", qb.Eq("id", teamID))
	if err != nil || !ok {
		return team.Team{}, ok, err
	}
	return teamFromRow(row), true, nil
}

// GetByIDs returns the known teams in the order they were requested.
func (r *TeamRepository) GetByIDs(ctx context.Context, teamIDs []string) ([]team.Team, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	query, args, err := qb.Select(qb.Columns(teamTableModel{})...).From("teams").
		Where(qb.InStrings("id", teamIDs)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by ids query: %w", err)
	}

	var rows []teamTableModel
	if err := conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams by ids: %w", err)
	}

	byID := make(map[string]teamTableModel, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]team.Team, 0, len(rows))
	for _, teamID := range teamIDs {
		if row, ok := byID[teamID]; ok {
			out = append(out, teamFromRow(row))
			delete(byID, teamID)
		}
	}
	return out, nil
}

func (r *TeamRepository) FindByName(ctx context.Context, name string) (team.Team, bool, error) {
	row, ok, err := getOne[teamTableModel](ctx, conn(ctx, r.db), "teams", qb.Eq("name", name))
	if err != nil || !ok {
		return team.Team{}, ok, err
	}
	return teamFromRow(row), true, nil
}

func (r *TeamRepository) Insert(ctx context.Context, t team.Team) (bool, error) {
	return insertIgnore(ctx, conn(ctx, r.db), "teams", teamTableModel{
		ID:        t.ID,
		Name:      t.Name,
		ShortName: t.ShortName,
		CountryID: t.CountryID,
	})
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{ID: row.ID, Name: row.Name, ShortName: row.ShortName, CountryID: row.CountryID}
}

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	row, ok, err := getOne[playerTableModel](ctx, conn(ctx, r.db), "players", qb.Eq("id", playerID))
	if err != nil || !ok {
		return player.Player{}, ok, err
	}
	return playerFromRow(row), true, nil
}

func (r *PlayerRepository) FindByName(ctx context.Context, teamID, name string) (player.Player, bool, error) {
	row, ok, err := getOne[playerTableModel](ctx, conn(ctx, r.db), "players", qb.Eq("team_id", teamID), qb.Eq("name", name))
	if err != nil || !ok {
		return player.Player{}, ok, err
	}
	return playerFromRow(row), true, nil
}

func (r *PlayerRepository) Insert(ctx context.Context, p player.Player) (bool, error) {
	return insertIgnore(ctx, conn(ctx, r.db), "players", playerTableModel{
		ID:        p.ID,
		TeamID:    p.TeamID,
		CountryID: p.CountryID,
		Name:      p.Name,
		Position:  string(p.Position),
	})
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:        row.ID,
		TeamID:    row.TeamID,
		CountryID: row.CountryID,
		Name:      row.Name,
		Position:  player.Position(row.Position),
	}
}

// getOne selects the first row of table matching every condition. Rows are
// ordered by id so name lookups are stable when names collide.
func getOne[M any](ctx context.Context, exec executor, table string, conditions ...qb.Condition) (M, bool, error) {
	var row M
	query, args, err := qb.Select(qb.Columns(row)...).From(table).
		Where(conditions...).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return row, false, fmt.Errorf("build select %s query: %w", table, err)
	}
	if err := exec.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return row, false, nil
		}
		return row, false, fmt.Errorf("select %s: %w", table, err)
	}
	return row, true, nil
}

// insertIgnore inserts model unless its id or natural key (the table's unique
// indexes) is taken and reports whether a row was created.
func insertIgnore(ctx context.Context, exec executor, table string, model any) (bool, error) {
	query, args, err := qb.InsertModel(table, model, "ON CONFLICT DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build insert %s query: %w", table, err)
	}
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert %s rows affected: %w", table, err)
	}
	return affected > 0, nil
}

func joinColumns(model any) string {
	return strings.Join(qb.Columns(model), ", ")
}
