package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo catalog and fixtures into an empty database.
// A database that already has countries is left untouched.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM countries`); err != nil {
		return fmt.Errorf("count countries for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	return withinTx(ctx, db, func(ctx context.Context) error {
		countries := NewCountryRepository(db)
		for _, item := range memory.SeedCountries() {
			if _, err := countries.Insert(ctx, item); err != nil {
				return fmt.Errorf("seed country %s: %w", item.ID, err)
			}
		}
		leagues := NewLeagueRepository(db)
		for _, item := range memory.SeedLeagues() {
			if _, err := leagues.Insert(ctx, item); err != nil {
				return fmt.Errorf("seed league %s: %w", item.ID, err)
			}
		}
		teams := NewTeamRepository(db)
		for _, item := range memory.SeedTeams() {
			if _, err := teams.Insert(ctx, item); err != nil {
				return fmt.Errorf("seed team %s: %w", item.ID, err)
			}
		}
		seasons := NewSeasonRepository(db)
		for _, item := range memory.SeedSeasons() {
			if _, err := seasons.Insert(ctx, item); err != nil {
				return fmt.Errorf("seed season %s: %w", item.ID, err)
			}
		}
		matches := NewMatchRepository(db)
		for _, item := range memory.SeedMatches() {
			if _, err := matches.Insert(ctx, item); err != nil {
				return fmt.Errorf("seed match %s: %w", item.ID, err)
			}
		}
		return nil
	})
}
