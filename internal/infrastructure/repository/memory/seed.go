package memory

import (
	"time"

	"github.com/riskibarqy/matchday/internal/domain/country"
	"github.com/riskibarqy/matchday/internal/domain/league"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/season"
	"github.com/riskibarqy/matchday/internal/domain/team"
)

const (
	CountryIDIndonesia = "idn"
	CountryIDEngland   = "eng"

	LeagueIDLiga1Indonesia = "idn-liga-1"
	LeagueIDPremierLeague  = "eng-premier-league"

	SeasonIDLiga1Indonesia2025 = "idn-liga-1-2025"
	SeasonIDPremierLeague2025  = "eng-premier-league-2025"
)

func SeedCountries() []country.Country {
	return []country.Country{
		{ID: CountryIDIndonesia, Name: "Indonesia", Code: "ID"},
		{ID: CountryIDEngland, Name: "England", Code: "GB"},
	}
}

func SeedLeagues() []league.League {
	return []league.League{
		{ID: LeagueIDLiga1Indonesia, Name: "Liga 1 Indonesia", CountryID: CountryIDIndonesia},
		{ID: LeagueIDPremierLeague, Name: "Premier League", CountryID: CountryIDEngland},
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: "idn-persija", Name: "Persija Jakarta", ShortName: "PSJ", CountryID: CountryIDIndonesia},
		{ID: "idn-persib", Name: "Persib Bandung", ShortName: "PSB", CountryID: CountryIDIndonesia},
		{ID: "idn-persebaya", Name: "Persebaya Surabaya", ShortName: "PRB", CountryID: CountryIDIndonesia},
		{ID: "idn-baliutd", Name: "Bali United", ShortName: "BU", CountryID: CountryIDIndonesia},
		{ID: "eng-ars", Name: "Arsenal", ShortName: "ARS", CountryID: CountryIDEngland},
		{ID: "eng-liv", Name: "Liverpool", ShortName: "LIV", CountryID: CountryIDEngland},
	}
}

func SeedSeasons() []season.Season {
	return []season.Season{
		{
			ID:              SeasonIDLiga1Indonesia2025,
			LeagueID:        LeagueIDLiga1Indonesia,
			Name:            "2025/2026",
			PromotionSpots:  1,
			RelegationSpots: 1,
			TeamIDs:         []string{"idn-persija", "idn-persib", "idn-persebaya", "idn-baliutd"},
		},
		{
			ID:       SeasonIDPremierLeague2025,
			LeagueID: LeagueIDPremierLeague,
			Name:     "2025/2026",
			TeamIDs:  []string{"eng-ars", "eng-liv"},
		},
	}
}

func SeedMatches() []match.Match {
	kickoff := time.Date(2025, time.August, 16, 12, 0, 0, 0, time.UTC)
	return []match.Match{
		{
			ID:          "idn-2025-md1-psj-psb",
			SeasonID:    SeasonIDLiga1Indonesia2025,
			HomeTeamID:  "idn-persija",
			AwayTeamID:  "idn-persib",
			ScheduledAt: kickoff,
			Venue:       "Jakarta International Stadium",
			Status:      match.StatusScheduled,
			UpdatedAt:   kickoff.Add(-72 * time.Hour),
		},
		{
			ID:          "idn-2025-md1-prb-bu",
			SeasonID:    SeasonIDLiga1Indonesia2025,
			HomeTeamID:  "idn-persebaya",
			AwayTeamID:  "idn-baliutd",
			ScheduledAt: kickoff.Add(3 * time.Hour),
			Venue:       "Gelora Bung Tomo",
			Status:      match.StatusScheduled,
			UpdatedAt:   kickoff.Add(-72 * time.Hour),
		},
		{
			ID:          "eng-2025-md1-ars-liv",
			SeasonID:    SeasonIDPremierLeague2025,
			HomeTeamID:  "eng-ars",
			AwayTeamID:  "eng-liv",
			ScheduledAt: kickoff.Add(4 * time.Hour),
			Venue:       "Emirates Stadium",
			Status:      match.StatusScheduled,
			UpdatedAt:   kickoff.Add(-72 * time.Hour),
		},
	}
}

// Seed loads the reference catalog and fixtures into an empty store.
func (s *Store) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range SeedCountries() {
		s.countries[item.ID] = item
	}
	for _, item := range SeedLeagues() {
		s.leagues[item.ID] = item
	}
	for _, item := range SeedTeams() {
		s.teams[item.ID] = item
	}
	for _, item := range SeedSeasons() {
		s.seasons[item.ID] = cloneSeason(item)
	}
	for _, item := range SeedMatches() {
		s.matches[item.ID] = cloneMatch(item)
	}
}
