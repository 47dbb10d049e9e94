package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/season"
	"github.com/riskibarqy/matchday/internal/domain/team"
)

type StandingsService struct {
	seasonRepo   season.Repository
	teamRepo     team.Repository
	matchRepo    match.Repository
	standingRepo leaguestanding.Repository
}

func NewStandingsService(
	seasonRepo season.Repository,
	teamRepo team.Repository,
	matchRepo match.Repository,
	standingRepo leaguestanding.Repository,
) *StandingsService {
	return &StandingsService{
		seasonRepo:   seasonRepo,
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		standingRepo: standingRepo,
	}
}

func (s *StandingsService) ListBySeason(ctx context.Context, seasonID string) ([]leaguestanding.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.ListBySeason")
	defer span.End()

	item, err := s.getSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	rows, err := s.standingRepo.ListBySeason(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list season standings: %w", err)
	}
	return rows, nil
}

// RecomputeStandings rebuilds the season table from every finished match and
// replaces the stored set. Unchanged inputs produce an identical table.
func (s *StandingsService) RecomputeStandings(ctx context.Context, seasonID string) ([]leaguestanding.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.RecomputeStandings")
	defer span.End()

	item, err := s.getSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListBySeason(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list season matches: %w", err)
	}
	teams, err := s.teamRefs(ctx, item, matches...)
	if err != nil {
		return nil, err
	}
	deductions, err := s.standingRepo.ListDeductions(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list points deductions: %w", err)
	}

	var computedAt time.Time
	results := make([]leaguestanding.Result, 0, len(matches))
	for _, m := range matches {
		if m.Status != match.StatusFinished || !m.HasScore() {
			continue
		}
		results = append(results, leaguestanding.Result{
			HomeTeamID: m.HomeTeamID,
			AwayTeamID: m.AwayTeamID,
			HomeGoals:  *m.HomeScore,
			AwayGoals:  *m.AwayScore,
		})
		if m.UpdatedAt.After(computedAt) {
			computedAt = m.UpdatedAt
		}
	}

	rows := leaguestanding.BuildTable(leaguestanding.TableInput{
		SeasonID:        item.ID,
		Teams:           teams,
		Results:         results,
		Deductions:      deductions,
		PromotionSpots:  item.PromotionSpots,
		RelegationSpots: item.RelegationSpots,
		ComputedAt:      computedAt.UTC(),
	})

	if err := s.standingRepo.ReplaceBySeason(ctx, item.ID, rows); err != nil {
		return nil, fmt.Errorf("replace season standings: %w", err)
	}
	return rows, nil
}

// ProjectLiveStandings overlays the current score of one in-play match on
// the committed table. Nothing is persisted. A match that is not in play or
// has no score yet leaves the committed table as is.
func (s *StandingsService) ProjectLiveStandings(ctx context.Context, seasonID, matchID string) ([]leaguestanding.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.ProjectLiveStandings")
	defer span.End()

	item, err := s.getSeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	live, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if live.SeasonID != item.ID {
		return nil, fmt.Errorf("%w: match=%s is not part of season=%s", ErrInvalidInput, matchID, item.ID)
	}

	committed, err := s.standingRepo.ListBySeason(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list season standings: %w", err)
	}
	if !live.Status.IsInPlay() || !live.HasScore() {
		return committed, nil
	}

	teams, err := s.teamRefs(ctx, item, live)
	if err != nil {
		return nil, err
	}
	return leaguestanding.Project(committed, teams, leaguestanding.Result{
		HomeTeamID: live.HomeTeamID,
		AwayTeamID: live.AwayTeamID,
		HomeGoals:  *live.HomeScore,
		AwayGoals:  *live.AwayScore,
	}, item.PromotionSpots, item.RelegationSpots), nil
}

func (s *StandingsService) getSeason(ctx context.Context, seasonID string) (season.Season, error) {
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return season.Season{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	item, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return season.Season{}, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return season.Season{}, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}
	return item, nil
}

// teamRefs covers the registered season teams plus anyone who played a
// season match without being registered.
func (s *StandingsService) teamRefs(ctx context.Context, item season.Season, matches ...match.Match) ([]leaguestanding.TeamRef, error) {
	teamIDs := append([]string(nil), item.TeamIDs...)
	seen := make(map[string]struct{}, len(teamIDs))
	for _, teamID := range teamIDs {
		seen[teamID] = struct{}{}
	}
	for _, m := range matches {
		for _, teamID := range []string{m.HomeTeamID, m.AwayTeamID} {
			if _, ok := seen[teamID]; !ok {
				seen[teamID] = struct{}{}
				teamIDs = append(teamIDs, teamID)
			}
		}
	}

	teams, err := s.teamRepo.GetByIDs(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("get season teams: %w", err)
	}
	refs := make([]leaguestanding.TeamRef, 0, len(teams))
	for _, t := range teams {
		refs = append(refs, leaguestanding.TeamRef{ID: t.ID, Name: t.Name})
	}
	return refs, nil
}
