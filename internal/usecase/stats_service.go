package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/matchevent"
	"github.com/riskibarqy/matchday/internal/domain/possession"
	"github.com/riskibarqy/matchday/internal/domain/teamstats"
)

type UpsertCountersInput struct {
	MatchID         string
	TeamID          string
	Shots           *int
	ShotsOnTarget   *int
	Corners         *int
	Fouls           *int
	Offsides        *int
	YellowCards     *int
	RedCards        *int
	Passes          *int
	PassesCompleted *int
}

// StatsService rebuilds per-team match statistics from raw inputs.
type StatsService struct {
	matchRepo      match.Repository
	eventRepo      matchevent.Repository
	possessionRepo possession.Repository
	statsRepo      teamstats.Repository
	jobs           *JobDispatcher
	now            func() time.Time
}

func NewStatsService(
	matchRepo match.Repository,
	eventRepo matchevent.Repository,
	possessionRepo possession.Repository,
	statsRepo teamstats.Repository,
	jobs *JobDispatcher,
) *StatsService {
	return &StatsService{
		matchRepo:      matchRepo,
		eventRepo:      eventRepo,
		possessionRepo: possessionRepo,
		statsRepo:      statsRepo,
		jobs:           jobs,
		now:            time.Now,
	}
}

// RecomputeMatchStats derives both team rows from the current raw events,
// provider counters and possession timeline, then replaces them. Running it
// twice, or concurrently, converges on the same rows.
func (s *StatsService) RecomputeMatchStats(ctx context.Context, matchID string) ([]teamstats.MatchStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.RecomputeMatchStats")
	defer span.End()

	item, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByMatch(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list match events: %w", err)
	}
	counters, err := s.statsRepo.ListCountersByMatch(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list match counters: %w", err)
	}
	timeline, err := s.possessionRepo.ListByMatch(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list possession intervals: %w", err)
	}

	rows := teamstats.Compute(teamstats.Input{
		MatchID:           item.ID,
		TeamIDs:           []string{item.HomeTeamID, item.AwayTeamID},
		Events:            events,
		Counters:          counters,
		PossessionSeconds: possession.SecondsByTeam(timeline, clockSecond(item, timeline)),
		ComputedAt:        s.now().UTC(),
	})

	if err := s.statsRepo.ReplaceByMatch(ctx, item.ID, rows); err != nil {
		return nil, fmt.Errorf("replace match stats: %w", err)
	}
	return rows, nil
}

func (s *StatsService) ListByMatch(ctx context.Context, matchID string) ([]teamstats.MatchStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.ListByMatch")
	defer span.End()

	item, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	rows, err := s.statsRepo.ListByMatch(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list match stats: %w", err)
	}
	return rows, nil
}

// UpsertCounters stores provider-reported totals for one team and schedules
// a recompute so they reach the derived row.
func (s *StatsService) UpsertCounters(ctx context.Context, input UpsertCountersInput) (teamstats.Counters, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.UpsertCounters")
	defer span.End()

	item, err := s.getMatch(ctx, input.MatchID)
	if err != nil {
		return teamstats.Counters{}, err
	}
	teamID := strings.TrimSpace(input.TeamID)
	if !item.HasTeam(teamID) {
		return teamstats.Counters{}, fmt.Errorf("%w: team=%s does not play in match=%s", ErrInvalidInput, teamID, item.ID)
	}
	for _, value := range []*int{
		input.Shots, input.ShotsOnTarget, input.Corners, input.Fouls, input.Offsides,
		input.YellowCards, input.RedCards, input.Passes, input.PassesCompleted,
	} {
		if value != nil && *value < 0 {
			return teamstats.Counters{}, fmt.Errorf("%w: counters must be >= 0", ErrInvalidInput)
		}
	}

	counters := teamstats.Counters{
		MatchID:         item.ID,
		TeamID:          teamID,
		Shots:           input.Shots,
		ShotsOnTarget:   input.ShotsOnTarget,
		Corners:         input.Corners,
		Fouls:           input.Fouls,
		Offsides:        input.Offsides,
		YellowCards:     input.YellowCards,
		RedCards:        input.RedCards,
		Passes:          input.Passes,
		PassesCompleted: input.PassesCompleted,
		UpdatedAt:       s.now().UTC(),
	}
	if err := s.statsRepo.UpsertCounters(ctx, counters); err != nil {
		return teamstats.Counters{}, fmt.Errorf("upsert match counters: %w", err)
	}

	s.jobs.Stats(ctx, item.ID)
	return counters, nil
}

func (s *StatsService) getMatch(ctx context.Context, matchID string) (match.Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	return item, nil
}

// clockSecond is how far an open possession interval extends: the end of the
// current clock minute, or the latest recorded second when the clock lags.
func clockSecond(m match.Match, timeline []possession.Interval) int {
	second := 0
	if m.CurrentMinute != nil {
		second = *m.CurrentMinute * 60
	}
	for _, item := range timeline {
		if item.StartSecond > second {
			second = item.StartSecond
		}
		if item.EndSecond != nil && *item.EndSecond > second {
			second = *item.EndSecond
		}
	}
	return second
}
