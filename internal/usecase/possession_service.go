package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/possession"
	"github.com/riskibarqy/matchday/internal/platform/id"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

type RecordPossessionInput struct {
	MatchID string
	// TeamID empty marks neutral possession.
	TeamID string
	Second *int
	Source string
}

type RecordPossessionResult struct {
	OK      bool `json:"ok"`
	Changed bool `json:"changed"`
	Second  int  `json:"second"`
}

// PossessionService reconciles possession changes into a non-overlapping
// timeline with at most one open interval per match.
type PossessionService struct {
	matchRepo      match.Repository
	possessionRepo possession.Repository
	jobs           *JobDispatcher
	ids            id.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewPossessionService(
	matchRepo match.Repository,
	possessionRepo possession.Repository,
	jobs *JobDispatcher,
	ids id.Generator,
	logger *logging.Logger,
) *PossessionService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &PossessionService{
		matchRepo:      matchRepo,
		possessionRepo: possessionRepo,
		jobs:           jobs,
		ids:            ids,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *PossessionService) RecordPossession(ctx context.Context, input RecordPossessionInput) (RecordPossessionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PossessionService.RecordPossession")
	defer span.End()

	matchID := strings.TrimSpace(input.MatchID)
	teamID := strings.TrimSpace(input.TeamID)
	if matchID == "" {
		return RecordPossessionResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if input.Second != nil && *input.Second < 0 {
		return RecordPossessionResult{}, fmt.Errorf("%w: second must be >= 0", ErrInvalidInput)
	}
	source := strings.TrimSpace(input.Source)
	if source == "" {
		source = "manual"
	}

	intervalID, err := s.ids.NewID()
	if err != nil {
		return RecordPossessionResult{}, fmt.Errorf("generate interval id: %w", err)
	}

	now := s.now().UTC()
	var decision possession.Decision
	_, err = s.matchRepo.Update(ctx, matchID, func(ctx context.Context, m *match.Match) error {
		if !m.Status.IsInPlay() {
			return fmt.Errorf("%w: %w: status=%s", ErrConflict, match.ErrNotInPlay, m.Status)
		}
		if teamID != "" && !m.HasTeam(teamID) {
			return fmt.Errorf("%w: team=%s does not play in match=%s", ErrInvalidInput, teamID, m.ID)
		}

		second := DeriveSecond(*m, now)
		if input.Second != nil {
			second = *input.Second
		}

		timeline, err := s.possessionRepo.ListByMatch(ctx, matchID)
		if err != nil {
			return fmt.Errorf("list possession intervals: %w", err)
		}

		decision, err = possession.Plan(timeline, teamID, second, source)
		if err != nil {
			return err
		}
		if !decision.Changed() {
			return errNoChange
		}

		if decision.Close != nil {
			if err := s.possessionRepo.Close(ctx, decision.Close.IntervalID, decision.Close.EndSecond); err != nil {
				return fmt.Errorf("close possession interval: %w", err)
			}
		}
		if decision.Open != nil {
			opened := *decision.Open
			opened.ID = intervalID
			opened.MatchID = matchID
			opened.CreatedAt = now
			if err := s.possessionRepo.Insert(ctx, opened); err != nil {
				return fmt.Errorf("open possession interval: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return RecordPossessionResult{OK: true, Changed: false, Second: decision.Second}, nil
	}
	if err != nil {
		if errors.Is(err, match.ErrNotFound) {
			return RecordPossessionResult{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
		}
		return RecordPossessionResult{}, fmt.Errorf("record possession match=%s: %w", matchID, err)
	}

	s.jobs.Stats(ctx, matchID)
	return RecordPossessionResult{OK: true, Changed: true, Second: decision.Second}, nil
}

func (s *PossessionService) ListByMatch(ctx context.Context, matchID string) ([]possession.Interval, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PossessionService.ListByMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	_, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	items, err := s.possessionRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list possession intervals: %w", err)
	}
	return items, nil
}

// DeriveSecond estimates the match second for an event without an explicit
// timestamp. Wall time since kickoff is clamped into the 60-second window of
// the current clock minute when the clock is known.
func DeriveSecond(m match.Match, now time.Time) int {
	elapsed := 0
	if m.StartedAt != nil {
		elapsed = int(now.Sub(*m.StartedAt) / time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
	}
	if m.CurrentMinute == nil {
		return elapsed
	}

	low := *m.CurrentMinute * 60
	high := low + 59
	return min(max(elapsed, low), high)
}
