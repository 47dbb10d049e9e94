package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/matchevent"
	"github.com/riskibarqy/matchday/internal/platform/id"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

// errNoChange aborts a locked update without writing anything.
var errNoChange = errors.New("no change")

type TransitionInput struct {
	MatchID       string
	Status        string
	CurrentMinute *int
}

type SetScoreInput struct {
	MatchID   string
	HomeScore int
	AwayScore int
}

type RecordEventInput struct {
	MatchID  string
	TeamID   string
	PlayerID string
	Type     string
	Minute   int
}

// MatchService is the single authority over match status and clock fields.
// Manual operator calls and the Clock both go through it.
type MatchService struct {
	matchRepo match.Repository
	eventRepo matchevent.Repository
	jobs      *JobDispatcher
	ids       id.Generator
	metrics   Metrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewMatchService(
	matchRepo match.Repository,
	eventRepo matchevent.Repository,
	jobs *JobDispatcher,
	ids id.Generator,
	metrics Metrics,
	logger *logging.Logger,
) *MatchService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchService{
		matchRepo: matchRepo,
		eventRepo: eventRepo,
		jobs:      jobs,
		ids:       ids,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *MatchService) Get(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Get")
	defer span.End()

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

// Transition moves a match along one edge of the status table.
func (s *MatchService) Transition(ctx context.Context, input TransitionInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Transition")
	defer span.End()

	matchID := strings.TrimSpace(input.MatchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	target, ok := match.ParseStatus(input.Status)
	if !ok {
		return match.Match{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, input.Status)
	}
	if input.CurrentMinute != nil && *input.CurrentMinute < 0 {
		return match.Match{}, fmt.Errorf("%w: current minute must be >= 0", ErrInvalidInput)
	}

	now := s.now().UTC()
	var from match.Status
	updated, err := s.matchRepo.Update(ctx, matchID, func(_ context.Context, m *match.Match) error {
		from = m.Status
		if input.CurrentMinute != nil {
			if err := m.SetMinute(*input.CurrentMinute); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
		}
		return m.Transition(target, now)
	})
	if err != nil {
		return match.Match{}, s.wrapUpdateError(matchID, err)
	}

	s.metrics.MatchTransitioned(from, updated.Status, false)
	s.logger.InfoContext(ctx, "match transitioned",
		"match_id", matchID,
		"from", from,
		"to", updated.Status,
		"minute", updated.Minute(),
	)
	s.afterTransition(ctx, updated)
	return updated, nil
}

// SetScore overwrites the scoreline of a match that has kicked off.
func (s *MatchService) SetScore(ctx context.Context, input SetScoreInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SetScore")
	defer span.End()

	matchID := strings.TrimSpace(input.MatchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if input.HomeScore < 0 || input.AwayScore < 0 {
		return match.Match{}, fmt.Errorf("%w: scores must be >= 0", ErrInvalidInput)
	}

	now := s.now().UTC()
	updated, err := s.matchRepo.Update(ctx, matchID, func(_ context.Context, m *match.Match) error {
		if !m.Status.IsInPlay() && m.Status != match.StatusFinished {
			return fmt.Errorf("%w: score can only be set once the match kicked off, status=%s", ErrConflict, m.Status)
		}
		if err := m.SetScore(input.HomeScore, input.AwayScore); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return match.Match{}, s.wrapUpdateError(matchID, err)
	}

	s.jobs.Stats(ctx, updated.ID)
	if updated.Status == match.StatusFinished {
		s.jobs.Standings(ctx, updated.SeasonID)
	}
	return updated, nil
}

// RecordEvent stores a raw in-match event. Goals move the score under the
// same lock as the event insert.
func (s *MatchService) RecordEvent(ctx context.Context, input RecordEventInput) (matchevent.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RecordEvent")
	defer span.End()

	eventType, ok := matchevent.ParseType(input.Type)
	if !ok {
		return matchevent.Event{}, fmt.Errorf("%w: invalid event type %q", ErrInvalidInput, input.Type)
	}
	eventID, err := s.ids.NewID()
	if err != nil {
		return matchevent.Event{}, fmt.Errorf("generate event id: %w", err)
	}

	now := s.now().UTC()
	event := matchevent.Event{
		ID:        eventID,
		MatchID:   strings.TrimSpace(input.MatchID),
		TeamID:    strings.TrimSpace(input.TeamID),
		PlayerID:  strings.TrimSpace(input.PlayerID),
		Type:      eventType,
		Minute:    input.Minute,
		CreatedAt: now,
	}
	if err := event.Validate(); err != nil {
		return matchevent.Event{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	_, err = s.matchRepo.Update(ctx, event.MatchID, func(ctx context.Context, m *match.Match) error {
		if !m.Status.IsInPlay() {
			return fmt.Errorf("%w: %w: status=%s", ErrConflict, match.ErrNotInPlay, m.Status)
		}
		if !m.HasTeam(event.TeamID) {
			return fmt.Errorf("%w: team=%s does not play in match=%s", ErrInvalidInput, event.TeamID, m.ID)
		}
		if event.Type.IsGoal() {
			m.CreditGoal(event.ScoringTeamID(m.HomeTeamID, m.AwayTeamID))
			m.UpdatedAt = now
		}
		if err := s.eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("create match event: %w", err)
		}
		return nil
	})
	if err != nil {
		return matchevent.Event{}, s.wrapUpdateError(event.MatchID, err)
	}

	s.jobs.Stats(ctx, event.MatchID)
	return event, nil
}

// ListEvents returns the raw events of a match in recording order.
func (s *MatchService) ListEvents(ctx context.Context, matchID string) ([]matchevent.Event, error) {
	if _, err := s.Get(ctx, matchID); err != nil {
		return nil, err
	}
	items, err := s.eventRepo.ListByMatch(ctx, strings.TrimSpace(matchID))
	if err != nil {
		return nil, fmt.Errorf("list match events: %w", err)
	}
	return items, nil
}

// advanceClock is the Clock's per-match step: one minute forward, then any
// automatic transition due. A failed transition keeps the minute.
func (s *MatchService) advanceClock(ctx context.Context, matchID string, rules match.ClockRules, at time.Time) (bool, error) {
	var (
		from          match.Status
		transitioned  bool
		transitionErr error
	)
	updated, err := s.matchRepo.Update(ctx, matchID, func(_ context.Context, m *match.Match) error {
		if !m.Status.IsInPlay() {
			return errNoChange
		}
		from = m.Status
		m.Advance()
		m.UpdatedAt = at

		target, due := rules.Next(*m)
		if !due {
			return nil
		}
		if err := m.Transition(target, at); err != nil {
			transitionErr = err
			return nil
		}
		transitioned = true
		return nil
	})
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	if err != nil {
		return false, s.wrapUpdateError(matchID, err)
	}
	if transitionErr != nil {
		return false, fmt.Errorf("auto transition match=%s minute=%d: %w", matchID, updated.Minute(), transitionErr)
	}
	if !transitioned {
		return false, nil
	}

	s.metrics.MatchTransitioned(from, updated.Status, true)
	s.logger.InfoContext(ctx, "match auto transitioned",
		"match_id", matchID,
		"from", from,
		"to", updated.Status,
		"minute", updated.Minute(),
	)
	s.afterTransition(ctx, updated)
	return true, nil
}

func (s *MatchService) afterTransition(ctx context.Context, m match.Match) {
	if m.Status != match.StatusFinished {
		return
	}
	s.jobs.Stats(ctx, m.ID)
	s.jobs.Standings(ctx, m.SeasonID)
}

func (s *MatchService) wrapUpdateError(matchID string, err error) error {
	if errors.Is(err, match.ErrNotFound) {
		return fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	return fmt.Errorf("update match=%s: %w", matchID, err)
}
