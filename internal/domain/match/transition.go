package match

import (
	"slices"
	"time"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrNotFound          = crerr.New("match not found")
	ErrInvalidTransition = crerr.New("invalid status transition")
	ErrScoreRequired     = crerr.New("both scores must be set before finishing the match")
	ErrMinuteRegression  = crerr.New("current minute cannot decrease while live")
	ErrNotInPlay         = crerr.New("match is not in play")
)

var allowedTransitions = map[Status][]Status{
	StatusScheduled: {StatusLive, StatusPostponed, StatusCancelled},
	StatusLive:      {StatusHalfTime, StatusFinished, StatusAbandoned, StatusPostponed},
	StatusHalfTime:  {StatusLive, StatusFinished, StatusAbandoned, StatusPostponed},
	StatusPostponed: {StatusScheduled, StatusLive, StatusCancelled},
	StatusFinished:  nil,
	StatusAbandoned: nil,
	StatusCancelled: nil,
}

// CanTransition reports whether the edge exists in the allowed-edge table.
func CanTransition(from, to Status) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// AllowedTargets returns a copy of the outgoing edges for a status.
func AllowedTargets(from Status) []Status {
	return slices.Clone(allowedTransitions[from])
}

// Transition moves the match to the target status and applies the clock side
// effects of the edge. The match is left untouched when the edge is rejected.
func (m *Match) Transition(to Status, at time.Time) error {
	from := m.Status
	if !CanTransition(from, to) {
		return crerr.Wrapf(ErrInvalidTransition, "%s -> %s", from, to)
	}
	if to == StatusFinished && !m.HasScore() {
		return ErrScoreRequired
	}

	switch to {
	case StatusLive:
		if from == StatusHalfTime {
			m.Period = PeriodSecondHalf
			m.setMinute(max(m.Minute(), SecondHalfStartMinute))
			break
		}
		if m.StartedAt == nil {
			startedAt := at
			m.StartedAt = &startedAt
			m.Period = PeriodFirstHalf
			m.setMinute(0)
			break
		}
		// resuming a postponed match keeps its clock
		if m.Minute() >= SecondHalfStartMinute {
			m.Period = PeriodSecondHalf
		} else {
			m.Period = PeriodFirstHalf
		}
	case StatusHalfTime:
		m.Period = PeriodHalfTime
		m.setMinute(HalfTimeMinute)
	case StatusFinished:
		m.Period = PeriodFullTime
		endedAt := at
		m.EndedAt = &endedAt
	case StatusAbandoned:
		endedAt := at
		m.EndedAt = &endedAt
	case StatusScheduled:
		m.Period = PeriodNone
		m.CurrentMinute = nil
		m.StartedAt = nil
	}

	m.Status = to
	m.UpdatedAt = at
	return nil
}

// SetMinute moves the clock forward. A lower value than the stored minute is
// rejected while the match is live.
func (m *Match) SetMinute(minute int) error {
	if minute < 0 {
		return crerr.Newf("minute must be >= 0, got %d", minute)
	}
	if m.Status == StatusLive && m.CurrentMinute != nil && minute < *m.CurrentMinute {
		return crerr.Wrapf(ErrMinuteRegression, "%d -> %d", *m.CurrentMinute, minute)
	}
	m.setMinute(minute)
	return nil
}

// Advance increments the clock by one minute.
func (m *Match) Advance() int {
	next := m.Minute() + 1
	m.setMinute(next)
	return next
}

func (m *Match) SetScore(home, away int) error {
	if home < 0 || away < 0 {
		return crerr.Newf("scores must be >= 0, got %d-%d", home, away)
	}
	m.HomeScore = &home
	m.AwayScore = &away
	return nil
}

// CreditGoal adds one goal to the given side, starting from 0-0 when unscored.
func (m *Match) CreditGoal(teamID string) {
	home, away := 0, 0
	if m.HomeScore != nil {
		home = *m.HomeScore
	}
	if m.AwayScore != nil {
		away = *m.AwayScore
	}
	if teamID == m.HomeTeamID {
		home++
	} else {
		away++
	}
	m.HomeScore = &home
	m.AwayScore = &away
}

func (m *Match) setMinute(minute int) {
	m.CurrentMinute = &minute
}
