package match

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusHalfTime  Status = "half_time"
	StatusFinished  Status = "finished"
	StatusPostponed Status = "postponed"
	StatusAbandoned Status = "abandoned"
	StatusCancelled Status = "cancelled"
)

type Period string

const (
	PeriodNone       Period = ""
	PeriodFirstHalf  Period = "1H"
	PeriodHalfTime   Period = "HT"
	PeriodSecondHalf Period = "2H"
	PeriodFullTime   Period = "FT"
)

const (
	// HalfTimeMinute is the clock value held during the interval.
	HalfTimeMinute = 45
	// SecondHalfStartMinute is the first minute of the second half.
	SecondHalfStartMinute = 46
)

// Match is one fixture between two teams inside a season.
type Match struct {
	ID            string
	SeasonID      string
	HomeTeamID    string
	AwayTeamID    string
	ScheduledAt   time.Time
	Venue         string
	Status        Status
	Period        Period
	CurrentMinute *int
	HomeScore     *int
	AwayScore     *int
	StartedAt     *time.Time
	EndedAt       *time.Time
	UpdatedAt     time.Time
}

func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case StatusScheduled, StatusLive, StatusHalfTime, StatusFinished,
		StatusPostponed, StatusAbandoned, StatusCancelled:
		return status, true
	default:
		return "", false
	}
}

func (s Status) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// IsInPlay reports whether the clock runs for the status.
func (s Status) IsInPlay() bool {
	return s == StatusLive || s == StatusHalfTime
}

func (m Match) HasScore() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// Minute returns the current clock minute, or zero when the clock never started.
func (m Match) Minute() int {
	if m.CurrentMinute == nil {
		return 0
	}
	return *m.CurrentMinute
}

func (m Match) HasTeam(teamID string) bool {
	return teamID != "" && (teamID == m.HomeTeamID || teamID == m.AwayTeamID)
}

// OpponentOf returns the other side of the fixture.
func (m Match) OpponentOf(teamID string) string {
	if teamID == m.HomeTeamID {
		return m.AwayTeamID
	}
	return m.HomeTeamID
}

func (m Match) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if m.SeasonID == "" {
		return fmt.Errorf("match season id is required")
	}
	if m.HomeTeamID == "" || m.AwayTeamID == "" {
		return fmt.Errorf("match home and away team ids are required")
	}
	if m.HomeTeamID == m.AwayTeamID {
		return fmt.Errorf("match home and away team must differ")
	}
	if _, ok := ParseStatus(string(m.Status)); !ok {
		return fmt.Errorf("invalid match status %q", m.Status)
	}
	if m.Status == StatusFinished && !m.HasScore() {
		return fmt.Errorf("finished match requires both scores")
	}

	return nil
}
