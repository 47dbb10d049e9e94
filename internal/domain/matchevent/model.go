package matchevent

import (
	"fmt"
	"strings"
	"time"
)

type Type string

const (
	TypeGoal         Type = "goal"
	TypeOwnGoal      Type = "own_goal"
	TypeShot         Type = "shot"
	TypeShotOnTarget Type = "shot_on_target"
	TypeYellowCard   Type = "yellow_card"
	TypeRedCard      Type = "red_card"
	TypeCorner       Type = "corner"
	TypeFoul         Type = "foul"
	TypeOffside      Type = "offside"
)

// Event is one raw in-match occurrence attributed to a team.
type Event struct {
	ID        string
	MatchID   string
	TeamID    string
	PlayerID  string
	Type      Type
	Minute    int
	CreatedAt time.Time
}

func ParseType(value string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(value)))
	switch t {
	case TypeGoal, TypeOwnGoal, TypeShot, TypeShotOnTarget, TypeYellowCard,
		TypeRedCard, TypeCorner, TypeFoul, TypeOffside:
		return t, true
	default:
		return "", false
	}
}

func (t Type) IsGoal() bool {
	return t == TypeGoal || t == TypeOwnGoal
}

// ScoringTeamID returns the side credited with the goal. Own goals count for
// the opponent of the event's team.
func (e Event) ScoringTeamID(homeTeamID, awayTeamID string) string {
	if e.Type != TypeOwnGoal {
		return e.TeamID
	}
	if e.TeamID == homeTeamID {
		return awayTeamID
	}
	return homeTeamID
}

func (e Event) Validate() error {
	if e.MatchID == "" {
		return fmt.Errorf("event match id is required")
	}
	if e.TeamID == "" {
		return fmt.Errorf("event team id is required")
	}
	if _, ok := ParseType(string(e.Type)); !ok {
		return fmt.Errorf("invalid event type %q", e.Type)
	}
	if e.Minute < 0 {
		return fmt.Errorf("event minute must be >= 0")
	}

	return nil
}
