package player

import (
	"fmt"
	"strings"
)

// Position is the broad on-pitch role of a player.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
	PositionUnknown    Position = ""
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
	PositionUnknown:    {},
}

func ParsePosition(value string) (Position, bool) {
	pos := Position(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := AllPositions[pos]
	return pos, ok
}

// Player is an athlete registered with a club.
type Player struct {
	ID        string
	TeamID    string
	CountryID string
	Name      string
	Position  Position
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("player team id is required")
	}
	if p.CountryID == "" {
		return fmt.Errorf("player country id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}

	return nil
}
