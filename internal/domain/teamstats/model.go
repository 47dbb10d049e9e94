package teamstats

import (
	"math"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/matchevent"
)

// MatchStats is the derived per-team line for one match. It is always
// written as a whole row.
type MatchStats struct {
	MatchID           string
	TeamID            string
	Goals             int
	Shots             int
	ShotsOnTarget     int
	Corners           int
	Fouls             int
	Offsides          int
	YellowCards       int
	RedCards          int
	Passes            int
	PassesCompleted   int
	PossessionSeconds int
	PossessionPct     float64
	ComputedAt        time.Time
}

// Counters are provider-reported totals for one team in one match. A nil
// field means the provider did not report it.
type Counters struct {
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
	UpdatedAt       time.Time
}

// Input carries everything a recompute reads for one match.
type Input struct {
	MatchID           string
	TeamIDs           []string
	Events            []matchevent.Event
	Counters          []Counters
	PossessionSeconds map[string]int
	ComputedAt        time.Time
}

// Compute derives one MatchStats row per team. Goals always come from events
// (own goals credited to the opponent); the remaining counters come from
// events unless a provider counter overrides them.
func Compute(in Input) []MatchStats {
	byTeam := make(map[string]*MatchStats, len(in.TeamIDs))
	out := make([]MatchStats, 0, len(in.TeamIDs))
	for _, teamID := range in.TeamIDs {
		byTeam[teamID] = &MatchStats{MatchID: in.MatchID, TeamID: teamID, ComputedAt: in.ComputedAt}
	}

	for _, event := range in.Events {
		row, ok := byTeam[event.TeamID]
		if !ok {
			continue
		}
		switch event.Type {
		case matchevent.TypeGoal:
			row.Goals++
		case matchevent.TypeOwnGoal:
			if len(in.TeamIDs) == 2 {
				if opponent := byTeam[otherTeam(in.TeamIDs, event.TeamID)]; opponent != nil {
					opponent.Goals++
				}
			}
		case matchevent.TypeShot:
			row.Shots++
		case matchevent.TypeShotOnTarget:
			row.Shots++
			row.ShotsOnTarget++
		case matchevent.TypeCorner:
			row.Corners++
		case matchevent.TypeFoul:
			row.Fouls++
		case matchevent.TypeOffside:
			row.Offsides++
		case matchevent.TypeYellowCard:
			row.YellowCards++
		case matchevent.TypeRedCard:
			row.RedCards++
		}
	}

	for _, counters := range in.Counters {
		row, ok := byTeam[counters.TeamID]
		if !ok {
			continue
		}
		override(&row.Shots, counters.Shots)
		override(&row.ShotsOnTarget, counters.ShotsOnTarget)
		override(&row.Corners, counters.Corners)
		override(&row.Fouls, counters.Fouls)
		override(&row.Offsides, counters.Offsides)
		override(&row.YellowCards, counters.YellowCards)
		override(&row.RedCards, counters.RedCards)
		override(&row.Passes, counters.Passes)
		override(&row.PassesCompleted, counters.PassesCompleted)
	}

	total := 0
	for _, teamID := range in.TeamIDs {
		total += in.PossessionSeconds[teamID]
	}
	for _, teamID := range in.TeamIDs {
		row := byTeam[teamID]
		row.PossessionSeconds = in.PossessionSeconds[teamID]
		row.PossessionPct = Percentage(row.PossessionSeconds, total)
		out = append(out, *row)
	}

	return out
}

// Percentage returns part/total*100 rounded to two decimals, 0 when total is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)*10000/float64(total)) / 100
}

func override(dst *int, value *int) {
	if value != nil {
		*dst = *value
	}
}

func otherTeam(teamIDs []string, teamID string) string {
	if teamIDs[0] == teamID {
		return teamIDs[1]
	}
	return teamIDs[0]
}
