package leaguestanding

import (
	"sort"
	"strings"
	"time"
)

const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

type Tag string

const (
	TagNone       Tag = ""
	TagPromotion  Tag = "promotion"
	TagRelegation Tag = "relegation"
)

// Standing represents a league table row for one team.
type Standing struct {
	SeasonID        string
	TeamID          string
	TeamName        string
	Position        int
	Played          int
	Won             int
	Drawn           int
	Lost            int
	GoalsFor        int
	GoalsAgainst    int
	GoalDifference  int
	Points          int
	PointsDeduction int
	Status          Tag
	ComputedAt      time.Time
}

// Deduction is a sporting sanction subtracted from a team's points.
type Deduction struct {
	SeasonID string
	TeamID   string
	Points   int
	Reason   string
}

// Result is the scoreline of one counted match.
type Result struct {
	HomeTeamID string
	AwayTeamID string
	HomeGoals  int
	AwayGoals  int
}

type TeamRef struct {
	ID   string
	Name string
}

// TableInput is everything needed to build a season table.
type TableInput struct {
	SeasonID        string
	Teams           []TeamRef
	Results         []Result
	Deductions      []Deduction
	PromotionSpots  int
	RelegationSpots int
	ComputedAt      time.Time
}

// BuildTable aggregates results into a sorted, positioned table. The output
// depends only on the input, so repeated builds are identical.
func BuildTable(in TableInput) []Standing {
	rows := make(map[string]*Standing, len(in.Teams))
	for _, team := range in.Teams {
		rows[team.ID] = &Standing{SeasonID: in.SeasonID, TeamID: team.ID, TeamName: team.Name}
	}
	for _, result := range in.Results {
		home, okHome := rows[result.HomeTeamID]
		away, okAway := rows[result.AwayTeamID]
		if !okHome || !okAway {
			continue
		}
		applyResult(home, away, result)
	}
	for _, deduction := range in.Deductions {
		if row, ok := rows[deduction.TeamID]; ok {
			row.PointsDeduction += deduction.Points
		}
	}

	out := make([]Standing, 0, len(rows))
	for _, row := range rows {
		row.Points = row.Won*PointsWin + row.Drawn*PointsDraw + row.Lost*PointsLoss - row.PointsDeduction
		row.ComputedAt = in.ComputedAt
		out = append(out, *row)
	}

	Rank(out, in.PromotionSpots, in.RelegationSpots)
	return out
}

// Project applies one hypothetical result on top of committed rows without
// touching them. Teams missing from the committed table get an empty row.
func Project(committed []Standing, teams []TeamRef, result Result, promotionSpots, relegationSpots int) []Standing {
	out := make([]Standing, len(committed))
	copy(out, committed)

	index := make(map[string]int, len(out))
	for i := range out {
		index[out[i].TeamID] = i
	}
	for _, team := range teams {
		if _, ok := index[team.ID]; ok {
			continue
		}
		seasonID := ""
		if len(out) > 0 {
			seasonID = out[0].SeasonID
		}
		out = append(out, Standing{SeasonID: seasonID, TeamID: team.ID, TeamName: team.Name})
		index[team.ID] = len(out) - 1
	}

	homeIdx, okHome := index[result.HomeTeamID]
	awayIdx, okAway := index[result.AwayTeamID]
	if !okHome || !okAway {
		return out
	}

	home, away := &out[homeIdx], &out[awayIdx]
	applyResult(home, away, result)
	home.Points = home.Won*PointsWin + home.Drawn*PointsDraw - home.PointsDeduction
	away.Points = away.Won*PointsWin + away.Drawn*PointsDraw - away.PointsDeduction

	Rank(out, promotionSpots, relegationSpots)
	return out
}

// Rank sorts rows by points, goal difference, goals scored, then team name
// and assigns positions and status tags.
func Rank(rows []Standing, promotionSpots, relegationSpots int) {
	sort.SliceStable(rows, func(i, j int) bool {
		return less(rows[i], rows[j])
	})

	n := len(rows)
	for i := range rows {
		rows[i].Position = i + 1
		switch {
		case i < promotionSpots:
			rows[i].Status = TagPromotion
		case relegationSpots > 0 && i >= n-relegationSpots:
			rows[i].Status = TagRelegation
		default:
			rows[i].Status = TagNone
		}
	}
}

func less(a, b Standing) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.GoalDifference != b.GoalDifference {
		return a.GoalDifference > b.GoalDifference
	}
	if a.GoalsFor != b.GoalsFor {
		return a.GoalsFor > b.GoalsFor
	}
	if cmp := strings.Compare(strings.ToLower(a.TeamName), strings.ToLower(b.TeamName)); cmp != 0 {
		return cmp < 0
	}
	return a.TeamID < b.TeamID
}

func applyResult(home, away *Standing, result Result) {
	home.Played++
	away.Played++
	home.GoalsFor += result.HomeGoals
	home.GoalsAgainst += result.AwayGoals
	away.GoalsFor += result.AwayGoals
	away.GoalsAgainst += result.HomeGoals
	home.GoalDifference = home.GoalsFor - home.GoalsAgainst
	away.GoalDifference = away.GoalsFor - away.GoalsAgainst

	switch {
	case result.HomeGoals > result.AwayGoals:
		home.Won++
		away.Lost++
	case result.HomeGoals < result.AwayGoals:
		away.Won++
		home.Lost++
	default:
		home.Drawn++
		away.Drawn++
	}
}
