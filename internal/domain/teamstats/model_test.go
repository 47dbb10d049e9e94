package teamstats

import (
	"testing"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/matchevent"
)

func TestCompute_EventsCountersAndPossession(t *testing.T) {
	computedAt := time.Date(2026, 5, 1, 17, 0, 0, 0, time.UTC)
	shots := 12
	events := []matchevent.Event{
		{TeamID: "home", Type: matchevent.TypeGoal},
		{TeamID: "home", Type: matchevent.TypeShotOnTarget},
		{TeamID: "home", Type: matchevent.TypeShot},
		{TeamID: "away", Type: matchevent.TypeOwnGoal},
		{TeamID: "away", Type: matchevent.TypeCorner},
		{TeamID: "away", Type: matchevent.TypeYellowCard},
		{TeamID: "other", Type: matchevent.TypeGoal},
	}

	rows := Compute(Input{
		MatchID:  "m1",
		TeamIDs:  []string{"home", "away"},
		Events:   events,
		Counters: []Counters{{TeamID: "home", Shots: &shots}},
		PossessionSeconds: map[string]int{
			"home": 200,
			"away": 100,
		},
		ComputedAt: computedAt,
	})

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	home, away := rows[0], rows[1]
	if home.Goals != 2 || away.Goals != 0 {
		t.Fatalf("unexpected goals home=%d away=%d", home.Goals, away.Goals)
	}
	if home.Shots != 12 {
		t.Fatalf("expected provider shots to override events, got %d", home.Shots)
	}
	if home.ShotsOnTarget != 1 {
		t.Fatalf("expected shots on target from events, got %d", home.ShotsOnTarget)
	}
	if away.Corners != 1 || away.YellowCards != 1 {
		t.Fatalf("unexpected away counters: %+v", away)
	}
	if home.PossessionPct != 66.67 || away.PossessionPct != 33.33 {
		t.Fatalf("unexpected possession pct home=%v away=%v", home.PossessionPct, away.PossessionPct)
	}
	if !home.ComputedAt.Equal(computedAt) {
		t.Fatalf("unexpected computedAt %s", home.ComputedAt)
	}
}

func TestPercentage_ZeroTotal(t *testing.T) {
	if got := Percentage(10, 0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}
