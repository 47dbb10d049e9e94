package possession

import (
	"fmt"
	"sort"
	"time"

	crerr "github.com/cockroachdb/errors"
)

var (
	// ErrOrderingViolation is returned when a possession change arrives for a
	// second before the start of the open interval.
	ErrOrderingViolation = crerr.New("possession change precedes the open interval")
	// ErrOverlappingInterval is returned when a new interval would start inside
	// an already closed one.
	ErrOverlappingInterval = crerr.New("possession interval overlaps the timeline")
)

// Interval is a span of match time controlled by one team. A nil TeamID is
// neutral time, a nil EndSecond marks the open interval.
type Interval struct {
	ID          string
	MatchID     string
	TeamID      *string
	StartSecond int
	EndSecond   *int
	Source      string
	CreatedAt   time.Time
}

func (i Interval) IsOpen() bool {
	return i.EndSecond == nil
}

func (i Interval) Team() string {
	if i.TeamID == nil {
		return ""
	}
	return *i.TeamID
}

// Duration returns the covered seconds; an open interval is measured up to now.
func (i Interval) Duration(nowSecond int) int {
	end := nowSecond
	if i.EndSecond != nil {
		end = *i.EndSecond
	}
	if end < i.StartSecond {
		return 0
	}
	return end - i.StartSecond
}

// Open returns the open interval of a timeline, if any.
func Open(timeline []Interval) (Interval, bool) {
	for _, item := range timeline {
		if item.IsOpen() {
			return item, true
		}
	}
	return Interval{}, false
}

// Close describes the end applied to the open interval.
type Close struct {
	IntervalID string
	EndSecond  int
}

// Decision is the set of writes needed to record one possession change.
type Decision struct {
	Close  *Close
	Open   *Interval
	Second int
}

func (d Decision) Changed() bool {
	return d.Close != nil || d.Open != nil
}

// Plan decides how a possession change for teamID at second alters the
// timeline. teamID empty means possession became neutral. The returned
// Decision.Open carries no ID or match; the caller assigns them.
func Plan(timeline []Interval, teamID string, second int, source string) (Decision, error) {
	if second < 0 {
		return Decision{}, fmt.Errorf("possession second must be >= 0, got %d", second)
	}

	decision := Decision{Second: second}
	open, hasOpen := Open(timeline)
	if hasOpen {
		if second < open.StartSecond {
			return Decision{}, crerr.Wrapf(ErrOrderingViolation, "second %d before open start %d", second, open.StartSecond)
		}
		if open.Team() == teamID {
			return decision, nil
		}

		end := second
		if end == open.StartSecond {
			end++
		}
		decision.Close = &Close{IntervalID: open.ID, EndSecond: end}
		decision.Second = end
	} else {
		if teamID == "" {
			return decision, nil
		}
		if last := lastEnd(timeline); second < last {
			return Decision{}, crerr.Wrapf(ErrOverlappingInterval, "second %d before last end %d", second, last)
		}
	}

	if teamID != "" {
		team := teamID
		decision.Open = &Interval{
			TeamID:      &team,
			StartSecond: decision.Second,
			Source:      source,
		}
	}

	return decision, nil
}

// ValidateTimeline checks that intervals are ordered, non-overlapping and
// that at most one is open.
func ValidateTimeline(timeline []Interval) error {
	items := append([]Interval(nil), timeline...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartSecond < items[j].StartSecond
	})

	openCount := 0
	for idx, item := range items {
		if item.IsOpen() {
			openCount++
			if idx != len(items)-1 {
				return crerr.Wrapf(ErrOverlappingInterval, "open interval %s is not the last one", item.ID)
			}
			continue
		}
		if *item.EndSecond <= item.StartSecond {
			return fmt.Errorf("interval %s has non-positive length", item.ID)
		}
		if idx+1 < len(items) && items[idx+1].StartSecond < *item.EndSecond {
			return crerr.Wrapf(ErrOverlappingInterval, "interval %s overlaps %s", item.ID, items[idx+1].ID)
		}
	}
	if openCount > 1 {
		return fmt.Errorf("timeline has %d open intervals", openCount)
	}

	return nil
}

// SecondsByTeam sums covered seconds per team, skipping neutral time.
func SecondsByTeam(timeline []Interval, nowSecond int) map[string]int {
	out := make(map[string]int, 2)
	for _, item := range timeline {
		if item.TeamID == nil {
			continue
		}
		out[*item.TeamID] += item.Duration(nowSecond)
	}
	return out
}

func lastEnd(timeline []Interval) int {
	last := 0
	for _, item := range timeline {
		if item.EndSecond != nil && *item.EndSecond > last {
			last = *item.EndSecond
		}
	}
	return last
}
