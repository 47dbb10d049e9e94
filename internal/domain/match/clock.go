package match

// ClockRules holds the minute thresholds that end each half.
type ClockRules struct {
	FirstHalfEnd  int
	SecondHalfEnd int
}

func DefaultClockRules() ClockRules {
	return ClockRules{FirstHalfEnd: 45, SecondHalfEnd: 90}
}

// Next returns the automatic transition due for the match's current clock,
// if any.
func (r ClockRules) Next(m Match) (Status, bool) {
	minute := m.Minute()
	switch {
	case m.Status == StatusLive && m.Period == PeriodFirstHalf && minute >= r.FirstHalfEnd:
		return StatusHalfTime, true
	case m.Status == StatusHalfTime && m.Period == PeriodHalfTime && minute >= SecondHalfStartMinute:
		return StatusLive, true
	case m.Status == StatusLive && m.Period == PeriodSecondHalf && minute >= r.SecondHalfEnd:
		return StatusFinished, true
	default:
		return "", false
	}
}
