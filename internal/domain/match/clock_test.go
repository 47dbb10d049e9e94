package match

import "testing"

func TestClockRules_Next(t *testing.T) {
	rules := ClockRules{FirstHalfEnd: 50, SecondHalfEnd: 95}
	minute := func(v int) *int { return &v }

	cases := []struct {
		name   string
		match  Match
		want   Status
		wantOK bool
	}{
		{"first half running", Match{Status: StatusLive, Period: PeriodFirstHalf, CurrentMinute: minute(49)}, "", false},
		{"first half ends", Match{Status: StatusLive, Period: PeriodFirstHalf, CurrentMinute: minute(50)}, StatusHalfTime, true},
		{"half time waits", Match{Status: StatusHalfTime, Period: PeriodHalfTime, CurrentMinute: minute(45)}, "", false},
		{"second half starts", Match{Status: StatusHalfTime, Period: PeriodHalfTime, CurrentMinute: minute(46)}, StatusLive, true},
		{"second half running", Match{Status: StatusLive, Period: PeriodSecondHalf, CurrentMinute: minute(94)}, "", false},
		{"full time", Match{Status: StatusLive, Period: PeriodSecondHalf, CurrentMinute: minute(95)}, StatusFinished, true},
		{"not in play", Match{Status: StatusScheduled, CurrentMinute: minute(99)}, "", false},
	}

	for _, tc := range cases {
		got, ok := rules.Next(tc.match)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("%s: got (%q, %v), want (%q, %v)", tc.name, got, ok, tc.want, tc.wantOK)
		}
	}
}
