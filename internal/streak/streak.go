// Package streak tracks consecutive calendar days of review activity.
package streak

import "time"

// State is the streak part of a learner's stats
type State struct {
	Current      int
	Longest      int
	LastActivity *time.Time
}

// Update records activity at now. Days are calendar days in loc, so several
// reviews on the same day leave the streak unchanged.
func Update(s State, now time.Time, loc *time.Location) State {
	if s.LastActivity == nil {
		s.Current = 1
	} else {
		switch diff := DaysBetween(*s.LastActivity, now, loc); {
		case diff < 0:
			// The clock went backwards; keep the newest activity.
			return withLongest(s)
		case diff == 0:
		case diff == 1:
			s.Current++
		default:
			s.Current = 1
		}
	}

	at := now
	s.LastActivity = &at
	return withLongest(s)
}

func withLongest(s State) State {
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	return s
}

// DaysBetween returns the number of calendar days from a to b in loc
func DaysBetween(a, b time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return int(dayStart(b, loc).Sub(dayStart(a, loc)).Hours() / 24)
}

// dayStart maps t to midnight UTC of its calendar date in loc, so that DST
// transitions do not change the length of a day.
func dayStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
