package deck

import "time"

// Nower abstracts time.Now so scheduling can be driven by a fake clock
// in tests.
type Nower interface {
	Now() time.Time
}

type RealNower struct{}

func (r RealNower) Now() time.Time {
	return time.Now()
}

// StudyDay converts a timestamp to the calendar day it counts toward.
// A study day starts at startHour rather than midnight, so an answer
// recorded at 2am still belongs to the previous day's session. The
// result is normalized to midnight UTC and is the only day
// representation used by the ledger and the forecast.
func StudyDay(t time.Time, startHour int) time.Time {
	t = t.Add(-time.Duration(startHour) * time.Hour)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns b - a in whole days. Both arguments must be
// StudyDay-normalized.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
