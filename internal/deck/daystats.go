package deck

import (
	"fmt"
	"sort"
	"time"
)

// DayStat aggregates one study day. Days with no activity are never
// stored; consumers treat the gaps as zeroes.
type DayStat struct {
	// Day is StudyDay-normalized.
	Day time.Time
	// ItemCount is the cumulative number of cards under study as of
	// this day.
	ItemCount int
	// ItemLearned is how many of those had reached the learned level
	// by this day.
	ItemLearned int
	// TestCount is the number of test events recorded this day;
	// TestLearned and TestWrong subdivide it. Correct answers below
	// the learned level fall in neither bucket.
	TestCount   int
	TestLearned int
	TestWrong   int
	// TimeSpentMs is the total answer time recorded this day.
	TimeSpentMs int64
}

func (d DayStat) check() error {
	if d.TestLearned+d.TestWrong > d.TestCount {
		return fmt.Errorf("day %s: test subdivision %d+%d exceeds count %d",
			d.Day.Format("2006-01-02"), d.TestLearned, d.TestWrong, d.TestCount)
	}
	if d.ItemLearned > d.ItemCount {
		return fmt.Errorf("day %s: learned %d exceeds item count %d",
			d.Day.Format("2006-01-02"), d.ItemLearned, d.ItemCount)
	}
	if d.ItemCount < 0 || d.ItemLearned < 0 || d.TestCount < 0 ||
		d.TestLearned < 0 || d.TestWrong < 0 || d.TimeSpentMs < 0 {
		return fmt.Errorf("day %s: negative statistic", d.Day.Format("2006-01-02"))
	}
	return nil
}

// statsLedger is the append-or-update-last-day ledger of DayStats,
// kept sorted by day ascending with distinct days.
type statsLedger struct {
	days []DayStat
}

func (l *statsLedger) size() int {
	return len(l.days)
}

func (l *statsLedger) at(i int) DayStat {
	return l.days[i]
}

func (l *statsLedger) all() []DayStat {
	out := make([]DayStat, len(l.days))
	copy(out, l.days)
	return out
}

// find locates a day by binary search.
func (l *statsLedger) find(day time.Time) (DayStat, bool) {
	i := sort.Search(len(l.days), func(i int) bool {
		return !l.days[i].Day.Before(day)
	})
	if i < len(l.days) && l.days[i].Day.Equal(day) {
		return l.days[i], true
	}
	return DayStat{}, false
}

// today returns the row for the given day, creating it if this is the
// day's first activity. A new row inherits the item watermarks from
// the previous row. Writing to any day before the last row is an
// ordering bug.
func (l *statsLedger) today(day time.Time) (*DayStat, error) {
	if n := len(l.days); n > 0 {
		last := &l.days[n-1]
		if last.Day.Equal(day) {
			return last, nil
		}
		if last.Day.After(day) {
			return nil, fmt.Errorf("%w: %s after %s", ErrDayOutOfOrder,
				day.Format("2006-01-02"), last.Day.Format("2006-01-02"))
		}
		l.days = append(l.days, DayStat{
			Day:         day,
			ItemCount:   last.ItemCount,
			ItemLearned: last.ItemLearned,
		})
		return &l.days[len(l.days)-1], nil
	}
	l.days = append(l.days, DayStat{Day: day})
	return &l.days[len(l.days)-1], nil
}

// appendDay is the backfill entry point used by snapshot restore and
// imports. Days must arrive strictly ascending and structurally valid.
func (l *statsLedger) appendDay(d DayStat) error {
	if err := d.check(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if n := len(l.days); n > 0 && !l.days[n-1].Day.Before(d.Day) {
		return fmt.Errorf("%w: %s does not follow %s", ErrDayOutOfOrder,
			d.Day.Format("2006-01-02"), l.days[n-1].Day.Format("2006-01-02"))
	}
	l.days = append(l.days, d)
	return nil
}
