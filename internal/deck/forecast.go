package deck

import (
	"time"

	"github.com/rs/zerolog/log"
)

// DayLoad is one bucket of the forecast histogram.
type DayLoad struct {
	Day time.Time
	Due int
}

// cascadeCap backstops the simulation loop. The cascade already
// terminates because every simulated review advances the due date by
// at least a day inside a finite horizon, but a projection must never
// be able to wedge the caller.
const cascadeCap = 1 << 20

// Forecast projects how many cards will come due on each of the next
// horizonDays study days, assuming every future review is answered
// correctly. It reads the deck at a consistent point and mutates
// nothing.
//
// Each studied card is seeded at its current due date (overdue cards
// count as due now) with its current spacing, then repeatedly
// rescheduled by spacing *= multiplier until it falls past the
// horizon. Entries beyond the horizon are discarded.
func (d *Deck) Forecast(horizonDays int) []DayLoad {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if horizonDays <= 0 {
		return nil
	}
	now := d.nower.Now()
	today := d.studyDay(now)
	days := make([]int, horizonDays)

	type item struct {
		due        time.Time
		spacing    time.Duration
		multiplier float64
	}
	var work []item
	for _, c := range d.store.cards {
		if c.Status == Queued {
			continue
		}
		spacing := d.cfg.SpacingInterval(c.Level, c.Multiplier)
		if spacing < d.cfg.BaseInterval {
			// Failed cards sit on a short re-test delay; project them
			// with at least the base spacing so every simulated step
			// moves forward a full day.
			spacing = d.cfg.BaseInterval
		}
		due := c.NextDueAt
		day := d.studyDay(due)
		if day.Before(today) {
			due = now
			day = today
		}
		pos := DaysBetween(today, day)
		if pos >= horizonDays {
			continue
		}
		days[pos]++
		work = append(work, item{
			due:        due,
			spacing:    time.Duration(float64(spacing) * c.Multiplier),
			multiplier: c.Multiplier,
		})
	}

	steps := 0
	for len(work) > 0 {
		next := work[:0:0]
		for _, it := range work {
			if steps++; steps > cascadeCap {
				log.Warn().Int("horizon", horizonDays).Msg("forecast-cascade-capped")
				return buildLoads(today, days)
			}
			due := it.due.Add(it.spacing)
			day := d.studyDay(due)
			if !day.After(today) {
				due = now.Add(24 * time.Hour)
				day = today.Add(24 * time.Hour)
			}
			pos := DaysBetween(today, day)
			if pos >= horizonDays {
				continue
			}
			days[pos]++
			next = append(next, item{
				due:        due,
				spacing:    time.Duration(float64(it.spacing) * it.multiplier),
				multiplier: it.multiplier,
			})
		}
		work = next
	}
	return buildLoads(today, days)
}

func buildLoads(today time.Time, days []int) []DayLoad {
	out := make([]DayLoad, len(days))
	for i, n := range days {
		out[i] = DayLoad{Day: today.Add(time.Duration(i) * 24 * time.Hour), Due: n}
	}
	return out
}
