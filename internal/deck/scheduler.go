package deck

import (
	"math"
	"time"
)

// SpacingInterval is the time until the next review for a card at the
// given level and multiplier: BaseInterval * multiplier^level, capped
// at MaxInterval. It is monotonically non-decreasing in level for a
// fixed multiplier and plateaus once the cap is reached.
func (c SchedulerConfig) SpacingInterval(level int, multiplier float64) time.Duration {
	iv := float64(c.BaseInterval) * math.Pow(multiplier, float64(level))
	if iv >= float64(c.MaxInterval) {
		return c.MaxInterval
	}
	return time.Duration(iv)
}

func (c SchedulerConfig) clampMultiplier(m float64) float64 {
	return math.Min(math.Max(m, c.MultiplierFloor), c.MultiplierCeiling)
}

// growMultiplier rewards a correct answer. The growth is damped as the
// level rises so long-lived cards don't compound toward the ceiling
// after a handful of reviews.
func (c SchedulerConfig) growMultiplier(m float64, level int) float64 {
	g := (c.MultiplierGrowth - 1) / (1 + float64(level)/4)
	return c.clampMultiplier(m * (1 + g))
}

func (c SchedulerConfig) shrinkMultiplier(m float64) float64 {
	return c.clampMultiplier(m * c.MultiplierShrink)
}

// failLevel applies the configured level penalty for a wrong answer.
func (c SchedulerConfig) failLevel(level int) int {
	switch c.FailurePolicy {
	case FailureStepDown:
		level -= c.FailureLevelDrop
		if level < 0 {
			level = 0
		}
		return level
	default:
		return 0
	}
}

// applyAnswer advances a card's study state for one test event and
// returns it. The caller has already promoted queued cards and checked
// due eligibility; this is pure per-card arithmetic.
func (c SchedulerConfig) applyAnswer(card Card, correct bool, now time.Time) Card {
	if correct {
		card.Level++
		card.NextDueAt = now.Add(c.SpacingInterval(card.Level, card.Multiplier))
		// The reward kicks in from the next review on, so the very
		// first interval is still base * initialMultiplier.
		card.Multiplier = c.growMultiplier(card.Multiplier, card.Level)
	} else {
		card.Level = c.failLevel(card.Level)
		card.Multiplier = c.shrinkMultiplier(card.Multiplier)
		card.NextDueAt = now.Add(c.WrongAnswerDelay)
	}
	card.LastTestedAt = now
	return card
}
