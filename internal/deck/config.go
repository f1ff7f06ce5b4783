package deck

import (
	"fmt"
	"time"
)

// FailurePolicy decides what happens to a card's level on a wrong
// answer.
type FailurePolicy int

const (
	// FailureReset drops the level back to zero.
	FailureReset FailurePolicy = iota
	// FailureStepDown subtracts FailureLevelDrop, clamped at zero.
	FailureStepDown
)

// SchedulerConfig carries every tunable the scheduling formulas use.
// It is passed explicitly into the deck; nothing reads ambient global
// settings.
type SchedulerConfig struct {
	// DayStartHour shifts the study-day boundary away from midnight.
	DayStartHour int
	// BaseInterval is the spacing at level zero.
	BaseInterval time.Duration
	// MaxInterval caps the spacing so it can never grow effectively
	// infinite.
	MaxInterval time.Duration
	// InitialMultiplier is assigned when a queued card is first
	// answered.
	InitialMultiplier float64
	// MultiplierFloor and MultiplierCeiling bound the multiplier for
	// the whole life of a card. Multipliers compound over thousands
	// of reviews, so the bounds are enforced with saturating clamps.
	MultiplierFloor   float64
	MultiplierCeiling float64
	// MultiplierGrowth is the raw growth factor applied on a correct
	// answer; the applied growth shrinks as the level rises.
	MultiplierGrowth float64
	// MultiplierShrink is applied on a wrong answer.
	MultiplierShrink float64
	// WrongAnswerDelay reschedules a failed card for a short re-test
	// instead of a full spacing interval.
	WrongAnswerDelay time.Duration
	// FailurePolicy and FailureLevelDrop configure the level penalty
	// for a wrong answer.
	FailurePolicy    FailurePolicy
	FailureLevelDrop int
	// LearnedLevel is the level at which a card counts as learned in
	// the day statistics.
	LearnedLevel int
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		DayStartHour:      4,
		BaseInterval:      24 * time.Hour,
		MaxInterval:       365 * 24 * time.Hour,
		InitialMultiplier: 2.0,
		MultiplierFloor:   1.1,
		MultiplierCeiling: 4.0,
		MultiplierGrowth:  1.2,
		MultiplierShrink:  0.8,
		WrongAnswerDelay:  10 * time.Minute,
		FailurePolicy:     FailureReset,
		FailureLevelDrop:  2,
		LearnedLevel:      7,
	}
}

func (c SchedulerConfig) Validate() error {
	if c.DayStartHour < 0 || c.DayStartHour > 12 {
		return fmt.Errorf("day start hour %d out of range", c.DayStartHour)
	}
	if c.BaseInterval <= 0 || c.MaxInterval < c.BaseInterval {
		return fmt.Errorf("bad interval bounds: base %v max %v", c.BaseInterval, c.MaxInterval)
	}
	if c.MultiplierFloor < 1.0 || c.MultiplierCeiling < c.MultiplierFloor {
		return fmt.Errorf("bad multiplier bounds: floor %v ceiling %v", c.MultiplierFloor, c.MultiplierCeiling)
	}
	if c.InitialMultiplier < c.MultiplierFloor || c.InitialMultiplier > c.MultiplierCeiling {
		return fmt.Errorf("initial multiplier %v outside bounds", c.InitialMultiplier)
	}
	if c.MultiplierGrowth < 1.0 {
		return fmt.Errorf("multiplier growth %v below 1", c.MultiplierGrowth)
	}
	if c.MultiplierShrink <= 0 || c.MultiplierShrink > 1.0 {
		return fmt.Errorf("multiplier shrink %v outside (0, 1]", c.MultiplierShrink)
	}
	if c.WrongAnswerDelay <= 0 {
		return fmt.Errorf("wrong answer delay %v not positive", c.WrongAnswerDelay)
	}
	if c.FailureLevelDrop < 0 {
		return fmt.Errorf("failure level drop %d negative", c.FailureLevelDrop)
	}
	if c.LearnedLevel < 1 {
		return fmt.Errorf("learned level %d below 1", c.LearnedLevel)
	}
	return nil
}
