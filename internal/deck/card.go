package deck

import (
	"fmt"
	"time"
)

// CardStatus is the lifecycle stage of a card.
type CardStatus int

const (
	// Queued cards wait to be drawn into a session for the first time.
	Queued CardStatus = iota
	// Studied cards have been answered at least once.
	Studied
	// Tested is the steady state after the first full round.
	Tested
)

func (s CardStatus) String() string {
	switch s {
	case Queued:
		return "queued"
	case Studied:
		return "studied"
	case Tested:
		return "tested"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Hint selects which part of a word is shown as the question prompt.
type Hint int

const (
	// HintDefault defers to the deck-wide setting.
	HintDefault Hint = iota
	HintWritten
	HintKana
	HintDefinition
)

const (
	MinPriority     = 1
	MaxPriority     = 9
	DefaultPriority = 5
)

// Card is the per-vocabulary-item study record. The id is an index
// into the owning dictionary's word list; the deck never copies word
// content. Level and Multiplier are only changed through scheduler
// operations.
type Card struct {
	ID           int64
	Status       CardStatus
	Level        int
	Multiplier   float64
	LastTestedAt time.Time // zero while Queued
	NextDueAt    time.Time // zero while Queued
	Priority     int
	Hint         Hint

	// seq is the insertion sequence, the queue tie-breaker.
	seq int64
}

// validate checks the structural invariants from the persisted-snapshot
// contract. cfg bounds the multiplier range for non-queued cards.
func (c *Card) validate(cfg SchedulerConfig) error {
	if c.Level < 0 {
		return fmt.Errorf("card %d: negative level %d", c.ID, c.Level)
	}
	if c.Priority < MinPriority || c.Priority > MaxPriority {
		return fmt.Errorf("card %d: priority %d out of range", c.ID, c.Priority)
	}
	switch c.Status {
	case Queued:
		if !c.LastTestedAt.IsZero() || !c.NextDueAt.IsZero() {
			return fmt.Errorf("card %d: queued card carries test timestamps", c.ID)
		}
	case Studied, Tested:
		if c.LastTestedAt.IsZero() || c.NextDueAt.IsZero() {
			return fmt.Errorf("card %d: %s card missing timestamps", c.ID, c.Status)
		}
		if c.Multiplier < cfg.MultiplierFloor || c.Multiplier > cfg.MultiplierCeiling {
			return fmt.Errorf("card %d: multiplier %v outside [%v, %v]",
				c.ID, c.Multiplier, cfg.MultiplierFloor, cfg.MultiplierCeiling)
		}
	default:
		return fmt.Errorf("card %d: unknown status %d", c.ID, int(c.Status))
	}
	return nil
}
