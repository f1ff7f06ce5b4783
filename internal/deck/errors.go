package deck

import "errors"

var (
	// ErrUnknownCard is returned when an operation references an id
	// that is not under study.
	ErrUnknownCard = errors.New("card not found in deck")
	// ErrDuplicateCard is returned when inserting an id that is
	// already under study.
	ErrDuplicateCard = errors.New("card already in deck")
	// ErrNotDue is returned when an answer is recorded for a card
	// that is not yet due and no override was requested.
	ErrNotDue = errors.New("card is not due")
	// ErrNotQueued is returned by queue operations that include a
	// card that has already left the queue.
	ErrNotQueued = errors.New("card is not queued")
	// ErrNotStudied is returned by studied-card operations that
	// include a card still sitting in the queue.
	ErrNotStudied = errors.New("card has not been studied")
	// ErrDayOutOfOrder is returned when a day-statistics write would
	// break the ascending-day invariant. During a snapshot load this
	// is fatal to the whole load.
	ErrDayOutOfOrder = errors.New("day statistics out of order")
	// ErrCorruptSnapshot is returned when persisted deck state fails
	// structural validation. The deck refuses to materialize rather
	// than guess-repair a user's study history.
	ErrCorruptSnapshot = errors.New("corrupt deck snapshot")
)
