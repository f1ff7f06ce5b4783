package deck

import (
	"fmt"
	"sort"
)

// Snapshot is the full persisted state of a deck: every card, the
// queue draw order, and the complete day-statistics series. The
// persistence layer owns the storage format; the deck owns the
// structural contract and refuses to materialize from data that
// violates it.
type Snapshot struct {
	Cards []Card
	// QueueOrder lists the Queued card ids in draw order.
	QueueOrder []int64
	DayStats   []DayStat
}

// Snapshot copies the deck state at a quiescent point. Cards are
// ordered by id; queue order is carried separately.
func (d *Deck) Snapshot() *Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := &Snapshot{
		Cards:      make([]Card, 0, d.store.len()),
		QueueOrder: d.store.queuedIDs(),
		DayStats:   d.stats.all(),
	}
	for _, c := range d.store.cards {
		// The queue sequence is internal; QueueOrder carries the draw
		// order across the persistence boundary.
		copied := *c
		copied.seq = 0
		snap.Cards = append(snap.Cards, copied)
	}
	sort.Slice(snap.Cards, func(i, j int) bool { return snap.Cards[i].ID < snap.Cards[j].ID })
	return snap
}

// Restore materializes a deck from a persisted snapshot, validating
// every invariant first. Invalid data is rejected whole with
// ErrCorruptSnapshot (or ErrDayOutOfOrder for a misordered ledger);
// recovery belongs to the persistence layer, not here.
func Restore(cfg SchedulerConfig, nower Nower, snap *Snapshot) (*Deck, error) {
	d, err := New(cfg, nower)
	if err != nil {
		return nil, err
	}
	queued := make(map[int64]bool)
	for i := range snap.Cards {
		c := snap.Cards[i]
		if _, dup := d.store.cards[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate card id %d", ErrCorruptSnapshot, c.ID)
		}
		if err := c.validate(cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if c.Status == Queued {
			queued[c.ID] = true
		}
		stored := c
		d.store.cards[c.ID] = &stored
	}
	if len(snap.QueueOrder) != len(queued) {
		return nil, fmt.Errorf("%w: queue order lists %d ids, deck has %d queued cards",
			ErrCorruptSnapshot, len(snap.QueueOrder), len(queued))
	}
	seen := make(map[int64]bool, len(snap.QueueOrder))
	for i, id := range snap.QueueOrder {
		c, ok := d.store.cards[id]
		if !ok || c.Status != Queued {
			return nil, fmt.Errorf("%w: queue order references non-queued id %d", ErrCorruptSnapshot, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: id %d appears twice in queue order", ErrCorruptSnapshot, id)
		}
		seen[id] = true
		c.seq = int64(i) + 1
	}
	// Normalize seq so later inserts sort after everything restored.
	for _, c := range d.store.cards {
		if c.seq >= d.store.nextSeq {
			d.store.nextSeq = c.seq + 1
		}
	}
	d.store.queue = append([]int64(nil), snap.QueueOrder...)
	d.store.reorder()
	for _, st := range snap.DayStats {
		if err := d.stats.appendDay(st); err != nil {
			return nil, err
		}
	}
	return d, nil
}
