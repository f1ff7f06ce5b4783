package deck

import (
	"fmt"
	"sort"
)

// cardStore owns every card record plus the draw order of the queue.
// Cards are addressed by their stable dictionary id only; nothing in
// the deck compares addresses. Mutation goes through the deck facade,
// which holds the lock and keeps the store and the day statistics in
// step.
type cardStore struct {
	cards map[int64]*Card
	// queue holds the ids of Queued cards. It is kept sorted by
	// (priority, insertion sequence); reorder restores the sort after
	// a priority change.
	queue   []int64
	nextSeq int64
}

func newCardStore() *cardStore {
	return &cardStore{cards: make(map[int64]*Card)}
}

func (s *cardStore) get(id int64) (*Card, bool) {
	c, ok := s.cards[id]
	return c, ok
}

// insert creates a Queued card. The new card goes to the back of its
// priority band.
func (s *cardStore) insert(id int64, priority int, hint Hint) (*Card, error) {
	if _, ok := s.cards[id]; ok {
		return nil, fmt.Errorf("%w: id %d", ErrDuplicateCard, id)
	}
	if priority < MinPriority || priority > MaxPriority {
		return nil, fmt.Errorf("priority %d out of range [%d, %d]", priority, MinPriority, MaxPriority)
	}
	c := &Card{
		ID:       id,
		Status:   Queued,
		Priority: priority,
		Hint:     hint,
		seq:      s.nextSeq,
	}
	s.nextSeq++
	s.cards[id] = c
	s.queue = append(s.queue, id)
	s.reorder()
	return c, nil
}

// remove deletes a card regardless of status.
func (s *cardStore) remove(id int64) error {
	c, ok := s.cards[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownCard, id)
	}
	if c.Status == Queued {
		s.dequeue(id)
	}
	delete(s.cards, id)
	return nil
}

func (s *cardStore) dequeue(id int64) {
	for i := range s.queue {
		if s.queue[i] == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// promote moves a queued card out of the queue into the studied set.
func (s *cardStore) promote(id int64) {
	s.dequeue(id)
}

// requeue puts an existing card back into the queue. The caller has
// already reset its study fields.
func (s *cardStore) requeue(id int64) {
	s.queue = append(s.queue, id)
	s.reorder()
}

func (s *cardStore) reorder() {
	sort.SliceStable(s.queue, func(i, j int) bool {
		a, b := s.cards[s.queue[i]], s.cards[s.queue[j]]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.seq < b.seq
	})
}

// queuedIDs returns the queue in draw order.
func (s *cardStore) queuedIDs() []int64 {
	out := make([]int64, len(s.queue))
	copy(out, s.queue)
	return out
}

func (s *cardStore) len() int {
	return len(s.cards)
}
