package deck

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Observer receives synchronous notifications after a mutation has
// committed. Callbacks run outside the deck lock, at the quiescent
// point where autosave is also safe.
type Observer interface {
	CardsChanged(ids []int64)
	QueueChanged()
	StatsChanged()
}

// Deck is the aggregate root: card store, queue, day statistics and
// the scheduler operating over them. All mutating operations run to
// completion under a single writer lock so the store and the ledger
// can never be observed half-updated.
type Deck struct {
	mu       sync.RWMutex
	cfg      SchedulerConfig
	nower    Nower
	store    *cardStore
	stats    statsLedger
	observer Observer
}

func New(cfg SchedulerConfig, nower Nower) (*Deck, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scheduler config: %w", err)
	}
	if nower == nil {
		nower = RealNower{}
	}
	return &Deck{cfg: cfg, nower: nower, store: newCardStore()}, nil
}

func (d *Deck) Config() SchedulerConfig {
	return d.cfg
}

// SetObserver attaches the notification target; nil detaches it.
func (d *Deck) SetObserver(o Observer) {
	d.mu.Lock()
	d.observer = o
	d.mu.Unlock()
}

// notify* run after the write lock is released; they re-read the
// observer so a concurrent SetObserver is safe.
func (d *Deck) currentObserver() Observer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.observer
}

func (d *Deck) notifyCards(ids []int64) {
	if o := d.currentObserver(); o != nil && len(ids) > 0 {
		o.CardsChanged(ids)
	}
}

func (d *Deck) notifyQueue() {
	if o := d.currentObserver(); o != nil {
		o.QueueChanged()
	}
}

func (d *Deck) notifyStats() {
	if o := d.currentObserver(); o != nil {
		o.StatsChanged()
	}
}

func (d *Deck) studyDay(t time.Time) time.Time {
	return StudyDay(t, d.cfg.DayStartHour)
}

// Get returns a copy of the card record for id.
func (d *Deck) Get(id int64) (Card, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.store.get(id)
	if !ok {
		return Card{}, false
	}
	return *c, true
}

// Insert puts a new item into the study queue.
func (d *Deck) Insert(id int64, priority int, hint Hint) (Card, error) {
	d.mu.Lock()
	c, err := d.store.insert(id, priority, hint)
	if err != nil {
		d.mu.Unlock()
		return Card{}, err
	}
	out := *c
	d.mu.Unlock()
	log.Debug().Int64("card", id).Int("priority", priority).Msg("card-queued")
	d.notifyQueue()
	return out, nil
}

// AdoptCard inserts a card that already carries study state, for
// importers converting history from another scheduler. The record
// must satisfy the same invariants a snapshot load enforces. The card
// enters today's item watermark just like a queue promotion, so a
// later removal rolls it back out cleanly.
func (d *Deck) AdoptCard(c Card) error {
	if c.Status == Queued {
		return fmt.Errorf("adopt card %d: queued items go through Insert", c.ID)
	}
	if err := c.validate(d.cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	d.mu.Lock()
	if _, ok := d.store.get(c.ID); ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: id %d", ErrDuplicateCard, c.ID)
	}
	stat, err := d.stats.today(d.studyDay(d.nower.Now()))
	if err != nil {
		d.mu.Unlock()
		return err
	}
	stat.ItemCount++
	if c.Level >= d.cfg.LearnedLevel {
		stat.ItemLearned++
	}
	c.seq = d.store.nextSeq
	d.store.nextSeq++
	stored := c
	d.store.cards[c.ID] = &stored
	d.mu.Unlock()
	d.notifyCards([]int64{c.ID})
	d.notifyStats()
	return nil
}

// RecordAnswer applies one test event. A queued card is promoted to
// Studied on its first answer; a Tested card must be due unless force
// is set (the manual override path). The card and today's statistics
// row are updated together or not at all.
func (d *Deck) RecordAnswer(id int64, correct bool, answerTime time.Duration, force bool) (Card, error) {
	d.mu.Lock()
	c, ok := d.store.get(id)
	if !ok {
		d.mu.Unlock()
		return Card{}, fmt.Errorf("%w: id %d", ErrUnknownCard, id)
	}
	now := d.nower.Now()
	if c.Status == Tested && now.Before(c.NextDueAt) && !force {
		d.mu.Unlock()
		return Card{}, fmt.Errorf("%w: id %d due %s", ErrNotDue, id, c.NextDueAt.Format(time.RFC3339))
	}

	stat, err := d.stats.today(d.studyDay(now))
	if err != nil {
		d.mu.Unlock()
		return Card{}, err
	}

	wasQueued := c.Status == Queued
	wasLearned := !wasQueued && c.Level >= d.cfg.LearnedLevel
	if wasQueued {
		d.store.promote(id)
		c.Status = Studied
		c.Level = 0
		c.Multiplier = d.cfg.InitialMultiplier
		stat.ItemCount++
	} else {
		c.Status = Tested
	}

	*c = d.cfg.applyAnswer(*c, correct, now)

	learned := c.Level >= d.cfg.LearnedLevel
	stat.TestCount++
	if !correct {
		stat.TestWrong++
	} else if learned {
		stat.TestLearned++
	}
	if learned && !wasLearned {
		stat.ItemLearned++
	} else if !learned && wasLearned {
		stat.ItemLearned--
	}
	if answerTime > 0 {
		stat.TimeSpentMs += answerTime.Milliseconds()
	}

	out := *c
	d.mu.Unlock()

	log.Info().Int64("card", id).Bool("correct", correct).
		Int("level", out.Level).Float64("multiplier", out.Multiplier).
		Time("next-due", out.NextDueAt).Msg("card-scored")
	if wasQueued {
		d.notifyQueue()
	}
	d.notifyCards([]int64{id})
	d.notifyStats()
	return out, nil
}

// IncreaseSpacingLevel is a manual operator override: the level moves
// up one step and the due date is recomputed from the last test, with
// no test event recorded.
func (d *Deck) IncreaseSpacingLevel(id int64) (Card, error) {
	return d.adjustLevel(id, 1)
}

// DecreaseSpacingLevel steps the level down, clamped at zero.
func (d *Deck) DecreaseSpacingLevel(id int64) (Card, error) {
	return d.adjustLevel(id, -1)
}

func (d *Deck) adjustLevel(id int64, delta int) (Card, error) {
	d.mu.Lock()
	c, ok := d.store.get(id)
	if !ok {
		d.mu.Unlock()
		return Card{}, fmt.Errorf("%w: id %d", ErrUnknownCard, id)
	}
	if c.Status == Queued {
		d.mu.Unlock()
		return Card{}, fmt.Errorf("%w: id %d has no spacing yet", ErrNotDue, id)
	}
	c.Level += delta
	if c.Level < 0 {
		c.Level = 0
	}
	c.NextDueAt = c.LastTestedAt.Add(d.cfg.SpacingInterval(c.Level, c.Multiplier))
	out := *c
	d.mu.Unlock()
	log.Debug().Int64("card", id).Int("level", out.Level).Msg("level-adjusted")
	d.notifyCards([]int64{id})
	return out, nil
}

// SetQueuedPriority changes the draw order for cards still in the
// queue. The whole id list is validated before anything moves.
func (d *Deck) SetQueuedPriority(ids []int64, priority int) error {
	if priority < MinPriority || priority > MaxPriority {
		return fmt.Errorf("priority %d out of range [%d, %d]", priority, MinPriority, MaxPriority)
	}
	d.mu.Lock()
	cards, err := d.resolveAll(ids, func(c *Card) error {
		if c.Status != Queued {
			return fmt.Errorf("%w: id %d", ErrNotQueued, c.ID)
		}
		return nil
	})
	if err != nil {
		d.mu.Unlock()
		return err
	}
	for _, c := range cards {
		c.Priority = priority
	}
	d.store.reorder()
	d.mu.Unlock()
	d.notifyQueue()
	return nil
}

// SetItemHints overrides the prompt part for the given cards.
func (d *Deck) SetItemHints(ids []int64, hint Hint) error {
	d.mu.Lock()
	cards, err := d.resolveAll(ids, nil)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	for _, c := range cards {
		c.Hint = hint
	}
	d.mu.Unlock()
	d.notifyCards(ids)
	return nil
}

// RequeueStudiedItems wipes the study history of the given cards and
// re-inserts them at the back of the queue, indistinguishable from
// never-studied items.
func (d *Deck) RequeueStudiedItems(ids []int64) error {
	d.mu.Lock()
	cards, err := d.resolveAll(ids, func(c *Card) error {
		if c.Status == Queued {
			return fmt.Errorf("%w: id %d is already queued", ErrNotStudied, c.ID)
		}
		return nil
	})
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if err := d.retireFromStats(cards); err != nil {
		d.mu.Unlock()
		return err
	}
	for _, c := range cards {
		c.Status = Queued
		c.Level = 0
		c.Multiplier = 0
		c.LastTestedAt = time.Time{}
		c.NextDueAt = time.Time{}
		c.Priority = DefaultPriority
		c.seq = d.store.nextSeq
		d.store.nextSeq++
		d.store.requeue(c.ID)
	}
	d.mu.Unlock()
	log.Debug().Int("count", len(ids)).Msg("cards-requeued")
	d.notifyQueue()
	d.notifyCards(ids)
	d.notifyStats()
	return nil
}

// RemoveStudiedItems deletes cards that have left the queue. Today's
// item watermark shrinks accordingly; history stays untouched.
func (d *Deck) RemoveStudiedItems(ids []int64) error {
	return d.removeCards(ids, false)
}

// RemoveQueuedItems deletes cards that were never studied.
func (d *Deck) RemoveQueuedItems(ids []int64) error {
	return d.removeCards(ids, true)
}

func (d *Deck) removeCards(ids []int64, queued bool) error {
	d.mu.Lock()
	cards, err := d.resolveAll(ids, func(c *Card) error {
		if queued && c.Status != Queued {
			return fmt.Errorf("%w: id %d", ErrNotQueued, c.ID)
		}
		if !queued && c.Status == Queued {
			return fmt.Errorf("%w: id %d is still queued", ErrNotStudied, c.ID)
		}
		return nil
	})
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if !queued {
		if err := d.retireFromStats(cards); err != nil {
			d.mu.Unlock()
			return err
		}
	}
	for _, c := range cards {
		// resolveAll already proved existence.
		_ = d.store.remove(c.ID)
	}
	d.mu.Unlock()
	log.Debug().Int("count", len(ids)).Bool("queued", queued).Msg("cards-removed")
	d.notifyQueue()
	d.notifyCards(ids)
	if !queued {
		d.notifyStats()
	}
	return nil
}

// ResetCardStudyData returns cards to their initial Queued state in
// place: queued cards keep their queue slot, studied cards re-enter
// the queue keeping their priority.
func (d *Deck) ResetCardStudyData(ids []int64) error {
	d.mu.Lock()
	cards, err := d.resolveAll(ids, nil)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	var studied []*Card
	for _, c := range cards {
		if c.Status != Queued {
			studied = append(studied, c)
		}
	}
	if err := d.retireFromStats(studied); err != nil {
		d.mu.Unlock()
		return err
	}
	for _, c := range cards {
		wasStudied := c.Status != Queued
		c.Status = Queued
		c.Level = 0
		c.Multiplier = 0
		c.LastTestedAt = time.Time{}
		c.NextDueAt = time.Time{}
		if wasStudied {
			c.seq = d.store.nextSeq
			d.store.nextSeq++
			d.store.requeue(c.ID)
		}
	}
	d.mu.Unlock()
	log.Debug().Int("count", len(ids)).Msg("cards-reset")
	d.notifyQueue()
	d.notifyCards(ids)
	d.notifyStats()
	return nil
}

// retireFromStats rolls the given studied cards out of today's item
// watermark. Caller holds the lock.
func (d *Deck) retireFromStats(cards []*Card) error {
	if len(cards) == 0 {
		return nil
	}
	stat, err := d.stats.today(d.studyDay(d.nower.Now()))
	if err != nil {
		return err
	}
	for _, c := range cards {
		stat.ItemCount--
		if c.Level >= d.cfg.LearnedLevel {
			stat.ItemLearned--
		}
	}
	return nil
}

// resolveAll looks up every id and runs the optional check on each,
// failing without side effects if any id is missing or rejected.
func (d *Deck) resolveAll(ids []int64, check func(*Card) error) ([]*Card, error) {
	cards := make([]*Card, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("duplicate id %d in operation", id)
		}
		seen[id] = true
		c, ok := d.store.get(id)
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownCard, id)
		}
		if check != nil {
			if err := check(c); err != nil {
				return nil, err
			}
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// DueItems returns the ids of every studied card whose due time has
// arrived, ordered by due time then id. Two calls without a mutation
// in between return identical results.
func (d *Deck) DueItems() []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	now := d.nower.Now()
	type due struct {
		id int64
		at time.Time
	}
	var dues []due
	for id, c := range d.store.cards {
		if c.Status == Queued || c.NextDueAt.After(now) {
			continue
		}
		dues = append(dues, due{id, c.NextDueAt})
	}
	sort.Slice(dues, func(i, j int) bool {
		if !dues[i].at.Equal(dues[j].at) {
			return dues[i].at.Before(dues[j].at)
		}
		return dues[i].id < dues[j].id
	})
	out := make([]int64, len(dues))
	for i := range dues {
		out[i] = dues[i].id
	}
	return out
}

// NextQueued returns up to max queued ids in draw order: priority
// first (1 is drawn earliest), then insertion order.
func (d *Deck) NextQueued(max int) []int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := d.store.queuedIDs()
	if max >= 0 && len(ids) > max {
		ids = ids[:max]
	}
	return ids
}

// LevelCounts returns a histogram of spacing levels over the studied
// cards, for the levels chart.
func (d *Deck) LevelCounts() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	counts := make([]int, 12)
	for _, c := range d.store.cards {
		if c.Status == Queued {
			continue
		}
		for c.Level >= len(counts) {
			counts = append(counts, 0)
		}
		counts[c.Level]++
	}
	return counts
}

// DayStats returns a copy of the full ledger, ascending by day.
func (d *Deck) DayStats() []DayStat {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats.all()
}

// FindDayStat looks up one day; ok is false for gap days, which the
// caller treats as all zeroes.
func (d *Deck) FindDayStat(day time.Time) (DayStat, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats.find(day)
}

// Summary holds the aggregate figures the study-list window shows.
type Summary struct {
	DueSize   int
	QueueSize int
	StudySize int
	// FirstDay and LastDay bound the recorded history; zero when the
	// deck has never been tested.
	FirstDay time.Time
	LastDay  time.Time
	// TestDayCount is the number of days with at least one test;
	// SkippedDayCount the gap days in between.
	TestDayCount    int
	SkippedDayCount int
	TotalTimeMs     int64
	// StudyAverageMs is per test day, AnswerAverageMs per answer.
	StudyAverageMs  int64
	AnswerAverageMs int64
}

func (d *Deck) Summary() Summary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var s Summary
	now := d.nower.Now()
	for _, c := range d.store.cards {
		if c.Status == Queued {
			s.QueueSize++
			continue
		}
		s.StudySize++
		if !c.NextDueAt.After(now) {
			s.DueSize++
		}
	}
	var answers int
	for i := 0; i != d.stats.size(); i++ {
		st := d.stats.at(i)
		if st.TestCount == 0 {
			continue
		}
		if s.TestDayCount == 0 {
			s.FirstDay = st.Day
		}
		s.LastDay = st.Day
		s.TestDayCount++
		s.TotalTimeMs += st.TimeSpentMs
		answers += st.TestCount
	}
	if s.TestDayCount > 0 {
		s.SkippedDayCount = DaysBetween(s.FirstDay, s.LastDay) + 1 - s.TestDayCount
		s.StudyAverageMs = s.TotalTimeMs / int64(s.TestDayCount)
	}
	if answers > 0 {
		s.AnswerAverageMs = s.TotalTimeMs / int64(answers)
	}
	return s
}
