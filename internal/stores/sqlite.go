// Package stores persists deck snapshots to a local SQLite file and
// imports study state from foreign collections. The deck itself owns
// all structural validation; this layer only moves bytes and reports
// load failures instead of repairing them.
package stores

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/mnishi/wordstudy/internal/deck"
)

// SnapshotStore saves and loads full deck snapshots. Saving rewrites
// the whole snapshot in one transaction, so it must only be called at
// a quiescent point (between deck operations), never concurrently
// with one.
type SnapshotStore struct {
	db *sql.DB
}

func Open(filename string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to deck database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save writes the snapshot, replacing whatever was stored before.
func (s *SnapshotStore) Save(ctx context.Context, snap *deck.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"cards", "day_stats"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	queuePos := make(map[int64]int, len(snap.QueueOrder))
	for i, id := range snap.QueueOrder {
		queuePos[id] = i
	}
	for _, c := range snap.Cards {
		// Spacing intervals carry sub-second precision once the
		// multiplier has grown, so timestamps round-trip as nanos.
		var lastTested, nextDue, pos any
		if !c.LastTestedAt.IsZero() {
			lastTested = c.LastTestedAt.UnixNano()
		}
		if !c.NextDueAt.IsZero() {
			nextDue = c.NextDueAt.UnixNano()
		}
		if p, ok := queuePos[c.ID]; ok {
			pos = p
		}
		_, err := tx.ExecContext(ctx, `
            INSERT INTO cards (id, status, level, multiplier, last_tested, next_due, priority, hint, queue_pos)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, int(c.Status), c.Level, c.Multiplier, lastTested, nextDue,
			c.Priority, int(c.Hint), pos)
		if err != nil {
			return fmt.Errorf("failed to insert card %d: %w", c.ID, err)
		}
	}
	for _, st := range snap.DayStats {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO day_stats (day, item_count, item_learned, test_count, test_learned, test_wrong, time_spent_ms)
            VALUES (?, ?, ?, ?, ?, ?, ?)`,
			st.Day.Unix(), st.ItemCount, st.ItemLearned, st.TestCount,
			st.TestLearned, st.TestWrong, st.TimeSpentMs)
		if err != nil {
			return fmt.Errorf("failed to insert day stat: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
        INSERT INTO deck_info (key, value) VALUES ('schema_version', ?), ('saved_at', ?)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		schemaVersion, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write deck info: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	log.Debug().Int("cards", len(snap.Cards)).Int("days", len(snap.DayStats)).Msg("snapshot-saved")
	return nil
}

// Load reads the stored snapshot. Structural validation happens in
// deck.Restore; Load only reconstructs the snapshot as stored.
func (s *SnapshotStore) Load(ctx context.Context) (*deck.Snapshot, error) {
	snap := &deck.Snapshot{}

	rows, err := s.db.QueryContext(ctx, `
        SELECT id, status, level, multiplier, last_tested, next_due, priority, hint, queue_pos
        FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}
	defer rows.Close()

	type queued struct {
		id  int64
		pos int
	}
	var queue []queued
	for rows.Next() {
		var (
			c                   deck.Card
			status, hint        int
			lastTested, nextDue sql.NullInt64
			pos                 sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &status, &c.Level, &c.Multiplier,
			&lastTested, &nextDue, &c.Priority, &hint, &pos); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		c.Status = deck.CardStatus(status)
		c.Hint = deck.Hint(hint)
		if lastTested.Valid {
			c.LastTestedAt = time.Unix(0, lastTested.Int64).UTC()
		}
		if nextDue.Valid {
			c.NextDueAt = time.Unix(0, nextDue.Int64).UTC()
		}
		if pos.Valid {
			queue = append(queue, queued{c.ID, int(pos.Int64)})
		}
		snap.Cards = append(snap.Cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i].pos < queue[j].pos })
	for _, q := range queue {
		snap.QueueOrder = append(snap.QueueOrder, q.id)
	}

	srows, err := s.db.QueryContext(ctx, `
        SELECT day, item_count, item_learned, test_count, test_learned, test_wrong, time_spent_ms
        FROM day_stats ORDER BY day`)
	if err != nil {
		return nil, fmt.Errorf("failed to read day stats: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var (
			st      deck.DayStat
			dayUnix int64
		)
		if err := srows.Scan(&dayUnix, &st.ItemCount, &st.ItemLearned,
			&st.TestCount, &st.TestLearned, &st.TestWrong, &st.TimeSpentMs); err != nil {
			return nil, fmt.Errorf("failed to scan day stat: %w", err)
		}
		st.Day = time.Unix(dayUnix, 0).UTC()
		snap.DayStats = append(snap.DayStats, st)
	}
	if err := srows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate day stats: %w", err)
	}
	return snap, nil
}
