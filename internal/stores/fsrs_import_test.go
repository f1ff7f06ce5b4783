package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/open-spaced-repetition/go-fsrs/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnishi/wordstudy/internal/deck"
)

func writeFSRSDatabase(t *testing.T, rows map[int64][]byte) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "vault.db")
	db, err := sql.Open("sqlite3", filename)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE cards (
        word_id INTEGER PRIMARY KEY,
        fsrs_card TEXT NOT NULL,
        next_scheduled INTEGER
    )`)
	require.NoError(t, err)
	for id, cardJSON := range rows {
		_, err := db.Exec("INSERT INTO cards (word_id, fsrs_card) VALUES (?, ?)", id, cardJSON)
		require.NoError(t, err)
	}
	return filename
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	bts, err := json.Marshal(v)
	require.NoError(t, err)
	return bts
}

func TestImportFSRS(t *testing.T) {
	ctx := context.Background()

	reviewed := fsrs.NewCard()
	reviewed.State = fsrs.Review
	reviewed.Stability = 64 // days
	reviewed.Difficulty = 5
	reviewed.LastReview = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	reviewed.Due = time.Date(2024, 11, 4, 12, 0, 0, 0, time.UTC)

	filename := writeFSRSDatabase(t, map[int64][]byte{
		10: mustMarshal(t, fsrs.NewCard()),
		20: mustMarshal(t, reviewed),
		30: []byte("{not json"),
	})

	d, err := deck.New(deck.DefaultSchedulerConfig(), nil)
	require.NoError(t, err)

	imported, unimported, err := ImportFSRS(ctx, d, filename)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, []int64{30}, unimported)

	// The never-reviewed card enters the queue.
	assert.Equal(t, []int64{10}, d.NextQueued(-1))

	// The reviewed card keeps its history: difficulty 5 sits mid-range,
	// and a 64-day stability lands at level 4 under the default spacing.
	card, ok := d.Get(20)
	require.True(t, ok)
	assert.Equal(t, deck.Tested, card.Status)
	assert.Equal(t, 4, card.Level)
	assert.InDelta(t, 2.71, card.Multiplier, 0.01)
	assert.Equal(t, reviewed.LastReview, card.LastTestedAt)
	assert.Equal(t, reviewed.Due, card.NextDueAt)

	// The adopted card entered the day ledger watermark; the queued one
	// did not. Removing it afterwards still yields a loadable snapshot.
	stats := d.DayStats()
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].ItemCount)
	require.NoError(t, d.RemoveStudiedItems([]int64{20}))
	_, err = deck.Restore(deck.DefaultSchedulerConfig(), nil, d.Snapshot())
	require.NoError(t, err)
}

func TestImportFSRSRejectsDuplicates(t *testing.T) {
	ctx := context.Background()

	filename := writeFSRSDatabase(t, map[int64][]byte{
		10: mustMarshal(t, fsrs.NewCard()),
	})

	d, err := deck.New(deck.DefaultSchedulerConfig(), nil)
	require.NoError(t, err)
	_, err = d.Insert(10, deck.DefaultPriority, deck.HintDefault)
	require.NoError(t, err)

	imported, unimported, err := ImportFSRS(ctx, d, filename)
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, []int64{10}, unimported)
}
