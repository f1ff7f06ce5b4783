package stores

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnishi/wordstudy/internal/deck"
)

type fakeNower struct{ now time.Time }

func (f *fakeNower) Now() time.Time { return f.now }

func buildDeck(t *testing.T) (*deck.Deck, *fakeNower) {
	t.Helper()
	nower := &fakeNower{now: time.Date(2024, 9, 22, 15, 0, 0, 0, time.UTC)}
	d, err := deck.New(deck.DefaultSchedulerConfig(), nower)
	require.NoError(t, err)
	for id := int64(1); id <= 5; id++ {
		_, err := d.Insert(id, int(id%3)+2, deck.HintDefault)
		require.NoError(t, err)
	}
	for id := int64(1); id <= 2; id++ {
		_, err := d.RecordAnswer(id, id == 1, 1500*time.Millisecond, false)
		require.NoError(t, err)
		nower.now = nower.now.Add(3 * time.Hour)
	}
	return d, nower
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	d, nower := buildDeck(t)

	store, err := Open(filepath.Join(t.TempDir(), "deck.db"))
	require.NoError(t, err)
	defer store.Close()

	snap := d.Snapshot()
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	restored, err := deck.Restore(d.Config(), nower, loaded)
	require.NoError(t, err)
	assert.Equal(t, d.NextQueued(-1), restored.NextQueued(-1))
	assert.Equal(t, d.Summary(), restored.Summary())
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	d, _ := buildDeck(t)

	store, err := Open(filepath.Join(t.TempDir(), "deck.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, d.Snapshot()))

	// Mutate and save again; the old rows must be gone.
	require.NoError(t, d.RemoveQueuedItems(d.NextQueued(-1)))
	require.NoError(t, store.Save(ctx, d.Snapshot()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Cards, 2)
	assert.Empty(t, loaded.QueueOrder)
}

// Spacing arithmetic produces fractional-second due times once the
// multiplier has grown; the store must not truncate them.
func TestSaveLoadKeepsSubsecondTimestamps(t *testing.T) {
	ctx := context.Background()
	nower := &fakeNower{now: time.Date(2024, 9, 22, 15, 0, 0, 0, time.UTC)}
	d, err := deck.New(deck.DefaultSchedulerConfig(), nower)
	require.NoError(t, err)

	last := time.Date(2024, 9, 20, 10, 30, 12, 123456789, time.UTC)
	require.NoError(t, d.AdoptCard(deck.Card{
		ID: 1, Status: deck.Tested, Level: 2, Multiplier: 2.32,
		LastTestedAt: last,
		NextDueAt:    last.Add(129*time.Hour + 537*time.Millisecond),
		Priority:     deck.DefaultPriority,
	}))

	store, err := Open(filepath.Join(t.TempDir(), "deck.db"))
	require.NoError(t, err)
	defer store.Close()

	snap := d.Snapshot()
	require.NoError(t, store.Save(ctx, snap))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestLoadEmptyStore(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "deck.db"))
	require.NoError(t, err)
	defer store.Close()

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Cards)
	assert.Empty(t, snap.DayStats)

	d, err := deck.Restore(deck.DefaultSchedulerConfig(), nil, snap)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Summary().StudySize)
}

// A snapshot that was tampered with on disk fails the deck's
// validation on restore; the store itself does not repair anything.
func TestTamperedSnapshotRejectedOnRestore(t *testing.T) {
	ctx := context.Background()
	d, nower := buildDeck(t)

	store, err := Open(filepath.Join(t.TempDir(), "deck.db"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(ctx, d.Snapshot()))

	_, err = store.db.ExecContext(ctx, "UPDATE cards SET level = -4 WHERE id = 1")
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	_, err = deck.Restore(d.Config(), nower, loaded)
	assert.True(t, errors.Is(err, deck.ErrCorruptSnapshot))

	// An impossible statistics row is likewise fatal to the load.
	_, err = store.db.ExecContext(ctx, "UPDATE cards SET level = 1 WHERE id = 1")
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, "UPDATE day_stats SET test_learned = test_count + 5")
	require.NoError(t, err)
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	_, err = deck.Restore(d.Config(), nower, loaded)
	assert.True(t, errors.Is(err, deck.ErrCorruptSnapshot))
}
