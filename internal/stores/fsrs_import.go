package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/open-spaced-repetition/go-fsrs/v3"
	"github.com/rs/zerolog/log"

	"github.com/mnishi/wordstudy/internal/deck"
)

// ImportFSRS reads an FSRS collection database (a cards table of
// word_id, fsrs_card JSON and next_scheduled, the layout used by
// FSRS-based vault exports) and inserts each entry into the deck as a
// level/multiplier card. Returns the number imported and the word ids
// that could not be converted.
//
// The conversion is heuristic in the same spirit as cardbox imports:
// the FSRS stability is the best available proxy for the current
// spacing interval, so the level is recovered by inverting
// base * multiplier^level, and the FSRS difficulty (1 easy .. 10
// hard) maps linearly onto the multiplier range with hard cards
// getting the slower multipliers.
func ImportFSRS(ctx context.Context, d *deck.Deck, sqliteFilename string) (int, []int64, error) {
	src, err := sql.Open("sqlite3", sqliteFilename)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open FSRS database: %w", err)
	}
	defer src.Close()

	rows, err := src.QueryContext(ctx, `
        SELECT word_id, fsrs_card, next_scheduled FROM cards`)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to fetch cards from FSRS database: %w", err)
	}
	defer rows.Close()

	cfg := d.Config()
	imported := 0
	var unimported []int64

	for rows.Next() {
		var (
			wordID        int64
			cardJSON      []byte
			nextScheduled sql.NullInt64
		)
		if err := rows.Scan(&wordID, &cardJSON, &nextScheduled); err != nil {
			return imported, unimported, fmt.Errorf("failed to scan card: %w", err)
		}

		var fcard fsrs.Card
		if err := json.Unmarshal(cardJSON, &fcard); err != nil {
			log.Info().Int64("wordID", wordID).Msg("did not import, bad card json")
			unimported = append(unimported, wordID)
			continue
		}

		if fcard.State == fsrs.New {
			// Never reviewed: straight into the queue.
			if _, err := d.Insert(wordID, deck.DefaultPriority, deck.HintDefault); err != nil {
				log.Info().Int64("wordID", wordID).Err(err).Msg("did-not-import")
				unimported = append(unimported, wordID)
				continue
			}
			imported++
			continue
		}

		card := convertFSRSCard(cfg, wordID, fcard, nextScheduled)
		if err := d.AdoptCard(card); err != nil {
			log.Info().Int64("wordID", wordID).Err(err).Msg("did-not-import")
			unimported = append(unimported, wordID)
			continue
		}
		imported++
	}
	if err := rows.Err(); err != nil {
		return imported, unimported, fmt.Errorf("failed to iterate cards: %w", err)
	}
	log.Info().Int("imported", imported).Int("skipped", len(unimported)).Msg("fsrs-import-done")
	return imported, unimported, nil
}

func convertFSRSCard(cfg deck.SchedulerConfig, wordID int64, fcard fsrs.Card, nextScheduled sql.NullInt64) deck.Card {
	// Difficulty 1..10 onto [ceiling..floor]: an easy card grows its
	// spacing fast, a hard one slowly.
	difficulty := math.Min(math.Max(fcard.Difficulty, 1), 10)
	multiplier := cfg.MultiplierCeiling -
		(difficulty-1)/9*(cfg.MultiplierCeiling-cfg.MultiplierFloor)

	// Stability is measured in days and approximates the current
	// interval; invert interval = base * multiplier^level.
	level := 0
	if fcard.Stability > 0 && multiplier > 1 {
		ivl := fcard.Stability * 24 * float64(time.Hour)
		if ivl > float64(cfg.BaseInterval) {
			level = int(math.Round(math.Log(ivl/float64(cfg.BaseInterval)) / math.Log(multiplier)))
		}
	}
	if level < 0 {
		level = 0
	}

	lastTested := fcard.LastReview.UTC()
	if lastTested.IsZero() || lastTested.Unix() == 0 {
		lastTested = time.Now().UTC()
	}
	nextDue := fcard.Due.UTC()
	if nextScheduled.Valid && nextScheduled.Int64 > 0 {
		nextDue = time.Unix(nextScheduled.Int64, 0).UTC()
	}
	if nextDue.Before(lastTested) {
		nextDue = lastTested.Add(cfg.SpacingInterval(level, multiplier))
	}

	return deck.Card{
		ID:           wordID,
		Status:       deck.Tested,
		Level:        level,
		Multiplier:   multiplier,
		LastTestedAt: lastTested,
		NextDueAt:    nextDue,
		Priority:     deck.DefaultPriority,
		Hint:         deck.HintDefault,
	}
}
