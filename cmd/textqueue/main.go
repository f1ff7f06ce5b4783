// textqueue reads a Japanese text file, tokenizes it, and queues every
// wordlist entry that appears in the text and is not in the deck yet.
// It is the bulk intake path: point it at something you want to read
// and the vocabulary shows up in the study queue.
package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/namsral/flag"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mnishi/wordstudy/internal/deck"
	"github.com/mnishi/wordstudy/internal/stores"
	"github.com/mnishi/wordstudy/internal/wordlist"
)

type Config struct {
	deckFile     string
	wordlistFile string
	textFile     string
	priority     int
	logLevel     string
}

// Load loads the configs from the given arguments
func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("textqueue", flag.ContinueOnError)

	fs.StringVar(&c.deckFile, "deck-file", "deck.db", "path to the deck snapshot database")
	fs.StringVar(&c.wordlistFile, "wordlist-file", "words.tsv", "path to the tab-separated wordlist")
	fs.StringVar(&c.textFile, "text-file", "", "Japanese text file to queue words from")
	fs.IntVar(&c.priority, "priority", deck.DefaultPriority, "queue priority for the new cards (1 drawn first)")
	fs.StringVar(&c.logLevel, "log-level", "info", "log level")
	return fs.Parse(args)
}

// baseForm is IPA dictionary feature index 6 (the lemma).
func baseForm(token tokenizer.Token) string {
	features := token.Features()
	if len(features) > 6 && features[6] != "*" {
		return features[6]
	}
	return token.Surface
}

// matchWords tokenizes text and resolves each token onto a wordlist
// id, surface form first, base form as fallback. Ids come back in
// first-appearance order.
func matchWords(t *tokenizer.Tokenizer, words *wordlist.List, text string) []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, token := range t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}
		id, ok := words.FindForm(token.Surface)
		if !ok {
			id, ok = words.FindForm(baseForm(token))
		}
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func main() {
	cfg := &Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if strings.ToLower(cfg.logLevel) == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.textFile == "" {
		log.Fatal().Msg("-text-file is required")
	}

	ctx := context.Background()

	text, err := os.ReadFile(cfg.textFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read text file")
	}
	words, err := wordlist.Load(cfg.wordlistFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load wordlist")
	}
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build tokenizer")
	}

	store, err := stores.Open(cfg.deckFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open deck database")
	}
	defer store.Close()
	snap, err := store.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load deck snapshot")
	}
	d, err := deck.Restore(deck.DefaultSchedulerConfig(), deck.RealNower{}, snap)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to restore deck")
	}

	queued := 0
	for _, id := range matchWords(t, words, string(text)) {
		_, err := d.Insert(id, cfg.priority, deck.HintDefault)
		if errors.Is(err, deck.ErrDuplicateCard) {
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Int64("wordID", id).Msg("failed to queue word")
		}
		queued++
		word, _ := words.Get(id)
		log.Debug().Int64("wordID", id).Str("written", word.Written).Msg("queued")
	}

	if err := store.Save(ctx, d.Snapshot()); err != nil {
		log.Fatal().Err(err).Msg("failed to save deck snapshot")
	}
	log.Info().Int("queued", queued).Int("queueSize", len(d.NextQueued(-1))).
		Msg("cards-queued")
}
