package config

import (
	"github.com/namsral/flag"

	"github.com/mnishi/wordstudy/internal/deck"
)

type Config struct {
	Scheduler deck.SchedulerConfig

	DeckFile     string
	WordlistFile string
	// ImportFSRS names an FSRS collection database to merge into the
	// deck before anything else runs.
	ImportFSRS string
	LogLevel   string
}

// Load loads the configs from the given arguments
func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("wordstudy", flag.ContinueOnError)

	c.Scheduler = deck.DefaultSchedulerConfig()

	fs.StringVar(&c.DeckFile, "deck-file", "deck.db", "path to the deck snapshot database")
	fs.StringVar(&c.WordlistFile, "wordlist-file", "words.tsv", "path to the tab-separated wordlist")
	fs.StringVar(&c.ImportFSRS, "import-fsrs", "", "FSRS collection database to import before starting")

	fs.IntVar(&c.Scheduler.DayStartHour, "day-start-hour", c.Scheduler.DayStartHour, "hour at which a new study day begins")
	fs.DurationVar(&c.Scheduler.BaseInterval, "base-interval", c.Scheduler.BaseInterval, "spacing interval at level zero")
	fs.DurationVar(&c.Scheduler.MaxInterval, "max-interval", c.Scheduler.MaxInterval, "cap on the spacing interval")
	fs.DurationVar(&c.Scheduler.WrongAnswerDelay, "wrong-answer-delay", c.Scheduler.WrongAnswerDelay, "retest delay after a wrong answer")
	fs.Float64Var(&c.Scheduler.InitialMultiplier, "initial-multiplier", c.Scheduler.InitialMultiplier, "starting spacing multiplier for new cards")
	fs.IntVar(&c.Scheduler.LearnedLevel, "learned-level", c.Scheduler.LearnedLevel, "level at which a card counts as learned")

	fs.StringVar(&c.LogLevel, "log-level", "info", "log level")
	err := fs.Parse(args)
	return err
}
