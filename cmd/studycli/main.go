package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mnishi/wordstudy/config"
	"github.com/mnishi/wordstudy/internal/deck"
	"github.com/mnishi/wordstudy/internal/stores"
	"github.com/mnishi/wordstudy/internal/wordlist"
)

const newCardsPerSession = 20

type sessionManager struct {
	d     *deck.Deck
	words *wordlist.List

	// remaining ids to test this session, due cards first.
	remaining   []int64
	current     deck.Card
	currentWord wordlist.Word
	showAnswer  bool
	shownAt     time.Time
	answered    int
	done        bool
}

func newSessionManager(d *deck.Deck, words *wordlist.List) *sessionManager {
	mgr := &sessionManager{d: d, words: words}
	mgr.remaining = append(mgr.remaining, d.DueItems()...)
	mgr.remaining = append(mgr.remaining, d.NextQueued(newCardsPerSession)...)
	mgr.advance()
	return mgr
}

func (m *sessionManager) advance() {
	for len(m.remaining) > 0 {
		id := m.remaining[0]
		m.remaining = m.remaining[1:]
		card, ok := m.d.Get(id)
		if !ok {
			continue
		}
		word, ok := m.words.Get(id)
		if !ok {
			log.Info().Int64("wordID", id).Msg("card has no wordlist entry, skipping")
			continue
		}
		m.current = card
		m.currentWord = word
		m.showAnswer = false
		m.shownAt = time.Now()
		return
	}
	m.done = true
}

func (m *sessionManager) grade(correct bool) {
	// A wrong answer puts the card back on a short retest delay and
	// rejoins the session tail; scoring it again before that delay has
	// elapsed needs the force flag.
	force := m.current.Status == deck.Tested && time.Now().Before(m.current.NextDueAt)
	if _, err := m.d.RecordAnswer(m.current.ID, correct, time.Since(m.shownAt), force); err != nil {
		log.Error().Err(err).Int64("wordID", m.current.ID).Msg("failed to score card")
	} else {
		m.answered++
		if !correct {
			m.remaining = append(m.remaining, m.current.ID)
		}
	}
	m.advance()
}

func (m *sessionManager) prompt() string {
	hint := m.current.Hint
	switch hint {
	case deck.HintKana:
		return m.currentWord.Kana
	case deck.HintDefinition:
		return m.currentWord.Definition
	default:
		return m.currentWord.Written
	}
}

func (m *sessionManager) View() string {
	if m.done {
		return fmt.Sprintf("Session finished: %d answers recorded.\nHit q to save and quit.", m.answered)
	}
	body := strings.Repeat("-", 20)
	body += "\n\n  " + m.prompt() + "\n\n"
	if m.showAnswer {
		body += fmt.Sprintf("  %s 「%s」\n  %s\n",
			m.currentWord.Written, m.currentWord.Kana, m.currentWord.Definition)
		body += fmt.Sprintf("\n  level %d, %s\n", m.current.Level, m.current.Status)
	}
	footer := "(F) Flip    (1) Wrong    (2) Correct    (Q) Save and quit"
	return body + "\n\n" + strings.Repeat("-", 25) + "\n" + footer + "\n"
}

type model struct {
	textInput textinput.Model
	mgr       *sessionManager
}

func initialModel(mgr *sessionManager) model {
	ti := textinput.New()
	ti.Placeholder = "Answer"
	ti.Focus()
	ti.CharLimit = 40
	ti.Width = 40

	return model{textInput: ti, mgr: mgr}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			if !m.mgr.done && !m.mgr.showAnswer {
				m.mgr.showAnswer = true
			}
			m.textInput.Reset()
			return m, nil
		}

		switch strings.ToLower(msg.String()) {
		case "q":
			return m, tea.Quit
		case "f":
			if !m.mgr.done {
				m.mgr.showAnswer = !m.mgr.showAnswer
			}
			m.textInput.Reset()
			return m, nil
		case "1", "2":
			if !m.mgr.done && m.mgr.showAnswer {
				m.mgr.grade(msg.String() == "2")
				m.textInput.Reset()
				return m, nil
			}
		}
	}
	m.textInput, cmd = m.textInput.Update(msg)

	return m, cmd
}

func (m model) View() string {
	return fmt.Sprintf("%s\n\n%s\n\n", m.mgr.View(), m.textInput.View())
}

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Printf("Could not load config: %v\n", err)
		os.Exit(1)
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if strings.ToLower(cfg.LogLevel) == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx := context.Background()

	words, err := wordlist.Load(cfg.WordlistFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load wordlist")
	}
	store, err := stores.Open(cfg.DeckFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open deck database")
	}
	defer store.Close()

	snap, err := store.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load deck snapshot")
	}
	d, err := deck.Restore(cfg.Scheduler, deck.RealNower{}, snap)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to restore deck")
	}
	if cfg.ImportFSRS != "" {
		imported, unimported, err := stores.ImportFSRS(ctx, d, cfg.ImportFSRS)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to import FSRS collection")
		}
		log.Info().Int("imported", imported).Int("skipped", len(unimported)).
			Msg("fsrs-collection-merged")
	}
	log.Info().Int("due", len(d.DueItems())).Int("queued", len(d.NextQueued(-1))).
		Msg("deck-loaded")

	mgr := newSessionManager(d, words)
	p := tea.NewProgram(initialModel(mgr))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}

	if err := store.Save(ctx, d.Snapshot()); err != nil {
		log.Fatal().Err(err).Msg("failed to save deck snapshot")
	}
	log.Info().Int("answered", mgr.answered).Msg("session-saved")
}
