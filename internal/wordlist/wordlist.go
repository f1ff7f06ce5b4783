// Package wordlist loads the tab-separated vocabulary file the study
// tools resolve card ids against. It is deliberately small: the deck
// engine stores word ids only, and this package turns them back into
// written form, kana reading and definition for display and for
// matching tokenized text.
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Word is one vocabulary entry. ID is the 1-based line number of the
// entry in its source file; it is the stable id cards carry.
type Word struct {
	ID         int64
	Written    string
	Kana       string
	Definition string
}

// List is an in-memory wordlist with id and surface-form lookup.
type List struct {
	words []Word
	// byForm maps written and kana forms onto ids. First entry wins
	// when two lines share a form.
	byForm map[string]int64
}

// Load reads a wordlist file: one entry per line, written TAB kana TAB
// definition. Blank lines and lines starting with # are skipped but
// still count toward line-number ids, so editing a comment never
// renumbers a collection.
func Load(filename string) (*List, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open wordlist: %w", err)
	}
	defer f.Close()

	l := &List{byForm: make(map[string]int64)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := int64(0)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 3 {
			return nil, fmt.Errorf("wordlist line %d: expected 3 tab-separated fields, got %d",
				lineNo, len(fields))
		}
		w := Word{
			ID:         lineNo,
			Written:    strings.TrimSpace(fields[0]),
			Kana:       strings.TrimSpace(fields[1]),
			Definition: strings.TrimSpace(fields[2]),
		}
		if w.Written == "" {
			return nil, fmt.Errorf("wordlist line %d: empty written form", lineNo)
		}
		l.words = append(l.words, w)
		if _, seen := l.byForm[w.Written]; !seen {
			l.byForm[w.Written] = w.ID
		}
		if w.Kana != "" {
			if _, seen := l.byForm[w.Kana]; !seen {
				l.byForm[w.Kana] = w.ID
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wordlist: %w", err)
	}
	return l, nil
}

// Len is the number of entries loaded.
func (l *List) Len() int {
	return len(l.words)
}

// Get resolves a card id to its word. Entries are kept in line order,
// so ids are searchable directly.
func (l *List) Get(id int64) (Word, bool) {
	i := sort.Search(len(l.words), func(i int) bool { return l.words[i].ID >= id })
	if i < len(l.words) && l.words[i].ID == id {
		return l.words[i], true
	}
	return Word{}, false
}

// FindForm resolves a surface form (written or kana) to an id.
func (l *List) FindForm(form string) (int64, bool) {
	id, ok := l.byForm[form]
	return id, ok
}

// Words returns all entries in file order.
func (l *List) Words() []Word {
	out := make([]Word, len(l.words))
	copy(out, l.words)
	return out
}
