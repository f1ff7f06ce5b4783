package wordlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, contents string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "words.tsv")
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0644))
	return filename
}

func TestLoad(t *testing.T) {
	filename := writeList(t, "犬\tいぬ\tdog\n"+
		"# comment lines keep their line number\n"+
		"猫\tねこ\tcat\n"+
		"\n"+
		"食べる\tたべる\tto eat\n")

	l, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())

	w, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, Word{ID: 1, Written: "犬", Kana: "いぬ", Definition: "dog"}, w)

	// Comments and blank lines consume ids but produce no entries.
	_, ok = l.Get(2)
	assert.False(t, ok)
	w, ok = l.Get(3)
	require.True(t, ok)
	assert.Equal(t, "猫", w.Written)
	w, ok = l.Get(5)
	require.True(t, ok)
	assert.Equal(t, "食べる", w.Written)

	id, ok := l.FindForm("たべる")
	require.True(t, ok)
	assert.Equal(t, int64(5), id)
	id, ok = l.FindForm("犬")
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
	_, ok = l.FindForm("鳥")
	assert.False(t, ok)
}

func TestLoadRejectsShortLines(t *testing.T) {
	filename := writeList(t, "犬\tいぬ\n")
	_, err := Load(filename)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoadDuplicateFormsFirstWins(t *testing.T) {
	filename := writeList(t, "はし\tはし\tbridge\nはし\tはし\tchopsticks\n")
	l, err := Load(filename)
	require.NoError(t, err)
	id, ok := l.FindForm("はし")
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Len(t, l.Words(), 2)
}
