package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHardCap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"within limit", "Short text.", 50, "Short text."},
		{"sentence boundary", "First sentence. Second sentence is long.", 25, "First sentence."},
		{"word boundary", "no punctuation in this text at all", 20, "no punctuation in"},
		{"single long word", "abcdefghijklmnop", 5, ""},
		{"short title", "Untitled", 2, ""},
		{"zero limit", "anything", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hardCap(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, runeLen(got), tt.limit)
		})
	}
}

func TestHardCap_CountsRunes(t *testing.T) {
	got := hardCap("ééééé ééééé", 7)
	assert.Equal(t, "ééééé", got)
}

func TestRebuildFromSentences(t *testing.T) {
	text := "One two three. Four five six. Seven eight nine."

	assert.Equal(t, "One two three.", rebuildFromSentences(text, 20, "quick"))
	assert.Equal(t, "One two three. Four five six.", rebuildFromSentences(text, 29, "quick"))
	assert.Equal(t, "quick", rebuildFromSentences(text, 5, "quick"))
}

func TestEnforceCondensedLength_NeverExceedsCap(t *testing.T) {
	sources := []int{120, 500, 1000, 4000}
	candidates := []string{
		strings.Repeat("A sentence of modest length. ", 60),
		strings.Repeat("wordy ", 400),
		"Tiny.",
		"",
	}
	quick := strings.Repeat("Quick summary that may itself be long. ", 10)

	for _, n := range sources {
		source := strings.Repeat("s", n)
		for _, c := range candidates {
			got := enforceCondensedLength(c, source, quick)
			assert.LessOrEqual(t, runeLen(got), n*30/100)
		}
	}
}

func TestEnforceCondensedLength_EndsOnSentenceOrQuick(t *testing.T) {
	source := strings.Repeat("s", 1000)
	quick := "Quick take."
	candidate := strings.Repeat("Another sentence that keeps going on. ", 20)

	got := enforceCondensedLength(candidate, source, quick)

	assert.True(t, got == quick || strings.HasSuffix(got, "."), got)
	assert.LessOrEqual(t, runeLen(got), 300)
}

func TestFirstWords(t *testing.T) {
	assert.Equal(t, "a b c", firstWords("a  b\nc", 5))
	assert.Equal(t, "a b...", firstWords("a b c d", 2))
}
