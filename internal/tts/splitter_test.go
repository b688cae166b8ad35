package tts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitScriptShortTextSingleChunk(t *testing.T) {
	text := "Host A: welcome to the show.\nHost B: glad to be here."
	chunks := SplitScript(text, DefaultTokenBudget)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, text, chunks[0].Text)
}

func TestSplitScriptEmptyText(t *testing.T) {
	chunks := SplitScript("", DefaultTokenBudget)
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Text)
}

func TestSplitScriptBreaksOnNewlines(t *testing.T) {
	// 40 lines of ~20 chars against a tiny budget forces several chunks,
	// every one ending at a line boundary.
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, "Host A: line of dialogue here")
	}
	text := strings.Join(lines, "\n")

	chunks := SplitScript(text, 25)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.False(t, strings.HasSuffix(c.Text, "\n"), "chunk %d ends mid-boundary", i)
	}
}

func TestSplitScriptReassemblesToOriginal(t *testing.T) {
	text := "alpha\n\nbeta gamma\ndelta\n" + strings.Repeat("epsilon zeta eta theta\n", 30) + "omega"

	chunks := SplitScript(text, 20)
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	assert.Equal(t, text, strings.Join(parts, "\n"))
}

func TestSplitScriptDeterministic(t *testing.T) {
	text := strings.Repeat("Host B: a fairly long remark about the method section\n", 50)
	first := SplitScript(text, 30)
	second := SplitScript(text, 30)
	assert.Equal(t, first, second)
}

func TestSplitScriptOversizedLineBecomesOwnChunk(t *testing.T) {
	long := strings.Repeat("x", 400)
	text := "short\n" + long + "\nshort again"

	chunks := SplitScript(text, 10)
	var found bool
	for _, c := range chunks {
		if c.Text == long {
			found = true
		}
	}
	assert.True(t, found, "oversized line should land alone in its own chunk")
}
