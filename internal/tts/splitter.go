package tts

import "strings"

// Chunk is one ordered slice of the script submitted as a single synthesis
// unit. Index is assigned before dispatch and joins the chunk to its audio
// file regardless of completion order.
type Chunk struct {
	Index int
	Text  string
}

// DefaultTokenBudget bounds one chunk; longer chunks get cut off mid-speech
// by the synthesis backend.
const DefaultTokenBudget = 4000

// estimateTokens approximates the backend tokenizer at four bytes per token,
// which tracks tiktoken closely enough for a safety bound.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// SplitScript cuts the script into chunks of at most tokenBudget estimated
// tokens, splitting only on newline boundaries with no overlap. Splitting is
// deterministic, and text under the budget comes back as exactly one chunk
// equal to the input.
func SplitScript(text string, tokenBudget int) []Chunk {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	if estimateTokens(text) <= tokenBudget {
		return []Chunk{{Index: 0, Text: text}}
	}

	chunks := make([]Chunk, 0)
	lines := strings.Split(text, "\n")
	var current strings.Builder
	open := false
	flush := func() {
		if open {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: current.String()})
			current.Reset()
			open = false
		}
	}

	for _, line := range lines {
		if open && estimateTokens(current.String())+estimateTokens(line)+1 > tokenBudget {
			flush()
		}
		if open {
			current.WriteString("\n")
		}
		current.WriteString(line)
		open = true
		// A single oversized line still becomes its own chunk.
		if estimateTokens(current.String()) > tokenBudget {
			flush()
		}
	}
	flush()
	return chunks
}
