package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinesAfterAndBefore(t *testing.T) {
	text := "preamble\n1 Introduction\nbody line one\nbody line two\n2 Related Work\ntail"

	after := linesAfter(text, "1 Introduction")
	require.Equal(t, "body line one\nbody line two\n2 Related Work\ntail", after)

	scoped := linesBefore(after, "2 Related Work")
	require.Equal(t, "body line one\nbody line two", scoped)
}

func TestLinesAfterMissingMarkerReturnsInput(t *testing.T) {
	text := "a\nb\nc"
	require.Equal(t, text, linesAfter(text, "not present"))
	require.Equal(t, text, linesBefore(text, "not present"))
}

func TestNormalizeHeading(t *testing.T) {
	require.Equal(t, "1 introduction", normalizeHeading("  1   Introduction \n"))
}
