package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortText(t *testing.T) {
	assert.Equal(t, []string{"hello"}, Split("hello", 100))
}

func TestSplitExactLimit(t *testing.T) {
	text := strings.Repeat("a", 50)
	assert.Equal(t, []string{text}, Split(text, 50))
}

func TestSplitEmpty(t *testing.T) {
	assert.Equal(t, []string{""}, Split("", 100))
}

func TestSplitZeroLimit(t *testing.T) {
	// Non-positive limit disables splitting.
	assert.Equal(t, []string{"anything"}, Split("anything", 0))
}

func TestSplitParagraphBoundaries(t *testing.T) {
	text := "first paragraph here\n\nsecond paragraph here\n\nthird paragraph here"
	chunks := Split(text, 45)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 45)
	}
	// Paragraphs were not cut internally
	assert.Equal(t, "first paragraph here\n\nsecond paragraph here", chunks[0])
	assert.Equal(t, "third paragraph here", chunks[1])
}

func TestSplitLineFallback(t *testing.T) {
	// One paragraph too long for the limit, but its lines fit.
	text := "line one is here\nline two is here\nline three is here"
	chunks := Split(text, 36)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 36)
	}
	assert.Equal(t, "line one is here\nline two is here", chunks[0])
}

func TestSplitWordFallback(t *testing.T) {
	// A single long line falls back to word splitting.
	text := strings.TrimSpace(strings.Repeat("word ", 40))
	chunks := Split(text, 21)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 21)
		assert.False(t, strings.HasPrefix(c, " "))
	}
}

func TestSplitOverlongWordForcedSlice(t *testing.T) {
	word := strings.Repeat("x", 25)
	chunks := Split(word, 10)

	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
}

func TestSplitOverlongWordExactMultiple(t *testing.T) {
	word := strings.Repeat("y", 20)
	chunks := Split(word, 10)
	assert.Equal(t, []string{"yyyyyyyyyy", "yyyyyyyyyy"}, chunks)
}

func TestSplitChunkLengthProperty(t *testing.T) {
	texts := []string{
		strings.Repeat("alpha beta gamma delta epsilon ", 200),
		strings.Repeat("a paragraph of text.\n\n", 100),
		strings.Repeat("one line\n", 300),
		strings.Repeat("z", 5000),
		"short",
		"",
	}
	limits := []int{1, 7, 50, 2900}

	for _, text := range texts {
		for _, limit := range limits {
			for _, c := range Split(text, limit) {
				assert.LessOrEqual(t, len(c), limit,
					"limit %d violated for text of length %d", limit, len(text))
			}
		}
	}
}

// stripSpace removes every whitespace character so that chunk
// concatenation can be compared against the source text regardless of
// which separators landed on chunk boundaries.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\t':
			return -1
		}
		return r
	}, s)
}

func TestSplitReconstructionProperty(t *testing.T) {
	texts := []string{
		strings.Repeat("alpha beta gamma delta epsilon ", 200),
		strings.Repeat("a paragraph of text goes right here.\n\n", 100),
		strings.Repeat("one line of text\n", 300),
		strings.Repeat("q", 4321),
		"mixed\n\nparagraphs with\nlines and words words words",
	}
	limits := []int{9, 33, 100, 2900}

	for _, text := range texts {
		for _, limit := range limits {
			chunks := Split(text, limit)
			joined := stripSpace(strings.Join(chunks, ""))
			assert.Equal(t, stripSpace(text), joined,
				"reconstruction failed at limit %d", limit)
		}
	}
}

func TestSplitNoEmptyChunksForLongInput(t *testing.T) {
	text := strings.Repeat("some words here\n\n", 50)
	for _, c := range Split(text, 40) {
		assert.NotEmpty(t, c)
	}
}
