package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	got := SplitText("short text", 800, 300)
	require.Len(t, got, 1)
	assert.Equal(t, "short text", got[0])
}

func TestSplitTextEmpty(t *testing.T) {
	assert.Nil(t, SplitText("", 800, 300))
	assert.Nil(t, SplitText("   \n\n  ", 800, 300))
}

func TestSplitTextRespectsChunkSize(t *testing.T) {
	// Paragraphs of ~50 chars each, far more than one chunk's worth.
	para := strings.Repeat("word ", 10)
	text := strings.TrimSpace(strings.Repeat(para+"\n\n", 40))

	chunks := SplitText(text, 200, 50)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 2*200, "chunk %d too large", i)
		assert.NotEmpty(t, c)
	}
}

func TestSplitTextCarriesOverlap(t *testing.T) {
	para := strings.Repeat("alpha ", 30) // ~180 chars
	text := para + "\n\n" + strings.Repeat("beta ", 30)

	chunks := SplitText(text, 200, 60)
	require.GreaterOrEqual(t, len(chunks), 2)

	// The second chunk starts with the tail of the first.
	tail := chunks[0][len(chunks[0])-20:]
	assert.Contains(t, chunks[1], strings.TrimSpace(tail))
}

func TestSplitTextHardCutsUnbrokenRun(t *testing.T) {
	text := strings.Repeat("x", 1000)

	chunks := SplitText(text, 300, 0)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 301)
	}

	var total int
	for _, c := range chunks {
		total += len(c)
	}
	assert.GreaterOrEqual(t, total, 1000, "no content may be lost")
}

func TestSplitTextNoOverlapOnlyChunk(t *testing.T) {
	// A trailing chunk must contain fresh content, not just the
	// carried-over tail of its predecessor.
	var sb strings.Builder
	for _, r := range "abcde" {
		sb.WriteString(strings.Repeat(string(r), 90))
		sb.WriteString("\n\n")
	}

	chunks := SplitText(strings.TrimSpace(sb.String()), 100, 40)
	for i := 1; i < len(chunks); i++ {
		assert.NotEqual(t, chunks[i], chunks[i-1])
	}
}

func TestSplitTextKeepsRunesIntact(t *testing.T) {
	// Overlap seeds and hard cuts count bytes, so multibyte text must
	// never be sliced mid-rune.
	for _, tc := range []struct {
		name      string
		text      string
		size, ovl int
	}{
		{"overlap seed", strings.TrimSpace(strings.Repeat("早上好 世界和平 ", 100)), 800, 301},
		{"hard cut", strings.Repeat("早上好", 40), 50, 10},
		{"no overlap", strings.TrimSpace(strings.Repeat("早上好 世界和平 ", 100)), 64, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			chunks := SplitText(tc.text, tc.size, tc.ovl)
			require.NotEmpty(t, chunks)
			for i, c := range chunks {
				assert.True(t, utf8.ValidString(c), "chunk %d is not valid UTF-8: %q", i, c[:min(12, len(c))])
			}
		})
	}
}

func TestSplitTextDefaultsOnBadParams(t *testing.T) {
	text := strings.Repeat("word ", 400)

	assert.NotEmpty(t, SplitText(text, 0, 0))
	assert.NotEmpty(t, SplitText(text, 100, 100), "overlap >= size falls back to a sane value")
}
