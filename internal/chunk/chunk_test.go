package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForName(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name string
		want string
	}{
		{"fixed", "fixed"},
		{"sentence", "sentence"},
		{"paragraph", "paragraph"},
		{"table", "table"},
		{"bogus", "fixed"}, // unknown names fall back to fixed
		{"", "fixed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForName(tt.name, opts).Name())
		})
	}
}

func TestFixedLengthShortText(t *testing.T) {
	f := NewFixedLength(500, 50)
	chunks := f.Split("A short sentence.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short sentence.", chunks[0])
}

func TestFixedLengthEmptyText(t *testing.T) {
	f := NewFixedLength(500, 50)
	assert.Empty(t, f.Split(""))
}

func TestFixedLengthSplitsWithOverlap(t *testing.T) {
	// 30 sentences of ~28 runes each, well past one chunk.
	text := strings.Repeat("This sentence has some text. ", 30)
	f := NewFixedLength(100, 20)

	chunks := f.Split(text)
	require.Greater(t, len(chunks), 1)

	// Everything is covered: last chunk reaches the end of the text.
	assert.True(t, strings.HasSuffix(strings.TrimSpace(chunks[len(chunks)-1]), "text."))

	// Chunks snap to sentence terminators where one is in range.
	for i, c := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c, "."), "chunk %d should end on a sentence boundary: %q", i, c)
	}
}

func TestFixedLengthNoTerminators(t *testing.T) {
	text := strings.Repeat("a", 1200)
	f := NewFixedLength(500, 50)

	chunks := f.Split(text)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 500)
	// Overlap means the next chunk starts 50 runes back.
	assert.Len(t, chunks[1], 500)
}

func TestFixedLengthRuneSafe(t *testing.T) {
	text := strings.Repeat("中文内容测试。", 100)
	f := NewFixedLength(50, 10)

	for _, c := range f.Split(text) {
		assert.True(t, strings.HasSuffix(c, "。") || strings.HasSuffix(text, c))
		for _, r := range c {
			assert.NotEqual(t, '�', r, "chunk contains a broken rune")
		}
	}
}

func TestSentenceGrouping(t *testing.T) {
	s := NewSentence(2)
	chunks := s.Split("One. Two! Three? Four. Five.")

	require.Len(t, chunks, 3)
	assert.Equal(t, "One. Two!", chunks[0])
	assert.Equal(t, "Three? Four.", chunks[1])
	assert.Equal(t, "Five.", chunks[2])
}

func TestSentenceCJKTerminators(t *testing.T) {
	s := NewSentence(1)
	chunks := s.Split("第一句。第二句！第三句？")

	require.Len(t, chunks, 3)
	assert.Equal(t, "第一句。", chunks[0])
}

func TestSentenceTrailingTextWithoutTerminator(t *testing.T) {
	s := NewSentence(2)
	chunks := s.Split("Complete sentence. And a dangling fragment")

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "dangling fragment")
}

func TestSentenceEmpty(t *testing.T) {
	s := NewSentence(3)
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n  "))
}

func TestParagraphGrouping(t *testing.T) {
	p := NewParagraph(2)
	text := "Para one.\n\nPara two.\n\n  \nPara three."

	chunks := p.Split(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Para one.\n\nPara two.", chunks[0])
	assert.Equal(t, "Para three.", chunks[1])
}

func TestParagraphSkipsBlankParagraphs(t *testing.T) {
	p := NewParagraph(1)
	chunks := p.Split("\n\n  \n\nOnly one paragraph.\n\n\n")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Only one paragraph.", chunks[0])
}

func TestTableKeepsTablesIntact(t *testing.T) {
	text := `Intro paragraph before the table.

| Name | Value |
|------|-------|
| A    | 1     |
| B    | 2     |

Closing paragraph after the table.`

	tab := NewTable(2)
	chunks := tab.Split(text)

	require.Len(t, chunks, 3)
	assert.Equal(t, "Intro paragraph before the table.", chunks[0])
	assert.True(t, strings.HasPrefix(chunks[1], "| Name |"))
	assert.Equal(t, 4, strings.Count(chunks[1], "\n")+1, "table rows must stay together")
	assert.Equal(t, "Closing paragraph after the table.", chunks[2])
}

func TestTableOnlyProse(t *testing.T) {
	tab := NewTable(2)
	chunks := tab.Split("Just prose.\n\nMore prose.")

	require.Len(t, chunks, 1)
	assert.Equal(t, "Just prose.\n\nMore prose.", chunks[0])
}

func TestTableMultipleTables(t *testing.T) {
	text := "| a |\n| 1 |\n\ntext between\n\n| b |\n| 2 |"
	tab := NewTable(1)

	chunks := tab.Split(text)
	require.Len(t, chunks, 3)
	assert.Equal(t, "| a |\n| 1 |", chunks[0])
	assert.Equal(t, "text between", chunks[1])
	assert.Equal(t, "| b |\n| 2 |", chunks[2])
}

func TestStrategiesArePure(t *testing.T) {
	text := "One. Two. Three.\n\nFour. Five."
	opts := DefaultOptions()

	for _, name := range []string{"fixed", "sentence", "paragraph", "table"} {
		strategy := ForName(name, opts)
		first := strategy.Split(text)
		second := strategy.Split(text)
		assert.Equal(t, first, second, "strategy %s should be deterministic", name)
	}
}
