package chunk

import "strings"

// Table keeps contiguous Markdown table blocks intact as single chunks and
// paragraph-splits the prose between them. Splitting a table across chunks
// would destroy its structure for downstream consumers.
type Table struct {
	prose *Paragraph
}

// NewTable creates a table-aware chunker. Prose between tables is grouped
// perChunk paragraphs at a time.
func NewTable(perChunk int) *Table {
	return &Table{prose: NewParagraph(perChunk)}
}

func (t *Table) Name() string { return "table" }

func (t *Table) Split(text string) []string {
	lines := strings.Split(text, "\n")

	var chunks []string
	var tableLines []string
	var proseLines []string

	flushProse := func() {
		if len(proseLines) == 0 {
			return
		}
		chunks = append(chunks, t.prose.Split(strings.Join(proseLines, "\n"))...)
		proseLines = nil
	}
	flushTable := func() {
		if len(tableLines) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(tableLines, "\n"))
		tableLines = nil
	}

	for _, line := range lines {
		if isTableLine(line) {
			flushProse()
			tableLines = append(tableLines, line)
			continue
		}
		flushTable()
		proseLines = append(proseLines, line)
	}
	flushTable()
	flushProse()

	return chunks
}

func isTableLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") && len(trimmed) > 1
}
