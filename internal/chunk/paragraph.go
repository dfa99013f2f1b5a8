package chunk

import (
	"regexp"
	"strings"
)

var paragraphSeparator = regexp.MustCompile(`\n\s*\n|\r\n\s*\r\n`)

// Paragraph splits text on blank lines and groups a fixed number of
// paragraphs per chunk.
type Paragraph struct {
	PerChunk int
}

// NewParagraph creates a paragraph chunker grouping perChunk paragraphs.
func NewParagraph(perChunk int) *Paragraph {
	if perChunk <= 0 {
		perChunk = 2
	}
	return &Paragraph{PerChunk: perChunk}
}

func (p *Paragraph) Name() string { return "paragraph" }

func (p *Paragraph) Split(text string) []string {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(paragraphs); i += p.PerChunk {
		end := i + p.PerChunk
		if end > len(paragraphs) {
			end = len(paragraphs)
		}
		chunks = append(chunks, strings.Join(paragraphs[i:end], "\n\n"))
	}
	return chunks
}

func splitParagraphs(text string) []string {
	parts := paragraphSeparator.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
