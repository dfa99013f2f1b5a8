package chunk

import "strings"

// Sentence splits text into sentences and groups a fixed number of them
// per chunk.
type Sentence struct {
	PerChunk int
}

// NewSentence creates a sentence chunker grouping perChunk sentences.
func NewSentence(perChunk int) *Sentence {
	if perChunk <= 0 {
		perChunk = 3
	}
	return &Sentence{PerChunk: perChunk}
}

func (s *Sentence) Name() string { return "sentence" }

func (s *Sentence) Split(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(sentences); i += s.PerChunk {
		end := i + s.PerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunk := strings.TrimSpace(strings.Join(sentences[i:end], ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// splitSentences cuts text after runs of sentence terminators. Trailing
// text without a terminator becomes a final sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	inTerminator := false

	for _, r := range text {
		if isTerminator(r) {
			current.WriteRune(r)
			inTerminator = true
			continue
		}
		if inTerminator {
			if s := current.String(); strings.TrimSpace(s) != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
			inTerminator = false
		}
		current.WriteRune(r)
	}

	if s := current.String(); strings.TrimSpace(s) != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
