// Package chunk splits extracted document text into chunks for downstream
// indexing. Strategies are pure functions over the input text.
package chunk

import (
	"github.com/spherical/docpipe/internal/domain"
)

// Options holds per-strategy tuning parameters.
type Options struct {
	FixedSize          int
	Overlap            int
	SentencesPerChunk  int
	ParagraphsPerChunk int
}

// DefaultOptions returns the standard chunking parameters.
func DefaultOptions() Options {
	return Options{
		FixedSize:          500,
		Overlap:            50,
		SentencesPerChunk:  3,
		ParagraphsPerChunk: 2,
	}
}

// ForName returns the strategy registered under name. Unknown names fall
// back to the fixed-length strategy.
func ForName(name string, opts Options) domain.ChunkStrategy {
	switch name {
	case "sentence":
		return NewSentence(opts.SentencesPerChunk)
	case "paragraph":
		return NewParagraph(opts.ParagraphsPerChunk)
	case "table":
		return NewTable(opts.ParagraphsPerChunk)
	default:
		return NewFixedLength(opts.FixedSize, opts.Overlap)
	}
}

// sentenceTerminators covers both Latin and CJK sentence punctuation.
var sentenceTerminators = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true,
}

func isTerminator(r rune) bool {
	return sentenceTerminators[r]
}
