package domain

import "context"

// Converter defines the interface for converting PDF to images
type Converter interface {
	// Convert turns a PDF into a slice of page images
	Convert(ctx context.Context, pdfPath string, quality int) ([]PageImage, error)

	// Cleanup removes temporary files created during conversion
	Cleanup() error
}

// ModelClient defines the interface for the external vision-language model.
// Implementations own their own timeout and retry policy.
type ModelClient interface {
	// Analyze submits a page image and a prompt, returning extracted text
	Analyze(ctx context.Context, imageBytes []byte, prompt string) (AnalysisResult, error)

	// Ping verifies the configured credentials with a minimal request
	Ping(ctx context.Context) error
}

// ChunkStrategy splits extracted text into chunks
type ChunkStrategy interface {
	Split(text string) []string
	Name() string
}

// ChunkWriter persists a chunk set to a file
type ChunkWriter interface {
	Write(chunks []string, path string) error
}
