package domain

import "time"

// Document represents the source PDF file being processed
type Document struct {
	FilePath   string
	TotalPages int
}

// PageImage represents a single converted PDF page
type PageImage struct {
	PageNumber int
	ImagePath  string // Path to temporary JPG file
	Width      int
	Height     int
}

// AnalysisResult is the text the vision model extracted from one page image.
type AnalysisResult struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Cached  bool   `json:"-"` // true when served from the analysis cache
}

// PageAnalysis pairs a page with its analysis outcome.
type PageAnalysis struct {
	PageNumber int
	Result     AnalysisResult
	Err        error
}

// ProcessingStats contains metadata about one pipeline run over a document
type ProcessingStats struct {
	TotalTime       time.Duration
	PagesProcessed  int
	SuccessfulPages int
	FailedPages     int
	CacheHits       int
	CacheMisses     int
	ChunksWritten   int
	Errors          []error
}
