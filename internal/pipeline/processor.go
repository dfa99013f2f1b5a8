// Package pipeline wires conversion, analysis, chunking and storage into
// the per-document processing workflow.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spherical/docpipe/internal/analyze"
	"github.com/spherical/docpipe/internal/domain"
	"github.com/spherical/docpipe/internal/observability"
	"github.com/spherical/docpipe/internal/storage"
)

// Options configures one processing run.
type Options struct {
	OutputDir       string
	Prompt          string
	SaveFormat      string
	OverwriteOutput bool
	Quality         int
}

// Result describes what a document run produced.
type Result struct {
	IntermediatePath string
	ChunksPath       string
	Chunks           []string
	Stats            domain.ProcessingStats
}

// Processor runs the document workflow: render pages, analyze them through
// the cache, join the extracted text, chunk it and persist the chunks.
type Processor struct {
	converter domain.Converter
	analyzer  *analyze.Analyzer
	chunker   domain.ChunkStrategy
	store     *storage.Manager
	logger    zerolog.Logger
}

// NewProcessor creates a document processor.
func NewProcessor(converter domain.Converter, analyzer *analyze.Analyzer, chunker domain.ChunkStrategy, logger zerolog.Logger) *Processor {
	return &Processor{
		converter: converter,
		analyzer:  analyzer,
		chunker:   chunker,
		store:     storage.NewManager(),
		logger:    observability.WithComponent(logger, "pipeline"),
	}
}

// ProcessDocument runs the full workflow for one PDF.
func (p *Processor) ProcessDocument(ctx context.Context, pdfPath string, opts Options) (*Result, error) {
	start := time.Now()
	p.logger.Info().Str("pdf", pdfPath).Msg("Processing document")

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, domain.IOError("create output directory", err)
		}
	}

	images, err := p.converter.Convert(ctx, pdfPath, opts.Quality)
	if err != nil {
		return nil, err
	}
	p.logger.Info().Int("pages", len(images)).Msg("Converted PDF to page images")

	analyses, err := p.analyzer.AnalyzeImages(ctx, images, opts.Prompt)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	result.Stats.PagesProcessed = len(analyses)

	texts := make([]string, 0, len(analyses))
	for _, pa := range analyses {
		if pa.Err != nil {
			result.Stats.FailedPages++
			result.Stats.Errors = append(result.Stats.Errors, fmt.Errorf("page %d: %w", pa.PageNumber, pa.Err))
			texts = append(texts, analyze.FailedPagePlaceholder)
			continue
		}
		result.Stats.SuccessfulPages++
		texts = append(texts, pa.Result.Content)
	}

	if result.Stats.SuccessfulPages == 0 && len(analyses) > 0 {
		return nil, domain.AnalysisError("all pages failed to analyze", nil)
	}

	combined := strings.Join(texts, "\n\n")

	result.IntermediatePath = p.outputPath(pdfPath, opts.OutputDir, "_extracted_content.md")
	if err := os.WriteFile(result.IntermediatePath, []byte(combined), 0o644); err != nil {
		return nil, domain.IOError("write extracted content", err)
	}
	p.logger.Info().Str("path", result.IntermediatePath).Msg("Saved extracted content")

	result.Chunks = p.chunker.Split(combined)
	result.Stats.ChunksWritten = len(result.Chunks)

	result.ChunksPath = p.outputPath(pdfPath, opts.OutputDir, "_chunks."+opts.SaveFormat)
	if !opts.OverwriteOutput {
		result.ChunksPath = storage.UniquePath(result.ChunksPath)
	}
	if err := p.store.SaveChunks(result.Chunks, result.ChunksPath, opts.SaveFormat); err != nil {
		return nil, err
	}
	p.logger.Info().Str("path", result.ChunksPath).Int("chunks", len(result.Chunks)).Str("strategy", p.chunker.Name()).Msg("Saved chunks")

	if err := p.analyzer.Flush(); err != nil {
		// Losing the snapshot loses cached analyses, not produced output.
		p.logger.Warn().Err(err).Msg("Failed to persist cache snapshot")
	}

	hits, misses := p.analyzer.Stats()
	result.Stats.CacheHits = hits
	result.Stats.CacheMisses = misses
	result.Stats.TotalTime = time.Since(start)

	return result, nil
}

// outputPath builds <dir>/<stem><suffix>, defaulting dir to the PDF's own
// directory.
func (p *Processor) outputPath(pdfPath, outputDir, suffix string) string {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(pdfPath)
	}
	return filepath.Join(dir, stem+suffix)
}
