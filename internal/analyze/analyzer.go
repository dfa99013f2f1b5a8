// Package analyze orchestrates image analysis through the persistent cache.
// The cache never calls the model; the analyzer owns the compute-key, get,
// call-on-miss, put sequence.
package analyze

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/spherical/docpipe/internal/cache"
	"github.com/spherical/docpipe/internal/domain"
	"github.com/spherical/docpipe/internal/observability"
)

// FailedPagePlaceholder stands in for a page whose analysis failed after
// retries, so the rest of the document still gets processed.
const FailedPagePlaceholder = "[page analysis failed]"

// Options configures analyzer persistence behavior.
type Options struct {
	CachePath    string
	SaveEveryPut bool // flush the snapshot after every cache insertion
	ShowProgress bool
}

// Analyzer resolves page images to analysis results, consulting the cache
// before the model client.
type Analyzer struct {
	client domain.ModelClient
	cache  *cache.Cache
	opts   Options
	logger zerolog.Logger

	// mu makes the get-miss-put sequence atomic so "at most one model call
	// per key per run" would still hold under a future multi-worker caller.
	mu     sync.Mutex
	hits   int
	misses int
}

// New creates an analyzer over the given model client and cache.
func New(client domain.ModelClient, c *cache.Cache, opts Options, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		cache:  c,
		opts:   opts,
		logger: observability.WithComponent(logger, "analyze"),
	}
}

// AnalyzeImage analyzes a single page image with the given prompt, serving
// from the cache when the same (image, prompt) pair has been seen before.
func (a *Analyzer) AnalyzeImage(ctx context.Context, imagePath, prompt string) (domain.AnalysisResult, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return domain.AnalysisResult{}, domain.IOError("read page image", err)
	}

	key := cache.Key(imageBytes, prompt)

	a.mu.Lock()
	defer a.mu.Unlock()

	if result, ok := a.cache.Get(key); ok {
		a.hits++
		result.Cached = true
		a.logger.Debug().Str("key", key).Msg("Cache hit")
		return result, nil
	}
	a.misses++

	result, err := a.client.Analyze(ctx, imageBytes, prompt)
	if err != nil {
		// Flush what the cache has so a crash-looping batch keeps its
		// progress (the original tool did the same on analysis failure).
		a.flushLocked()
		return domain.AnalysisResult{}, err
	}

	a.cache.Put(key, result)
	if a.opts.SaveEveryPut {
		a.flushLocked()
	}
	return result, nil
}

// AnalyzeImages analyzes a batch of page images in page order. A failed page
// is reported in its PageAnalysis entry instead of aborting the batch.
func (a *Analyzer) AnalyzeImages(ctx context.Context, images []domain.PageImage, prompt string) ([]domain.PageAnalysis, error) {
	bar := a.newProgressBar(len(images))

	analyses := make([]domain.PageAnalysis, 0, len(images))
	for _, img := range images {
		select {
		case <-ctx.Done():
			return analyses, ctx.Err()
		default:
		}

		result, err := a.AnalyzeImage(ctx, img.ImagePath, prompt)
		if err != nil {
			a.logger.Error().Int("page", img.PageNumber).Err(err).Msg("Page analysis failed")
			analyses = append(analyses, domain.PageAnalysis{PageNumber: img.PageNumber, Err: err})
		} else {
			analyses = append(analyses, domain.PageAnalysis{PageNumber: img.PageNumber, Result: result})
		}
		bar.Add(1)
	}

	return analyses, nil
}

// Flush persists the cache snapshot.
func (a *Analyzer) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cache.Save(a.opts.CachePath)
}

// Stats returns cache hit/miss counters for this run.
func (a *Analyzer) Stats() (hits, misses int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits, a.misses
}

// flushLocked saves the snapshot; callers hold a.mu. A failed save is
// reported but never aborts analysis: caching is an optimization.
func (a *Analyzer) flushLocked() {
	if err := a.cache.Save(a.opts.CachePath); err != nil {
		a.logger.Warn().Err(err).Str("path", a.opts.CachePath).Msg("Failed to persist cache snapshot")
	}
}

func (a *Analyzer) newProgressBar(total int) *progressbar.ProgressBar {
	if !a.opts.ShowProgress {
		return progressbar.NewOptions(total, progressbar.OptionSetWriter(io.Discard))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Analyzing pages"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
