package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/docpipe/internal/analyze"
	"github.com/spherical/docpipe/internal/cache"
	"github.com/spherical/docpipe/internal/chunk"
	"github.com/spherical/docpipe/internal/domain"
	"github.com/spherical/docpipe/internal/observability"
)

// fakeConverter pretends a PDF has a fixed set of pages, materialized as
// small files so the analyzer can read them.
type fakeConverter struct {
	dir     string
	pages   []string
	fail    bool
	cleaned bool
}

func (f *fakeConverter) Convert(_ context.Context, _ string, _ int) ([]domain.PageImage, error) {
	if f.fail {
		return nil, domain.ConversionError("broken pdf", nil)
	}
	images := make([]domain.PageImage, 0, len(f.pages))
	for i, content := range f.pages {
		path := filepath.Join(f.dir, fmt.Sprintf("page_%03d.jpg", i+1))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, err
		}
		images = append(images, domain.PageImage{PageNumber: i + 1, ImagePath: path})
	}
	return images, nil
}

func (f *fakeConverter) Cleanup() error {
	f.cleaned = true
	return nil
}

// echoModel returns a per-page text derived from the page bytes.
type echoModel struct {
	calls    int
	failPage string
}

func (m *echoModel) Analyze(_ context.Context, imageBytes []byte, _ string) (domain.AnalysisResult, error) {
	m.calls++
	if m.failPage != "" && string(imageBytes) == m.failPage {
		return domain.AnalysisResult{}, errors.New("model failure")
	}
	return domain.AnalysisResult{Content: "Text of " + string(imageBytes) + "."}, nil
}

func (m *echoModel) Ping(context.Context) error { return nil }

func newProcessor(t *testing.T, conv domain.Converter, model domain.ModelClient) *Processor {
	t.Helper()
	analyzer := analyze.New(model, cache.New(100, observability.Nop()), analyze.Options{
		CachePath: filepath.Join(t.TempDir(), "image_cache.json"),
	}, observability.Nop())
	chunker := chunk.ForName("paragraph", chunk.Options{ParagraphsPerChunk: 1})
	return NewProcessor(conv, analyzer, chunker, observability.Nop())
}

func TestProcessDocument(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	conv := &fakeConverter{dir: t.TempDir(), pages: []string{"page-one", "page-two"}}
	model := &echoModel{}

	p := newProcessor(t, conv, model)
	result, err := p.ProcessDocument(context.Background(), "/docs/brochure.pdf", Options{
		OutputDir:       outDir,
		SaveFormat:      "json",
		OverwriteOutput: true,
		Quality:         95,
	})
	require.NoError(t, err)

	// Intermediate markdown holds the joined page texts.
	assert.Equal(t, filepath.Join(outDir, "brochure_extracted_content.md"), result.IntermediatePath)
	content, err := os.ReadFile(result.IntermediatePath)
	require.NoError(t, err)
	assert.Equal(t, "Text of page-one.\n\nText of page-two.", string(content))

	// Chunk output is valid JSON with one chunk per paragraph.
	assert.Equal(t, filepath.Join(outDir, "brochure_chunks.json"), result.ChunksPath)
	data, err := os.ReadFile(result.ChunksPath)
	require.NoError(t, err)
	var payload struct {
		Chunks      []string `json:"chunks"`
		TotalChunks int      `json:"total_chunks"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, []string{"Text of page-one.", "Text of page-two."}, payload.Chunks)

	assert.Equal(t, 2, result.Stats.PagesProcessed)
	assert.Equal(t, 2, result.Stats.SuccessfulPages)
	assert.Equal(t, 0, result.Stats.FailedPages)
	assert.Equal(t, 2, result.Stats.CacheMisses)
}

func TestProcessDocumentReusesCacheAcrossRuns(t *testing.T) {
	conv := &fakeConverter{dir: t.TempDir(), pages: []string{"page-one"}}
	model := &echoModel{}
	p := newProcessor(t, conv, model)

	opts := Options{OutputDir: t.TempDir(), SaveFormat: "json", OverwriteOutput: true, Quality: 95}

	_, err := p.ProcessDocument(context.Background(), "/docs/a.pdf", opts)
	require.NoError(t, err)
	_, err = p.ProcessDocument(context.Background(), "/docs/a.pdf", opts)
	require.NoError(t, err)

	assert.Equal(t, 1, model.calls, "second run must be served from the cache")
}

func TestProcessDocumentFailedPageGetsPlaceholder(t *testing.T) {
	conv := &fakeConverter{dir: t.TempDir(), pages: []string{"good-page", "bad-page", "other-page"}}
	model := &echoModel{failPage: "bad-page"}
	p := newProcessor(t, conv, model)

	result, err := p.ProcessDocument(context.Background(), "/docs/doc.pdf", Options{
		OutputDir:       t.TempDir(),
		SaveFormat:      "json",
		OverwriteOutput: true,
		Quality:         95,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.FailedPages)
	assert.Equal(t, 2, result.Stats.SuccessfulPages)
	require.Len(t, result.Stats.Errors, 1)

	content, err := os.ReadFile(result.IntermediatePath)
	require.NoError(t, err)
	assert.Contains(t, string(content), analyze.FailedPagePlaceholder)
}

func TestProcessDocumentAllPagesFailed(t *testing.T) {
	conv := &fakeConverter{dir: t.TempDir(), pages: []string{"bad-page"}}
	model := &echoModel{failPage: "bad-page"}
	p := newProcessor(t, conv, model)

	_, err := p.ProcessDocument(context.Background(), "/docs/doc.pdf", Options{
		OutputDir:  t.TempDir(),
		SaveFormat: "json",
		Quality:    95,
	})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeAnalysis))
}

func TestProcessDocumentConversionFailure(t *testing.T) {
	conv := &fakeConverter{fail: true}
	p := newProcessor(t, conv, &echoModel{})

	_, err := p.ProcessDocument(context.Background(), "/docs/doc.pdf", Options{
		OutputDir:  t.TempDir(),
		SaveFormat: "json",
		Quality:    95,
	})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConversion))
}

func TestProcessDocumentNoOverwrite(t *testing.T) {
	outDir := t.TempDir()
	conv := &fakeConverter{dir: t.TempDir(), pages: []string{"page-one"}}
	p := newProcessor(t, conv, &echoModel{})

	opts := Options{OutputDir: outDir, SaveFormat: "json", OverwriteOutput: false, Quality: 95}

	first, err := p.ProcessDocument(context.Background(), "/docs/doc.pdf", opts)
	require.NoError(t, err)
	second, err := p.ProcessDocument(context.Background(), "/docs/doc.pdf", opts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "doc_chunks.json"), first.ChunksPath)
	assert.Equal(t, filepath.Join(outDir, "doc_chunks_1.json"), second.ChunksPath)
}

func TestProcessDocumentCSVOutput(t *testing.T) {
	conv := &fakeConverter{dir: t.TempDir(), pages: []string{"page-one"}}
	p := newProcessor(t, conv, &echoModel{})

	result, err := p.ProcessDocument(context.Background(), "/docs/doc.pdf", Options{
		OutputDir:       t.TempDir(),
		SaveFormat:      "csv",
		OverwriteOutput: true,
		Quality:         95,
	})
	require.NoError(t, err)
	assert.True(t, filepath.Ext(result.ChunksPath) == ".csv")

	data, err := os.ReadFile(result.ChunksPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "chunk_id,content")
}
