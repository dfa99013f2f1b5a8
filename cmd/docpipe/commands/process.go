package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spherical/docpipe/internal/analyze"
	"github.com/spherical/docpipe/internal/cache"
	"github.com/spherical/docpipe/internal/chunk"
	"github.com/spherical/docpipe/internal/config"
	"github.com/spherical/docpipe/internal/llm"
	"github.com/spherical/docpipe/internal/pdf"
	"github.com/spherical/docpipe/internal/pipeline"
)

const previewChunks = 3

var (
	processPrompt   string
	processStrategy string
	processFormat   string
)

var processCmd = &cobra.Command{
	Use:   "process [pdf-files...]",
	Short: "Process PDF documents into chunked text",
	Long: `Process the given PDF files, or every *.pdf under the configured input
directory when no files are named. Each document is rendered to page images,
analyzed by the vision model (through the persistent cache), chunked and
saved in the configured output format.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processPrompt, "prompt", "p", "", "prompt name or literal prompt text (overrides config)")
	processCmd.Flags().StringVarP(&processStrategy, "strategy", "s", "", "chunk strategy: fixed, sentence, paragraph or table (overrides config)")
	processCmd.Flags().StringVarP(&processFormat, "format", "f", "", "output format: json or csv (overrides config)")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyProcessOverrides(cfg)

	if noColor {
		color.NoColor = true
	}
	logger := newLogger(cfg)

	apiKey, err := cfg.APIKey()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := llm.NewClient(llm.ClientConfig{
		APIKey:  apiKey,
		Model:   cfg.Model.Name,
		BaseURL: cfg.Model.BaseURL,
		Timeout: cfg.Model.Timeout,
	}, logger)

	if err := validateAPIKey(ctx, client); err != nil {
		return err
	}

	pdfs, err := collectPDFs(args, cfg.PDF.InputDir)
	if err != nil {
		return err
	}
	if len(pdfs) == 0 {
		return fmt.Errorf("no PDF files found under %s", cfg.PDF.InputDir)
	}

	prompt, err := cfg.ResolvePrompt(filepath.Dir(cfgFile))
	if err != nil {
		return err
	}

	analysisCache := cache.Load(cfg.Cache.Path, cfg.Cache.ImageCache, logger)
	analyzer := analyze.New(client, analysisCache, analyze.Options{
		CachePath:    cfg.Cache.Path,
		SaveEveryPut: cfg.Cache.SaveEveryPut,
		ShowProgress: true,
	}, logger)

	converter := pdf.NewConverter(cfg.PDF.DPI, logger)
	defer converter.Cleanup()

	chunker := chunk.ForName(cfg.PDF.ChunkStrategy, chunk.Options{
		FixedSize:          cfg.Chunk.FixedSize,
		Overlap:            cfg.Chunk.Overlap,
		SentencesPerChunk:  cfg.Chunk.SentencesPerChunk,
		ParagraphsPerChunk: cfg.Chunk.ParagraphsPerChunk,
	})

	processor := pipeline.NewProcessor(converter, analyzer, chunker, logger)
	opts := pipeline.Options{
		OutputDir:       cfg.PDF.OutputDir,
		Prompt:          prompt,
		SaveFormat:      cfg.PDF.SaveFormat,
		OverwriteOutput: cfg.PDF.OverwriteOutput,
		Quality:         cfg.PDF.Quality,
	}

	var failed int
	for _, pdfPath := range pdfs {
		result, err := processor.ProcessDocument(ctx, pdfPath, opts)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			color.Red("✗ %s: %v", pdfPath, err)
			continue
		}
		printSummary(pdfPath, result)
	}

	if err := analyzer.Flush(); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist cache snapshot at shutdown")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(pdfs))
	}
	return nil
}

func applyProcessOverrides(cfg *config.Config) {
	if processPrompt != "" {
		cfg.PDF.DefaultPrompt = processPrompt
	}
	if processStrategy != "" {
		cfg.PDF.ChunkStrategy = processStrategy
	}
	if processFormat != "" {
		cfg.PDF.SaveFormat = processFormat
	}
}

// validateAPIKey pings the API before a batch run so a bad key fails fast
// instead of after the first document's rendering.
func validateAPIKey(ctx context.Context, client *llm.Client) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Validating API key..."
	s.Start()
	err := client.Ping(ctx)
	s.Stop()

	if err != nil {
		return fmt.Errorf("API key validation failed: %w", err)
	}
	color.Green("✓ API key is valid")
	return nil
}

func collectPDFs(args []string, inputDir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	matches, err := filepath.Glob(filepath.Join(inputDir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("glob input directory: %w", err)
	}
	return matches, nil
}

func printSummary(pdfPath string, result *pipeline.Result) {
	color.Green("✓ %s", pdfPath)
	fmt.Printf("  extracted: %s\n", result.IntermediatePath)
	fmt.Printf("  chunks:    %s (%d chunks)\n", result.ChunksPath, result.Stats.ChunksWritten)
	fmt.Printf("  pages:     %d ok, %d failed | cache: %d hits, %d misses | %v\n",
		result.Stats.SuccessfulPages, result.Stats.FailedPages,
		result.Stats.CacheHits, result.Stats.CacheMisses,
		result.Stats.TotalTime.Round(time.Second))

	if len(result.Chunks) == 0 {
		return
	}
	fmt.Println("\nPreview of the first chunks:")
	for i, c := range result.Chunks {
		if i >= previewChunks {
			break
		}
		color.Cyan("Chunk %d:", i+1)
		fmt.Println(c)
		fmt.Println(strings.Repeat("-", 50))
	}
}
