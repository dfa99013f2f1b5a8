package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/docpipe/internal/config"
)

func TestApplyProcessOverrides(t *testing.T) {
	processPrompt = "invoice_extraction"
	processStrategy = "sentence"
	processFormat = "csv"
	t.Cleanup(func() {
		processPrompt, processStrategy, processFormat = "", "", ""
	})

	cfg := config.DefaultConfig()
	applyProcessOverrides(cfg)

	assert.Equal(t, "invoice_extraction", cfg.PDF.DefaultPrompt)
	assert.Equal(t, "sentence", cfg.PDF.ChunkStrategy)
	assert.Equal(t, "csv", cfg.PDF.SaveFormat)
}

func TestApplyProcessOverridesKeepsConfigWhenFlagsUnset(t *testing.T) {
	cfg := config.DefaultConfig()
	want := *cfg
	applyProcessOverrides(cfg)

	assert.Equal(t, want.PDF.DefaultPrompt, cfg.PDF.DefaultPrompt)
	assert.Equal(t, want.PDF.ChunkStrategy, cfg.PDF.ChunkStrategy)
	assert.Equal(t, want.PDF.SaveFormat, cfg.PDF.SaveFormat)
}

// A prompt name passed via --prompt resolves through the same prompt-file
// lookup as a name from the config file.
func TestPromptFlagResolvesPromptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prompts"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "prompts", "invoice_extraction.txt"),
		[]byte("Extract every line item as a Markdown table."), 0o644))

	processPrompt = "invoice_extraction"
	t.Cleanup(func() { processPrompt = "" })

	cfg := config.DefaultConfig()
	applyProcessOverrides(cfg)

	prompt, err := cfg.ResolvePrompt(dir)
	require.NoError(t, err)
	assert.Equal(t, "Extract every line item as a Markdown table.", prompt)
}
