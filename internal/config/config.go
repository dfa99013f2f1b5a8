// Package config provides unified configuration loading for the pipeline.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spherical/docpipe/internal/domain"
)

// Config holds all configuration for the document pipeline.
type Config struct {
	Model Model `yaml:"model"`
	PDF   PDF   `yaml:"pdf"`
	Cache Cache `yaml:"cache"`
	Chunk Chunk `yaml:"chunk"`
	Log   Log   `yaml:"log"`
}

// Model holds vision-language model settings.
type Model struct {
	Name      string        `yaml:"name"`
	APIKeyEnv string        `yaml:"api_key_env"` // name of the env var holding the key
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// PDF holds document conversion and pipeline settings.
type PDF struct {
	InputDir        string `yaml:"input_dir"`
	OutputDir       string `yaml:"output_dir"`
	DefaultPrompt   string `yaml:"default_prompt"` // prompt name or literal text
	ChunkStrategy   string `yaml:"chunk_strategy"` // fixed, sentence, paragraph or table
	SaveFormat      string `yaml:"save_format"`    // json or csv
	OverwriteOutput bool   `yaml:"overwrite_output"`
	DPI             int    `yaml:"dpi"`
	Quality         int    `yaml:"quality"` // JPEG quality for rendered pages
}

// Cache holds image-analysis cache settings.
type Cache struct {
	Path         string `yaml:"path"`
	ImageCache   int    `yaml:"image_cache_size"`
	SaveEveryPut bool   `yaml:"save_every_put"`
}

// Chunk holds per-strategy chunking parameters.
type Chunk struct {
	FixedSize          int `yaml:"fixed_size"`
	Overlap            int `yaml:"overlap"`
	SentencesPerChunk  int `yaml:"sentences_per_chunk"`
	ParagraphsPerChunk int `yaml:"paragraphs_per_chunk"`
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: Model{
			Name:      "qwen-vl-max",
			APIKeyEnv: "DOCPIPE_API_KEY",
			BaseURL:   "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Timeout:   5 * time.Minute,
		},
		PDF: PDF{
			InputDir:        "input",
			OutputDir:       "output",
			DefaultPrompt:   "",
			ChunkStrategy:   "fixed",
			SaveFormat:      "json",
			OverwriteOutput: true,
			DPI:             200,
			Quality:         95,
		},
		Cache: Cache{
			Path:         filepath.Join("cache", "image_cache.json"),
			ImageCache:   100,
			SaveEveryPut: true,
		},
		Chunk: Chunk{
			FixedSize:          500,
			Overlap:            50,
			SentencesPerChunk:  3,
			ParagraphsPerChunk: 2,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides lets deployment environments tweak a checked-in config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOCPIPE_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("DOCPIPE_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if v := os.Getenv("DOCPIPE_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("DOCPIPE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Model.Name == "" {
		return domain.ConfigError("model name cannot be empty", nil)
	}
	if c.Model.BaseURL == "" {
		return domain.ConfigError("model base_url cannot be empty", nil)
	}
	if c.Model.APIKeyEnv == "" {
		return domain.ConfigError("model api_key_env cannot be empty", nil)
	}
	if c.PDF.Quality < 1 || c.PDF.Quality > 100 {
		return domain.ConfigError(fmt.Sprintf("quality must be between 1 and 100, got %d", c.PDF.Quality), nil)
	}
	switch c.PDF.SaveFormat {
	case "json", "csv":
	default:
		return domain.ConfigError(fmt.Sprintf("invalid save_format: %s", c.PDF.SaveFormat), nil)
	}
	if c.Cache.Path == "" {
		return domain.ConfigError("cache path cannot be empty", nil)
	}
	return nil
}

// APIKey resolves the model API key from the environment variable named in
// the config. Callers load .env first (see cmd/docpipe).
func (c *Config) APIKey() (string, error) {
	key := os.Getenv(c.Model.APIKeyEnv)
	if key == "" {
		return "", domain.ConfigError(fmt.Sprintf("environment variable %s is not set", c.Model.APIKeyEnv), nil)
	}
	return key, nil
}

// ResolvePrompt turns the configured prompt into prompt text. When the value
// names a prompt file (<name>.txt beside baseDir, or under baseDir/prompts),
// the file contents are used; otherwise the value itself is the prompt.
// An empty value means the model client's default prompt applies.
func (c *Config) ResolvePrompt(baseDir string) (string, error) {
	name := strings.TrimSpace(c.PDF.DefaultPrompt)
	if name == "" {
		return "", nil
	}

	candidates := []string{
		filepath.Join(baseDir, name+".txt"),
		filepath.Join(baseDir, "prompts", name+".txt"),
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", domain.ConfigError("read prompt file", err)
		}
	}
	return name, nil
}
