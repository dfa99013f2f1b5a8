package commands

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spherical/docpipe/internal/config"
	"github.com/spherical/docpipe/internal/observability"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "docpipe",
	Short: "Convert PDF documents into analyzed, chunked text",
	Long: `docpipe renders PDF pages to images, extracts their content through a
vision-language model, splits the extracted text into chunks and saves the
result as JSON or CSV. Analysis results are cached on disk so re-processing
a document never repeats a model call.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads .env, then the YAML config. A missing config file at the
// default path falls back to built-in defaults.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load() // .env is optional

	path := cfgFile
	if path == "config.yaml" {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	return config.Load(path)
}

// newLogger builds the run logger from config, with --verbose forcing debug.
func newLogger(cfg *config.Config) zerolog.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return observability.New(observability.LogConfig{
		Level:  level,
		Format: cfg.Log.Format,
	})
}
