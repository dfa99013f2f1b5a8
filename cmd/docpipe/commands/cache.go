package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical/docpipe/internal/cache"
	"github.com/spherical/docpipe/internal/observability"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the image-analysis cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache snapshot statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c := cache.Load(cfg.Cache.Path, cfg.Cache.ImageCache, observability.Nop())
		fmt.Printf("Snapshot: %s\n", cfg.Cache.Path)
		fmt.Printf("Entries:  %d / %d\n", c.Len(), c.Capacity())

		if verbose {
			for i, key := range c.Keys() {
				fmt.Printf("  %3d  %s\n", i+1, key)
			}
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := os.Remove(cfg.Cache.Path); err != nil {
			if os.IsNotExist(err) {
				fmt.Println("No cache snapshot to clear")
				return nil
			}
			return fmt.Errorf("remove cache snapshot: %w", err)
		}
		fmt.Printf("Removed %s\n", cfg.Cache.Path)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
