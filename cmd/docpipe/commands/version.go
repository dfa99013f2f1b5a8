package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docpipe version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
