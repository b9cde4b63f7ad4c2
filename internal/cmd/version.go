package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the jamcord version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jamcord %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
