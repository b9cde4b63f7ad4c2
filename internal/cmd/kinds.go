package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/irdumbs/jamcord/internal/evaluator"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List available interpreter kinds",
	RunE:  runKinds,
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}

func runKinds(cmd *cobra.Command, args []string) error {
	for _, kind := range evaluator.Kinds() {
		prof, err := evaluator.Lookup(kind, "")
		if err != nil {
			continue
		}
		fmt.Printf("%-10s %s\n", kind, strings.Join(prof.Command, " "))
	}
	return nil
}
