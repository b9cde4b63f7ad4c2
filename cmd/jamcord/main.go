package main

import (
	"os"

	"github.com/irdumbs/jamcord/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
