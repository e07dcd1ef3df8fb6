// Package main is the entry point for the fileexplorer command.
package main

import (
	"os"

	"github.com/CageChen/fileexplorer/internal/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
