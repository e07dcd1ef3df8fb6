// Package cmd implements the fileexplorer command line.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for fileexplorer
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fileexplorer",
		Short: "Browse a directory tree through a filtering file visitor",
		Long: `FileExplorer lists directories one level at a time through a visitor that
reports every item it finds, applies name, extension and custom filters, and
lets observers exclude items or stop the walk.

Use "serve" for the web UI and "ls" to list a directory in the terminal.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default: ~/.config/fileexplorer/config.yaml)")
	flags.String("root", "", "Directory to browse (default: config root or current directory)")
	flags.String("git-ref", "", "Browse a git ref of the root repository instead of the working tree")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	flags.Bool("show-hidden", false, "Include dot-files in listings")
	flags.Bool("gitignore", false, "Filter out entries ignored by the root .gitignore")
	flags.Int("recent", 0, "Only show entries modified within this many days")
	flags.Int64("min-size", 0, "Only show files larger than this many bytes")
	flags.Int("limit", 0, "Stop each listing after this many items (0 = unlimited)")

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewLsCommand())

	return cmd
}
