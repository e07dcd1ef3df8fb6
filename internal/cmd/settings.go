package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/CageChen/fileexplorer/internal/config"
	"github.com/CageChen/fileexplorer/internal/filter"
	mfs "github.com/CageChen/fileexplorer/internal/fs"
	"github.com/CageChen/fileexplorer/internal/logger"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file and environment, then applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config")

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}
	if changed("root") {
		cfg.Root, _ = flags.GetString("root")
	}
	if changed("git-ref") {
		cfg.GitRef, _ = flags.GetString("git-ref")
	}
	if changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if changed("show-hidden") {
		cfg.ShowHidden, _ = flags.GetBool("show-hidden")
	}
	if changed("gitignore") {
		cfg.Gitignore, _ = flags.GetBool("gitignore")
	}
	if changed("recent") {
		cfg.RecentDays, _ = flags.GetInt("recent")
	}
	if changed("min-size") {
		cfg.MinSize, _ = flags.GetInt64("min-size")
	}
	if changed("limit") {
		cfg.MaxItems, _ = flags.GetInt("limit")
	}
	if changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if changed("watch") {
		cfg.Watch, _ = flags.GetBool("watch")
	}
	if changed("open") {
		cfg.Open, _ = flags.GetBool("open")
	}

	cfg.Normalize()
	return cfg, nil
}

// openFS returns the filesystem the config points at: the working tree under
// Root, or a git ref of the repository at Root.
func openFS(cfg *config.Config) (mfs.FileSystem, error) {
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("cannot open root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", cfg.Root)
	}
	if cfg.GitRef != "" {
		return mfs.NewGitFS(cfg.Root, cfg.GitRef), nil
	}
	return mfs.NewLocalFS(cfg.Root), nil
}

// customOptions collects the custom filter settings of cfg.
func customOptions(cfg *config.Config, fsys mfs.FileSystem) (filter.Options, error) {
	opts := filter.Options{
		RecentDays: cfg.RecentDays,
		MinSize:    cfg.MinSize,
	}
	if cfg.Gitignore {
		ignore, err := filter.LoadGitignore(fsys, "")
		if err != nil {
			return filter.Options{}, err
		}
		opts.Gitignore = ignore
	}
	return opts, nil
}

func newLogger(cfg *config.Config, w io.Writer) *logger.Logger {
	return logger.New(w, cfg.LogLevel)
}
