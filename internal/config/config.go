// Package config manages YAML-based configuration with .env and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "FILEEXPLORER_"

// Config holds all configuration options for FileExplorer
type Config struct {
	Root   string `yaml:"root"`
	GitRef string `yaml:"git_ref,omitempty"`

	Port  int  `yaml:"port"`
	Watch bool `yaml:"watch"`
	Open  bool `yaml:"open"`

	ShowHidden bool     `yaml:"show_hidden"`
	MaxItems   int      `yaml:"max_items,omitempty"`
	Exclude    []string `yaml:"exclude"`
	Gitignore  bool     `yaml:"gitignore"`

	// Custom filter combined with the interactive criteria
	RecentDays int   `yaml:"recent_days,omitempty"`
	MinSize    int64 `yaml:"min_size,omitempty"`

	MarkdownExtensions []string `yaml:"markdown_extensions"`
	LogLevel           string   `yaml:"log_level"`

	// Internal: path to config file for saving
	configPath string

	// mu guards Exclude once the config is shared with the server.
	mu sync.RWMutex
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Root:               ".",
		Port:               8080,
		Watch:              true,
		Open:               false,
		Exclude:            []string{"node_modules", ".git", ".svn"},
		MarkdownExtensions: []string{".md", ".markdown"},
		LogLevel:           "info",
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/fileexplorer"
	}
	return filepath.Join(home, ".config", "fileexplorer")
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load builds the configuration: defaults, then the config file, then a .env
// file in the working directory, then FILEEXPLORER_* environment variables.
// An explicit configFile must exist; otherwise ~/.config/fileexplorer/config.yaml
// and ./fileexplorer.yaml are tried in that order.
func Load(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	var cfgPath string
	if configFile != "" {
		cfgPath = configFile
	} else if _, err := os.Stat(GetConfigPath()); err == nil {
		cfgPath = GetConfigPath()
	} else if _, err := os.Stat("fileexplorer.yaml"); err == nil {
		cfgPath = "fileexplorer.yaml"
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil {
			if configFile != "" || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config %s: %w", cfgPath, err)
			}
		}
		cfg.configPath = cfgPath
	} else {
		cfg.configPath = GetConfigPath()
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.Normalize()
	return cfg, nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("ROOT"); ok {
		c.Root = v
	}
	if v, ok := get("GIT_REF"); ok {
		c.GitRef = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("EXCLUDE"); ok {
		c.Exclude = splitList(v)
	}
	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT %q: %w", EnvPrefix, v, err)
		}
		c.Port = port
	}
	if v, ok := get("MAX_ITEMS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_ITEMS %q: %w", EnvPrefix, v, err)
		}
		c.MaxItems = n
	}
	for name, dst := range map[string]*bool{
		"WATCH":       &c.Watch,
		"SHOW_HIDDEN": &c.ShowHidden,
		"GITIGNORE":   &c.Gitignore,
	} {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, name, v, err)
			}
			*dst = b
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Normalize resolves the root to an absolute path and fills in defaults for
// zero values.
func (c *Config) Normalize() {
	if c.Root == "" {
		c.Root = "."
	}
	if absPath, err := filepath.Abs(c.Root); err == nil {
		c.Root = absPath
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if len(c.MarkdownExtensions) == 0 {
		c.MarkdownExtensions = []string{".md", ".markdown"}
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Save writes the configuration to the config file. Concurrent saves, from
// this or another process, are serialized through a lock file next to it and
// the file is replaced atomically.
func (c *Config) Save() error {
	configDir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	lock := flock.New(c.configPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", c.configPath, err)
	}
	defer func() { _ = lock.Unlock() }()

	c.mu.RLock()
	data, err := yaml.Marshal(c)
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	return atomicWrite(c.configPath, data)
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// SetConfigPath changes where Save writes.
func (c *Config) SetConfigPath(path string) {
	c.configPath = path
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// SetGlobalExclude sets the global exclude patterns. It is safe to call
// while other goroutines read them.
func (c *Config) SetGlobalExclude(patterns []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Exclude = slices.Clone(patterns)
}

// ExcludePatterns returns a copy of the global exclude patterns.
func (c *Config) ExcludePatterns() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.Exclude)
}

// IsExcluded checks if a path should be excluded
func (c *Config) IsExcluded(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	base := filepath.Base(path)
	for _, exclude := range c.Exclude {
		if matched, _ := filepath.Match(exclude, base); matched {
			return true
		}
	}
	return false
}

// IsMarkdownFile checks if a file has a markdown extension
func (c *Config) IsMarkdownFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.MarkdownExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
