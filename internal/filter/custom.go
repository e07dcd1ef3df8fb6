package filter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CageChen/fileexplorer/internal/fs"
	"github.com/CageChen/fileexplorer/internal/visitor"
	gitignore "github.com/denormal/go-gitignore"
)

// Options describes the custom filter assembled from configuration and flags.
// Zero fields are not applied.
type Options struct {
	Exclude    []string
	RecentDays int
	MinSize    int64
	Gitignore  visitor.Filter
}

// Build returns the conjunction of the configured filters, or nil when none
// is configured.
func (o Options) Build(now time.Time) visitor.Filter {
	var recent, size visitor.Filter
	if o.RecentDays > 0 {
		recent = ModifiedWithin(time.Duration(o.RecentDays)*24*time.Hour, now)
	}
	if o.MinSize > 0 {
		size = LargerThan(o.MinSize)
	}
	return Chain(ExcludePatterns(o.Exclude), recent, size, o.Gitignore)
}

// ModifiedWithin keeps entries modified less than d before now.
func ModifiedWithin(d time.Duration, now time.Time) visitor.Filter {
	cutoff := now.Add(-d)
	return func(e fs.Entry) bool {
		return e.ModTime.After(cutoff)
	}
}

// LargerThan keeps files bigger than n bytes. Directories always pass.
func LargerThan(n int64) visitor.Filter {
	return func(e fs.Entry) bool {
		return e.IsDir() || e.Size > n
	}
}

// ExcludePatterns drops entries whose name matches any of the glob patterns.
// Malformed patterns never match.
func ExcludePatterns(patterns []string) visitor.Filter {
	if len(patterns) == 0 {
		return nil
	}
	return func(e fs.Entry) bool {
		for _, pattern := range patterns {
			if matched, _ := filepath.Match(pattern, e.Name); matched {
				return false
			}
		}
		return true
	}
}

// Gitignore drops entries ignored by the given rules. Entry paths are matched
// relative to base, the directory the rules were read from; entries outside
// base always pass. Unparsable lines are skipped.
func Gitignore(rules io.Reader, base string) visitor.Filter {
	ignore := gitignore.New(rules, base, func(gitignore.Error) bool { return true })
	prefix := strings.Trim(base, "/")
	return func(e fs.Entry) bool {
		rel := e.Path
		if prefix != "" {
			if !strings.HasPrefix(rel, prefix+"/") {
				return true
			}
			rel = strings.TrimPrefix(rel, prefix+"/")
		}
		m := ignore.Relative(rel, e.IsDir())
		return m == nil || !m.Ignore()
	}
}

// LoadGitignore reads .gitignore from dir and returns a Gitignore filter. A
// missing file yields a nil filter.
func LoadGitignore(fsys fs.FileSystem, dir string) (visitor.Filter, error) {
	path := fs.Join(dir, ".gitignore")
	if _, err := fsys.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Gitignore(bytes.NewReader(data), dir), nil
}
