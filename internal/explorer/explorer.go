// Package explorer drives the visitor for an interactive file browser: it keeps
// the current directory and filter inputs, turns visitor notifications into
// log lines and events, and returns the listing ready to display.
package explorer

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/CageChen/fileexplorer/internal/filter"
	"github.com/CageChen/fileexplorer/internal/fs"
	"github.com/CageChen/fileexplorer/internal/visitor"
	"github.com/google/uuid"
)

// ErrInvalidPath is returned for paths that try to escape the root.
var ErrInvalidPath = errors.New("invalid path")

// Item is one row of a listing.
type Item struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	IsDirectory bool      `json:"isDirectory"`
	Size        int64     `json:"size,omitempty"`
	ModTime     time.Time `json:"modTime,omitempty"`
}

// Listing is the outcome of one load of the current directory.
type Listing struct {
	RunID     string          `json:"runId"`
	Path      string          `json:"path"`
	Criteria  filter.Criteria `json:"criteria"`
	Mode      string          `json:"mode"`
	Items     []Item          `json:"items"`
	Logs      []string        `json:"logs"`
	Completed bool            `json:"completed"`
	Cancelled bool            `json:"cancelled"`
	Error     string          `json:"error,omitempty"`
}

// Options configures an Explorer.
type Options struct {
	// Custom is ANDed with the interactive criteria. When set, the visitor
	// always runs in filtered mode.
	Custom visitor.Filter
	// ShowHidden keeps dot-files in listings.
	ShowHidden bool
	// Exclude drops entries whose name matches one of these glob patterns
	// from the listing. They are still notified.
	Exclude []string
	// MaxItems cancels the walk once that many items were collected. Zero means no limit.
	MaxItems int
	// Now is the clock used for log timestamps.
	Now func() time.Time
}

// Explorer is a browsing session over one filesystem.
type Explorer struct {
	fsys fs.FileSystem
	opts Options

	mu       sync.Mutex
	path     string
	criteria filter.Criteria
	sinks    []Sink
}

// New creates an Explorer positioned at the root of fsys. Panics if fsys is nil.
func New(fsys fs.FileSystem, opts Options) *Explorer {
	if fsys == nil {
		panic("filesystem cannot be nil")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Explorer{fsys: fsys, opts: opts}
}

// Subscribe registers a sink for the events of every subsequent load.
func (x *Explorer) Subscribe(s Sink) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.sinks = append(x.sinks, s)
}

// Path returns the current directory.
func (x *Explorer) Path() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.path
}

// SetCriteria replaces the interactive filter inputs.
func (x *Explorer) SetCriteria(c filter.Criteria) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.criteria = c
}

// SetPath moves to p without checking that it exists; a missing directory shows
// up as an error in the next listing.
func (x *Explorer) SetPath(p string) error {
	cleaned, err := CleanPath(p)
	if err != nil {
		return err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.path = cleaned
	return nil
}

// Navigate moves into directory p and loads it. The current directory is left
// unchanged when p is not an existing directory.
func (x *Explorer) Navigate(p string) (Listing, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return Listing{}, err
	}
	info, err := x.fsys.Stat(cleaned)
	if err != nil {
		return Listing{}, fmt.Errorf("failed to access %q: %w", cleaned, err)
	}
	if !info.IsDir {
		return Listing{}, fmt.Errorf("not a directory: %s", cleaned)
	}
	x.mu.Lock()
	x.path = cleaned
	x.mu.Unlock()
	return x.Load(), nil
}

// GoBack moves to the parent directory and loads it. At the root it reloads
// the root.
func (x *Explorer) GoBack() Listing {
	x.mu.Lock()
	if parent, ok := fs.Parent(x.path); ok {
		x.path = parent
	}
	x.mu.Unlock()
	return x.Load()
}

// Load lists the current directory with the current criteria. Directories are
// sorted before files; otherwise the listing order is kept.
func (x *Explorer) Load() Listing {
	x.mu.Lock()
	dir := x.path
	criteria := x.criteria
	sinks := append([]Sink(nil), x.sinks...)
	x.mu.Unlock()

	run := &run{
		id:    uuid.NewString(),
		path:  dir,
		now:   x.opts.Now,
		sinks: sinks,
	}

	v := visitor.New(dir, x.fsys, x.visitorOptions(criteria)...)
	run.observe(v, x.opts)

	listing := Listing{
		RunID:    run.id,
		Path:     dir,
		Criteria: criteria,
		Mode:     v.Mode().String(),
		Items:    []Item{},
	}
	for entry := range v.Run() {
		listing.Items = append(listing.Items, Item{
			Name:        entry.Name,
			Path:        entry.Path,
			IsDirectory: entry.IsDir(),
			Size:        entry.Size,
			ModTime:     entry.ModTime,
		})
	}
	sort.SliceStable(listing.Items, func(i, j int) bool {
		return listing.Items[i].IsDirectory && !listing.Items[j].IsDirectory
	})

	listing.Logs = run.logs
	listing.Completed = run.finished
	if run.err != nil {
		listing.Error = run.err.Error()
	}
	listing.Cancelled = !run.finished && run.err == nil
	return listing
}

func (x *Explorer) visitorOptions(c filter.Criteria) []visitor.Option {
	if x.opts.Custom != nil {
		return []visitor.Option{
			visitor.WithFilter(c.Filter()),
			visitor.WithCustomFilter(x.opts.Custom),
		}
	}
	if c.Active() {
		return []visitor.Option{visitor.WithFilter(c.Filter())}
	}
	return nil
}

// CleanPath normalizes a slash-separated path relative to the root and
// rejects paths containing "..".
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	p = strings.Trim(path.Clean("/"+p), "/")
	return p, nil
}
