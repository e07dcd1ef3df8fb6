// Package visitor enumerates the immediate children of a root directory,
// filters them, and reports each step to registered observers. Observers may
// drop an entry from the result sequence or stop the walk altogether.
package visitor

import (
	"fmt"
	"iter"

	"github.com/CageChen/fileexplorer/internal/fs"
)

// Filter reports whether an entry should be kept.
type Filter func(fs.Entry) bool

// And combines two filters; both must hold.
func And(a, b Filter) Filter {
	return func(e fs.Entry) bool {
		return a(e) && b(e)
	}
}

// Mode is the filtering policy of a Visitor, fixed at construction.
type Mode int

// Filtering modes.
const (
	ModeNoFilter Mode = iota
	ModeFiltered
)

func (m Mode) String() string {
	switch m {
	case ModeNoFilter:
		return "no-filter"
	case ModeFiltered:
		return "filtered"
	default:
		return "unknown"
	}
}

// ItemEvent is passed to the observers of a found notification. Observers
// set Exclude to drop the entry from the results and Cancel to stop the walk
// after this entry.
type ItemEvent struct {
	Entry   fs.Entry
	Exclude bool
	Cancel  bool
}

// ListingError is reported when the root directory cannot be listed.
type ListingError struct {
	Path string
	Err  error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("cannot list %q: %v", e.Path, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// Option configures a Visitor.
type Option func(*options)

type options struct {
	filter Filter
	custom Filter
}

// WithFilter sets the interactive filter and switches the visitor into
// filtered mode.
func WithFilter(f Filter) Option {
	return func(o *options) { o.filter = f }
}

// WithCustomFilter sets a second filter that is ANDed with the one given to
// WithFilter. It has no effect on its own.
func WithCustomFilter(f Filter) Option {
	return func(o *options) { o.custom = f }
}

// Visitor lists one directory and notifies observers about what it finds.
// Observers must be registered before Run is ranged over; registering while a
// run is in flight is not supported.
type Visitor struct {
	root   string
	lister fs.Lister
	mode   Mode
	filter Filter

	start                  []func()
	finish                 []func()
	fileFound              []func(*ItemEvent)
	directoryFound         []func(*ItemEvent)
	filteredFileFound      []func(*ItemEvent)
	filteredDirectoryFound []func(*ItemEvent)
	errorOccurred          []func(error)
}

// New creates a Visitor for root. Without WithFilter the visitor runs in
// ModeNoFilter. Panics if lister is nil.
func New(root string, lister fs.Lister, opts ...Option) *Visitor {
	if lister == nil {
		panic("lister cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	v := &Visitor{root: root, lister: lister}
	switch {
	case o.filter == nil:
		v.mode = ModeNoFilter
	case o.custom == nil:
		v.mode = ModeFiltered
		v.filter = o.filter
	default:
		v.mode = ModeFiltered
		v.filter = And(o.filter, o.custom)
	}
	return v
}

// Root returns the directory the visitor lists.
func (v *Visitor) Root() string { return v.root }

// Mode returns the filtering policy chosen at construction.
func (v *Visitor) Mode() Mode { return v.mode }

// OnStart registers an observer called before the directory is listed.
func (v *Visitor) OnStart(fn func()) { v.start = append(v.start, fn) }

// OnFinish registers an observer called after every entry was processed.
// It is not called when the walk is cancelled or listing fails.
func (v *Visitor) OnFinish(fn func()) { v.finish = append(v.finish, fn) }

// OnFileFound registers an observer for files found in ModeNoFilter.
func (v *Visitor) OnFileFound(fn func(*ItemEvent)) { v.fileFound = append(v.fileFound, fn) }

// OnDirectoryFound registers an observer for directories found in ModeNoFilter.
func (v *Visitor) OnDirectoryFound(fn func(*ItemEvent)) {
	v.directoryFound = append(v.directoryFound, fn)
}

// OnFilteredFileFound registers an observer for files accepted by the filter.
func (v *Visitor) OnFilteredFileFound(fn func(*ItemEvent)) {
	v.filteredFileFound = append(v.filteredFileFound, fn)
}

// OnFilteredDirectoryFound registers an observer for directories accepted by the filter.
func (v *Visitor) OnFilteredDirectoryFound(fn func(*ItemEvent)) {
	v.filteredDirectoryFound = append(v.filteredDirectoryFound, fn)
}

// OnError registers an observer for listing failures. The error is a *ListingError.
func (v *Visitor) OnError(fn func(error)) { v.errorOccurred = append(v.errorOccurred, fn) }

// Run returns the sequence of entries under the root. Nothing happens until the
// sequence is ranged over; every range starts a fresh walk and notifies again.
// Listing errors are only reported through OnError. Panics raised by filters or
// observers reach the caller.
func (v *Visitor) Run() iter.Seq[fs.Entry] {
	return func(yield func(fs.Entry) bool) {
		notify(v.start)

		entries, err := v.lister.ReadDir(v.root)
		if err != nil {
			lerr := &ListingError{Path: v.root, Err: err}
			for _, fn := range v.errorOccurred {
				fn(lerr)
			}
			return
		}

		for _, entry := range entries {
			ev := &ItemEvent{Entry: entry}

			observers, ok := v.channel(entry)
			if !ok {
				continue
			}
			for _, fn := range observers {
				fn(ev)
			}

			if !ev.Exclude && !yield(entry) {
				return
			}
			if ev.Cancel {
				return
			}
		}

		notify(v.finish)
	}
}

// Collect drains Run into a slice.
func (v *Visitor) Collect() []fs.Entry {
	var out []fs.Entry
	for e := range v.Run() {
		out = append(out, e)
	}
	return out
}

// channel picks the observers to notify for entry. It returns false when the
// filter rejects the entry, in which case nothing is notified.
func (v *Visitor) channel(entry fs.Entry) ([]func(*ItemEvent), bool) {
	if v.mode == ModeFiltered {
		if !v.filter(entry) {
			return nil, false
		}
		if entry.IsDir() {
			return v.filteredDirectoryFound, true
		}
		return v.filteredFileFound, true
	}
	if entry.IsDir() {
		return v.directoryFound, true
	}
	return v.fileFound, true
}

func notify(observers []func()) {
	for _, fn := range observers {
		fn()
	}
}
