// Package fs provides the directory listing abstraction the visitor walks, with
// implementations backed by local disk, a git object database, or memory.
package fs

import (
	"path"
	"strings"
	"time"
)

// Kind tells files and directories apart. Exactly one kind holds per entry.
type Kind int

// Entry kinds.
const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Entry is an immutable snapshot of one child returned by a Lister.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Kind    Kind      `json:"-"`
	Size    int64     `json:"size,omitempty"`
	ModTime time.Time `json:"modTime,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// Ext returns the file extension including the leading dot, or "" for
// directories and extensionless files.
func (e Entry) Ext() string {
	if e.IsDir() {
		return ""
	}
	return path.Ext(e.Name)
}

// FileInfo holds file metadata.
type FileInfo struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Lister lists the immediate children of a directory. Implementations return
// either the complete child set or an error, never a partial result.
type Lister interface {
	ReadDir(path string) ([]Entry, error)
}

// FileSystem abstracts file operations so callers can work with either
// the local filesystem or a git object database.
type FileSystem interface {
	Lister
	ReadFile(path string) ([]byte, error)
	Stat(path string) (FileInfo, error)
}

// Join joins a directory path and a child name using forward slashes. An
// empty or "." dir yields the bare name.
func Join(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

// Parent returns the parent of a slash-separated relative path, and false when
// p is already the root.
func Parent(p string) (string, bool) {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return "", false
	}
	dir := path.Dir(p)
	if dir == "." {
		return "", true
	}
	return dir, true
}
