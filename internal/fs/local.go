package fs

import (
	"fmt"
	iofs "io/fs"
	"os"
	"path"
)

// LocalFS serves a directory of the local disk. Paths are slash-separated and
// relative to the root; ".." segments are resolved against the root, so no
// path leaves it.
type LocalFS struct {
	root string
	fsys iofs.FS
}

// NewLocalFS creates a LocalFS rooted at dir.
func NewLocalFS(dir string) *LocalFS {
	return &LocalFS{root: dir, fsys: os.DirFS(dir)}
}

// Root returns the directory all paths are resolved against.
func (l *LocalFS) Root() string {
	return l.root
}

// name converts a lister path to an io/fs name, where the root is ".".
func fsName(p string) string {
	if p = clean(p); p == "" {
		return "."
	}
	return p
}

// ReadFile reads the file at p.
func (l *LocalFS) ReadFile(p string) ([]byte, error) {
	return iofs.ReadFile(l.fsys, fsName(p))
}

// Stat describes the file or directory at p, following symlinks.
func (l *LocalFS) Stat(p string) (FileInfo, error) {
	info, err := iofs.Stat(l.fsys, fsName(p))
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// ReadDir lists the children of directory p sorted by name. When the metadata
// of any child cannot be read, for example because it was removed meanwhile,
// the whole listing fails.
func (l *LocalFS) ReadDir(p string) ([]Entry, error) {
	dir := fsName(p)
	children, err := iofs.ReadDir(l.fsys, dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(children))
	for _, child := range children {
		info, err := l.childInfo(dir, child)
		if err != nil {
			return nil, fmt.Errorf("stat %s in %s: %w", child.Name(), dir, err)
		}
		e := Entry{
			Name:    child.Name(),
			Path:    Join(clean(p), child.Name()),
			Kind:    KindFile,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if info.IsDir() {
			e.Kind = KindDirectory
			e.Size = 0
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// childInfo describes a directory entry the way Stat does: symlinks are
// followed, and a dangling link is described by the link itself.
func (l *LocalFS) childInfo(dir string, child iofs.DirEntry) (iofs.FileInfo, error) {
	if child.Type()&iofs.ModeSymlink != 0 {
		if info, err := iofs.Stat(l.fsys, path.Join(dir, child.Name())); err == nil {
			return info, nil
		}
	}
	return child.Info()
}
