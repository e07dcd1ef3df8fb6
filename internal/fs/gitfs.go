package fs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"
	"time"
)

// GitFS reads a snapshot of a repository at a ref (branch, tag, or commit)
// through the git command line. Nothing in the working tree is touched.
type GitFS struct {
	repoPath string
	ref      string
}

// NewGitFS creates a GitFS over the ref of the repository at repoPath.
func NewGitFS(repoPath, ref string) *GitFS {
	return &GitFS{repoPath: repoPath, ref: ref}
}

// Ref returns the ref being browsed.
func (g *GitFS) Ref() string {
	return g.ref
}

// treeEntry is one record of `git ls-tree --long -z`.
type treeEntry struct {
	name string
	kind Kind
	size int64
}

func (g *GitFS) run(args ...string) ([]byte, error) {
	cmd := exec.Command("git", append([]string{"-C", g.repoPath}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			if strings.Contains(stderr, "not exist") || strings.Contains(stderr, "Not a valid object name") {
				return nil, fmt.Errorf("git %s: %s: %w", args[0], stderr, os.ErrNotExist)
			}
			return nil, fmt.Errorf("git %s: %s", args[0], stderr)
		}
		return nil, err
	}
	return out, nil
}

// lsTree runs ls-tree for pathspec. A pathspec ending in "/" lists the
// children of that directory; otherwise the entry itself is returned.
func (g *GitFS) lsTree(pathspec string) ([]treeEntry, error) {
	args := []string{"ls-tree", "--long", "-z", g.ref}
	if pathspec != "" {
		args = append(args, "--", pathspec)
	}
	out, err := g.run(args...)
	if err != nil {
		return nil, err
	}

	var entries []treeEntry
	for _, record := range bytes.Split(out, []byte{0}) {
		// "<mode> <type> <hash> <size>\t<path>"
		meta, name, ok := strings.Cut(string(record), "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) < 4 {
			continue
		}
		e := treeEntry{name: path.Base(name), kind: KindFile}
		switch fields[1] {
		case "tree":
			e.kind = KindDirectory
		case "blob":
			e.size, _ = strconv.ParseInt(fields[3], 10, 64)
		default:
			// submodules are commits without content in this repository
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// lastCommitTime returns when p was last changed on the ref, or the zero time.
func (g *GitFS) lastCommitTime(p string) time.Time {
	args := []string{"log", "-1", "--format=%ct", g.ref}
	if p != "" {
		args = append(args, "--", p)
	}
	out, err := g.run(args...)
	if err != nil {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// ReadFile returns the content of the blob at p.
func (g *GitFS) ReadFile(p string) ([]byte, error) {
	p = clean(p)
	if p == "" {
		return nil, fmt.Errorf("cannot read directory as file")
	}
	return g.run("cat-file", "blob", g.ref+":"+p)
}

// Stat describes p on the ref. The root is the ref itself.
func (g *GitFS) Stat(p string) (FileInfo, error) {
	p = clean(p)
	if p == "" {
		if _, err := g.run("rev-parse", "--verify", "--quiet", g.ref+"^{tree}"); err != nil {
			return FileInfo{}, os.ErrNotExist
		}
		return FileInfo{Name: g.ref, IsDir: true, ModTime: g.lastCommitTime("")}, nil
	}

	entries, err := g.lsTree(p)
	if err != nil {
		return FileInfo{}, err
	}
	if len(entries) != 1 {
		return FileInfo{}, os.ErrNotExist
	}
	e := entries[0]
	return FileInfo{
		Name:    e.name,
		IsDir:   e.kind == KindDirectory,
		Size:    e.size,
		ModTime: g.lastCommitTime(p),
	}, nil
}

// ReadDir lists the children of directory p. Sizes come from ls-tree;
// modification times are left zero since each would cost a `git log`.
func (g *GitFS) ReadDir(p string) ([]Entry, error) {
	p = clean(p)
	pathspec := ""
	if p != "" {
		pathspec = p + "/"
	}
	children, err := g.lsTree(pathspec)
	if err != nil {
		return nil, err
	}

	// ls-tree prints nothing both for missing paths and for files
	if len(children) == 0 && p != "" {
		info, err := g.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p, err)
		}
		if !info.IsDir {
			return nil, fmt.Errorf("not a directory: %s", p)
		}
	}

	entries := make([]Entry, 0, len(children))
	for _, c := range children {
		entries = append(entries, Entry{
			Name: c.name,
			Path: Join(p, c.name),
			Kind: c.kind,
			Size: c.size,
		})
	}
	return entries, nil
}
