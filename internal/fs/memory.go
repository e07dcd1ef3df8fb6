package fs

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"
)

type memNode struct {
	entry    Entry
	content  []byte
	children []string
}

// MemFS is an in-memory FileSystem. Children are listed in insertion order,
// which makes it convenient for tests that depend on listing order.
type MemFS struct {
	mu    sync.RWMutex
	nodes map[string]*memNode
	fail  map[string]error
}

// NewMemFS creates an empty in-memory filesystem containing only the root.
func NewMemFS() *MemFS {
	return &MemFS{
		nodes: map[string]*memNode{
			"": {entry: Entry{Name: "/", Kind: KindDirectory}},
		},
		fail: make(map[string]error),
	}
}

func clean(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "." {
		return ""
	}
	return p
}

// AddFile adds a file with the given content, creating parent directories.
func (m *MemFS) AddFile(p, content string) *MemFS {
	return m.AddFileWithTime(p, content, time.Now())
}

// AddFileWithTime adds a file with a specific modification time.
func (m *MemFS) AddFileWithTime(p, content string, modTime time.Time) *MemFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	m.add(p, Entry{
		Name:    path.Base(p),
		Path:    p,
		Kind:    KindFile,
		Size:    int64(len(content)),
		ModTime: modTime,
	}, []byte(content))
	return m
}

// AddDir adds an empty directory, creating parent directories.
func (m *MemFS) AddDir(p string) *MemFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	if node, ok := m.nodes[p]; ok && node.entry.IsDir() {
		return m
	}
	m.add(p, Entry{
		Name:    path.Base(p),
		Path:    p,
		Kind:    KindDirectory,
		ModTime: time.Now(),
	}, nil)
	return m
}

// FailOn makes every ReadDir of p return err.
func (m *MemFS) FailOn(p string, err error) *MemFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[clean(p)] = err
	return m
}

// add must be called with mu held. A node of the other kind already at p is
// replaced along with everything below it, and a file in the way of a parent
// becomes an empty directory. The root cannot be replaced.
func (m *MemFS) add(p string, e Entry, content []byte) {
	if p == "" {
		return
	}
	parent, _ := Parent(p)
	if node, ok := m.nodes[parent]; !ok || !node.entry.IsDir() {
		m.add(parent, Entry{
			Name:    path.Base(parent),
			Path:    parent,
			Kind:    KindDirectory,
			ModTime: e.ModTime,
		}, nil)
	}
	if existing, ok := m.nodes[p]; ok {
		if existing.entry.Kind != e.Kind {
			m.removeBelow(existing)
		}
		existing.entry = e
		existing.content = content
		return
	}
	m.nodes[p] = &memNode{entry: e, content: content}
	m.nodes[parent].children = append(m.nodes[parent].children, p)
}

// removeBelow deletes every descendant of n. mu must be held.
func (m *MemFS) removeBelow(n *memNode) {
	for _, child := range n.children {
		if c, ok := m.nodes[child]; ok {
			m.removeBelow(c)
		}
		delete(m.nodes, child)
	}
	n.children = nil
}

// ReadDir implements Lister.
func (m *MemFS) ReadDir(p string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p = clean(p)
	if err, ok := m.fail[p]; ok {
		return nil, err
	}
	node, ok := m.nodes[p]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", p, os.ErrNotExist)
	}
	if !node.entry.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", p)
	}
	result := make([]Entry, 0, len(node.children))
	for _, child := range node.children {
		result = append(result, m.nodes[child].entry)
	}
	return result, nil
}

// ReadFile implements FileSystem.
func (m *MemFS) ReadFile(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.nodes[clean(p)]
	if !ok {
		return nil, os.ErrNotExist
	}
	if node.entry.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", p)
	}
	return node.content, nil
}

// Stat implements FileSystem.
func (m *MemFS) Stat(p string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.nodes[clean(p)]
	if !ok {
		return FileInfo{}, os.ErrNotExist
	}
	return FileInfo{
		Name:    node.entry.Name,
		IsDir:   node.entry.IsDir(),
		Size:    node.entry.Size,
		ModTime: node.entry.ModTime,
	}, nil
}
