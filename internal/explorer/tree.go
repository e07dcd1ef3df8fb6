package explorer

import (
	"github.com/CageChen/fileexplorer/internal/fs"
	"github.com/CageChen/fileexplorer/internal/visitor"
	"github.com/google/uuid"
)

// Node is an entry together with the entries found below it.
type Node struct {
	Entry    fs.Entry `json:"entry"`
	Depth    int      `json:"depth"`
	Children []*Node  `json:"children,omitempty"`
}

// Factory builds the visitor for one directory. It is called again for every
// directory descended into, so observers registered by the factory see the
// notifications of each level.
type Factory func(dir string, depth int) *visitor.Visitor

// Tree lists root and, up to maxDepth levels, every directory the visitors
// yield. A maxDepth below 1 is treated as 1. Subdirectories are listed as soon
// as they are yielded, so notifications arrive depth first.
func Tree(newVisitor Factory, root string, maxDepth int) []*Node {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return tree(newVisitor, root, 1, maxDepth)
}

func tree(newVisitor Factory, dir string, depth, maxDepth int) []*Node {
	var nodes []*Node
	for entry := range newVisitor(dir, depth).Run() {
		node := &Node{Entry: entry, Depth: depth}
		if entry.IsDir() && depth < maxDepth {
			node.Children = tree(newVisitor, entry.Path, depth+1, maxDepth)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// Tree lists the current directory and its subdirectories up to maxDepth
// levels, applying the session's criteria and policies to every level. Each
// directory is a separate run with its own ID and its own MaxItems budget;
// events go to the subscribed sinks. Directories that could not be listed are
// reported in the returned error messages.
func (x *Explorer) Tree(maxDepth int) ([]*Node, []string) {
	x.mu.Lock()
	dir := x.path
	criteria := x.criteria
	sinks := append([]Sink(nil), x.sinks...)
	x.mu.Unlock()

	var errs []string
	factory := func(d string, _ int) *visitor.Visitor {
		r := &run{
			id:    uuid.NewString(),
			path:  d,
			now:   x.opts.Now,
			sinks: sinks,
		}
		v := visitor.New(d, x.fsys, x.visitorOptions(criteria)...)
		r.observe(v, x.opts)
		v.OnError(func(err error) { errs = append(errs, err.Error()) })
		return v
	}
	return Tree(factory, dir, maxDepth), errs
}
