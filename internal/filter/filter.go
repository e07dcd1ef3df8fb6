// Package filter builds visitor predicates: the interactive criteria typed into
// the explorer and the custom filters combined with them.
package filter

import (
	"strings"

	"github.com/CageChen/fileexplorer/internal/fs"
	"github.com/CageChen/fileexplorer/internal/visitor"
)

// Criteria are the interactive filter inputs of the explorer.
type Criteria struct {
	Name            string `json:"name,omitempty"`
	Extension       string `json:"extension,omitempty"`
	HideDirectories bool   `json:"hideDirectories,omitempty"`
	HideFiles       bool   `json:"hideFiles,omitempty"`
}

// Active reports whether any criterion is set. Inactive criteria mean the
// visitor should run without a filter.
func (c Criteria) Active() bool {
	return c.Name != "" || c.Extension != "" || c.HideDirectories || c.HideFiles
}

// Filter returns the predicate for the criteria. Name matching is a
// case-insensitive substring match; the extension only applies to files and
// may be given with or without the leading dot.
func (c Criteria) Filter() visitor.Filter {
	name := strings.ToLower(c.Name)
	ext := strings.ToLower(c.Extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return func(e fs.Entry) bool {
		if e.IsDir() && c.HideDirectories {
			return false
		}
		if !e.IsDir() && c.HideFiles {
			return false
		}
		if name != "" && !strings.Contains(strings.ToLower(e.Name), name) {
			return false
		}
		if ext != "" && !e.IsDir() && strings.ToLower(e.Ext()) != ext {
			return false
		}
		return true
	}
}

// Chain ANDs filters together, skipping nil ones. It returns nil when no
// filter remains.
func Chain(filters ...visitor.Filter) visitor.Filter {
	var active []visitor.Filter
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(e fs.Entry) bool {
		for _, f := range active {
			if !f(e) {
				return false
			}
		}
		return true
	}
}
