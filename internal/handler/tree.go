// Package handler provides HTTP handlers for the FileExplorer REST API.
package handler

import (
	"net/http"
	"time"

	"github.com/CageChen/fileexplorer/internal/config"
	"github.com/CageChen/fileexplorer/internal/explorer"
	"github.com/CageChen/fileexplorer/internal/filter"
	mfs "github.com/CageChen/fileexplorer/internal/fs"
	"github.com/CageChen/fileexplorer/internal/logger"
	"github.com/gin-gonic/gin"
)

// DirWatcher is notified of every directory that was listed successfully.
type DirWatcher interface {
	Watch(dir string) error
}

// TreeHandler handles directory listing API requests
type TreeHandler struct {
	cfg     *config.Config
	fs      mfs.FileSystem
	custom  filter.Options
	log     *logger.Logger
	sinks   []explorer.Sink
	watcher DirWatcher
	now     func() time.Time
}

// NewTreeHandler creates a new tree handler. custom carries the filters from
// configuration; request parameters may add to them.
func NewTreeHandler(cfg *config.Config, fs mfs.FileSystem, custom filter.Options, log *logger.Logger) *TreeHandler {
	return &TreeHandler{
		cfg:    cfg,
		fs:     fs,
		custom: custom,
		log:    log,
		now:    time.Now,
	}
}

// Broadcast forwards visitor events of every listing to s.
func (h *TreeHandler) Broadcast(s explorer.Sink) {
	h.sinks = append(h.sinks, s)
}

// WatchWith registers listed directories with w.
func (h *TreeHandler) WatchWith(w DirWatcher) {
	h.watcher = w
}

// listRequest holds the query parameters shared by /list and /tree.
type listRequest struct {
	Path      string `form:"path"`
	Name      string `form:"name"`
	Ext       string `form:"ext"`
	HideDirs  bool   `form:"hideDirs"`
	HideFiles bool   `form:"hideFiles"`
	Recent    int    `form:"recent"`
	MinSize   int64  `form:"minSize"`
	Limit     int    `form:"limit"`
	Depth     int    `form:"depth"`
}

func (r listRequest) criteria() filter.Criteria {
	return filter.Criteria{
		Name:            r.Name,
		Extension:       r.Ext,
		HideDirectories: r.HideDirs,
		HideFiles:       r.HideFiles,
	}
}

func (h *TreeHandler) options(req listRequest) explorer.Options {
	custom := h.custom
	if req.Recent > 0 {
		custom.RecentDays = req.Recent
	}
	if req.MinSize > 0 {
		custom.MinSize = req.MinSize
	}
	maxItems := h.cfg.MaxItems
	if req.Limit > 0 {
		maxItems = req.Limit
	}
	return explorer.Options{
		Custom:     custom.Build(h.now()),
		ShowHidden: h.cfg.ShowHidden,
		Exclude:    h.cfg.ExcludePatterns(),
		MaxItems:   maxItems,
		Now:        h.now,
	}
}

// List runs the visitor over one directory and returns the listing. A
// directory that cannot be listed is still a 200: the failure is reported in
// the listing's error and log lines.
func (h *TreeHandler) List(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid query: " + err.Error(),
		})
		return
	}

	x := explorer.New(h.fs, h.options(req))
	for _, s := range h.sinks {
		x.Subscribe(s)
	}
	if err := x.SetPath(req.Path); err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "invalid path",
		})
		return
	}
	x.SetCriteria(req.criteria())

	listing := x.Load()
	if listing.Error != "" {
		h.log.Warnf("Listing %q failed: %s", listing.Path, listing.Error)
	} else if h.watcher != nil {
		if err := h.watcher.Watch(listing.Path); err != nil {
			h.log.Warnf("Cannot watch %q: %v", listing.Path, err)
		}
	}
	h.log.Debugf("Listed %q: %d item(s), run %s", listing.Path, len(listing.Items), listing.RunID)

	c.JSON(http.StatusOK, listing)
}

// GetTree lists a directory and its subdirectories up to depth levels,
// running a fresh visitor for every directory.
func (h *TreeHandler) GetTree(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid query: " + err.Error(),
		})
		return
	}
	depth := req.Depth
	if depth <= 0 {
		depth = 2
	}

	x := explorer.New(h.fs, h.options(req))
	for _, s := range h.sinks {
		x.Subscribe(s)
	}
	if err := x.SetPath(req.Path); err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "invalid path",
		})
		return
	}
	x.SetCriteria(req.criteria())

	nodes, errs := x.Tree(depth)
	if nodes == nil {
		nodes = []*explorer.Node{}
	}
	c.JSON(http.StatusOK, gin.H{
		"path":   x.Path(),
		"depth":  depth,
		"nodes":  nodes,
		"errors": errs,
	})
}

// Navigate checks that path is a directory before the client switches to it.
func (h *TreeHandler) Navigate(c *gin.Context) {
	p, err := explorer.CleanPath(c.Query("path"))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "invalid path",
		})
		return
	}
	info, err := h.fs.Stat(p)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "directory not found",
		})
		return
	}
	if !info.IsDir {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is not a directory",
		})
		return
	}
	parent, hasParent := mfs.Parent(p)
	c.JSON(http.StatusOK, gin.H{
		"path":      p,
		"parent":    parent,
		"hasParent": hasParent,
	})
}

// GetExclude returns the global exclude patterns
func (h *TreeHandler) GetExclude(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"exclude": h.cfg.ExcludePatterns(),
	})
}

// UpdateExcludeRequest represents a request to update global excludes
type UpdateExcludeRequest struct {
	Exclude []string `json:"exclude"`
}

// UpdateExclude updates the global exclude patterns
func (h *TreeHandler) UpdateExclude(c *gin.Context) {
	var req UpdateExcludeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request",
		})
		return
	}

	h.cfg.SetGlobalExclude(req.Exclude)

	if err := h.cfg.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to save config: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "excludes updated",
		"exclude": h.cfg.ExcludePatterns(),
	})
}
