package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/CageChen/fileexplorer/internal/config"
	"github.com/CageChen/fileexplorer/internal/explorer"
	mfs "github.com/CageChen/fileexplorer/internal/fs"
	"github.com/CageChen/fileexplorer/internal/markdown"
	"github.com/gin-gonic/gin"
)

// FileResponse represents the response for a file preview request
type FileResponse struct {
	Path string `json:"path"`
	markdown.Preview
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// FileHandler handles file content API requests
type FileHandler struct {
	cfg      *config.Config
	fs       mfs.FileSystem
	renderer *markdown.Renderer
}

// NewFileHandler creates a new file handler
func NewFileHandler(cfg *config.Config, fs mfs.FileSystem) *FileHandler {
	return &FileHandler{
		cfg:      cfg,
		fs:       fs,
		renderer: markdown.NewRenderer(),
	}
}

// requestPath extracts the root-relative file path from the route or query.
func requestPath(c *gin.Context) (string, error) {
	filePath := c.Param("path")
	if filePath == "" {
		filePath = c.Query("path")
	}
	p, err := explorer.CleanPath(filePath)
	if err != nil {
		return "", os.ErrPermission
	}
	if p == "" {
		return "", os.ErrNotExist
	}
	return p, nil
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound, "file not found"
	case errors.Is(err, os.ErrPermission):
		return http.StatusForbidden, "invalid path"
	default:
		return http.StatusInternalServerError, fmt.Sprintf("failed to read file: %v", err)
	}
}

// GetFile returns a rendered preview: markdown files become HTML with a table
// of contents, anything else is syntax highlighted.
func (h *FileHandler) GetFile(c *gin.Context) {
	p, err := requestPath(c)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	// Check if file exists and is not a directory
	info, err := h.fs.Stat(p)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "file not found",
		})
		return
	}

	if info.IsDir {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is a directory",
		})
		return
	}

	content, err := h.fs.ReadFile(p)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	var preview *markdown.Preview
	if h.cfg.IsMarkdownFile(p) {
		preview, err = h.renderer.Markdown(content)
	} else {
		preview, err = h.renderer.Source(p, content)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to render file: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, FileResponse{
		Path:    p,
		Preview: *preview,
		Size:    info.Size,
		ModTime: info.ModTime,
	})
}

// GetRaw returns the file content unchanged
func (h *FileHandler) GetRaw(c *gin.Context) {
	p, err := requestPath(c)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	content, err := h.fs.ReadFile(p)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	contentType := http.DetectContentType(content)
	if h.cfg.IsMarkdownFile(p) {
		contentType = "text/markdown; charset=utf-8"
	} else if strings.HasPrefix(contentType, "text/plain") {
		contentType = "text/plain; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, content)
}
