package cmd

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os/exec"
	"runtime"

	"github.com/CageChen/fileexplorer/internal/config"
	"github.com/CageChen/fileexplorer/internal/handler"
	"github.com/CageChen/fileexplorer/internal/logger"
	"github.com/CageChen/fileexplorer/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

//go:embed web/*
var webFS embed.FS

// NewServeCommand creates and returns the serve subcommand
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI",
		Long: `Start the HTTP server with the browser UI and the JSON API.

Listings are pushed to websocket clients as the visitor produces them, and
directories that were listed are watched so clients can refresh when they
change.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().Int("port", 8080, "Port to listen on")
	cmd.Flags().Bool("watch", true, "Watch listed directories for changes")
	cmd.Flags().Bool("open", false, "Open the browser after starting")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg, cmd.ErrOrStderr())

	log.Infof("FileExplorer %s", Version)
	log.Infof("Config file: %s", cfg.GetConfigFilePath())
	if cfg.GitRef != "" {
		log.Infof("Browsing %s (git ref: %s)", cfg.Root, cfg.GitRef)
	} else {
		log.Infof("Browsing %s", cfg.Root)
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := newServer(cfg, log)
	if err != nil {
		return err
	}
	defer srv.Close()

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)
	log.Infof("Server starting at: %s", url)
	if cfg.Open {
		go openBrowser(url)
	}

	if err := srv.router.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// server is the assembled HTTP application.
type server struct {
	router  *gin.Engine
	ws      *handler.WSHandler
	watcher *watcher.Watcher
}

func newServer(cfg *config.Config, log *logger.Logger) (*server, error) {
	fsys, err := openFS(cfg)
	if err != nil {
		return nil, err
	}
	custom, err := customOptions(cfg, fsys)
	if err != nil {
		return nil, err
	}

	treeHandler := handler.NewTreeHandler(cfg, fsys, custom, log)
	fileHandler := handler.NewFileHandler(cfg, fsys)
	wsHandler := handler.NewWSHandler()
	treeHandler.Broadcast(wsHandler.OnVisit)

	srv := &server{ws: wsHandler}

	// A git ref never changes on disk
	if cfg.Watch && cfg.GitRef == "" {
		w, err := watcher.New(cfg, log)
		if err != nil {
			log.Warnf("Failed to create file watcher: %v", err)
		} else {
			w.OnChange(wsHandler.OnFileChange)
			w.Start()
			treeHandler.WatchWith(w)
			srv.watcher = w
			log.Infof("File watcher enabled")
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	api := r.Group("/api")
	{
		api.GET("/list", treeHandler.List)
		api.GET("/tree", treeHandler.GetTree)
		api.GET("/navigate", treeHandler.Navigate)
		api.GET("/files/*path", fileHandler.GetFile)
		api.GET("/raw/*path", fileHandler.GetRaw)
		api.GET("/ws", wsHandler.HandleWS)

		api.GET("/exclude", treeHandler.GetExclude)
		api.PUT("/exclude", treeHandler.UpdateExclude)
	}

	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, fmt.Errorf("failed to load web assets: %w", err)
	}
	r.NoRoute(gin.WrapH(http.FileServer(http.FS(webContent))))

	srv.router = r
	return srv, nil
}

// Close stops the file watcher.
func (s *server) Close() {
	if s.watcher != nil {
		_ = s.watcher.Stop()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}
