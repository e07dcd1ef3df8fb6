package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/CageChen/fileexplorer/internal/config"
	"github.com/CageChen/fileexplorer/internal/explorer"
	"github.com/CageChen/fileexplorer/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Root = root
	cfg.Watch = false
	cfg.SetConfigPath(filepath.Join(t.TempDir(), "config.yaml"))
	cfg.Normalize()
	return cfg
}

func get(t *testing.T, srv *server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewServer_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root, _ := writeTree(t)

	srv, err := newServer(testConfig(t, root), logger.Discard())
	require.NoError(t, err)
	defer srv.Close()
	assert.Nil(t, srv.watcher)

	rec := get(t, srv, "/api/list")
	require.Equal(t, http.StatusOK, rec.Code)
	var l explorer.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	require.Len(t, l.Items, 2)
	assert.Equal(t, "docs", l.Items[0].Name)
	assert.True(t, l.Completed)

	rec = get(t, srv, "/api/files/docs/guide.md")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Guide")

	rec = get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>FileExplorer</title>")
}

func TestNewServer_CORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root, _ := writeTree(t)

	srv, err := newServer(testConfig(t, root), logger.Discard())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/list", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServer_WatchesListedDirectories(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root, _ := writeTree(t)
	cfg := testConfig(t, root)
	cfg.Watch = true

	srv, err := newServer(cfg, logger.Discard())
	require.NoError(t, err)
	defer srv.Close()
	require.NotNil(t, srv.watcher)

	require.Equal(t, http.StatusOK, get(t, srv, "/api/list?path=docs").Code)
	require.Equal(t, http.StatusOK, get(t, srv, "/api/list?path=docs").Code)
	assert.Equal(t, 1, srv.watcher.Watched())

	require.Equal(t, http.StatusOK, get(t, srv, "/api/list?path=missing").Code)
	assert.Equal(t, 1, srv.watcher.Watched(), "failed listings are not watched")
}

func TestNewServer_GitRefDisablesWatcher(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root, _ := writeTree(t)
	cfg := testConfig(t, root)
	cfg.Watch = true
	cfg.GitRef = "main"

	srv, err := newServer(cfg, logger.Discard())
	require.NoError(t, err)
	defer srv.Close()
	assert.Nil(t, srv.watcher)
}
