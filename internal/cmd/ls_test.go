package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLs_Root(t *testing.T) {
	_, cfgFile := writeTree(t)

	out, err := execute(t, "ls", "--config", cfgFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "docs/", lines[0])
	assert.Equal(t, "main.go  13 B", lines[1])
	assert.Equal(t, "2 item(s) in /", lines[2])
	assert.NotContains(t, out, ".hidden")
	assert.NotContains(t, out, "node_modules")
}

func TestLs_ShowHidden(t *testing.T) {
	_, cfgFile := writeTree(t)

	out, err := execute(t, "ls", "--config", cfgFile, "--show-hidden")
	require.NoError(t, err)
	assert.Contains(t, out, ".hidden")
	assert.Contains(t, out, "3 item(s)")
}

func TestLs_Subdirectory(t *testing.T) {
	_, cfgFile := writeTree(t)

	out, err := execute(t, "ls", "docs", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "guide.md")
	assert.Contains(t, out, "1 item(s) in /docs")
}

func TestLs_Criteria(t *testing.T) {
	_, cfgFile := writeTree(t)

	out, err := execute(t, "ls", "--config", cfgFile, "--name", "MAIN")
	require.NoError(t, err)
	assert.Contains(t, out, "main.go")
	assert.NotContains(t, out, "docs/")

	out, err = execute(t, "ls", "--config", cfgFile, "--hide-files")
	require.NoError(t, err)
	assert.Contains(t, out, "docs/")
	assert.NotContains(t, out, "main.go")
}

func TestLs_Depth(t *testing.T) {
	_, cfgFile := writeTree(t)

	out, err := execute(t, "ls", "--config", cfgFile, "--ext", "md", "--depth", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "docs/\n  guide.md  ")
	assert.NotContains(t, out, "main.go")
}

func TestLs_Events(t *testing.T) {
	_, cfgFile := writeTree(t)

	out, err := execute(t, "ls", "docs", "--config", cfgFile, "--events")
	require.NoError(t, err)

	start := strings.Index(out, "Search started")
	found := strings.Index(out, "File found: guide.md")
	finish := strings.Index(out, "Search finished")
	require.True(t, start >= 0 && found >= 0 && finish >= 0, out)
	assert.Less(t, start, found)
	assert.Less(t, found, finish)
}

func TestLs_Limit(t *testing.T) {
	_, cfgFile := writeTree(t)

	out, err := execute(t, "ls", "--config", cfgFile, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 item(s) in /, stopped at limit")
}

func TestLs_Errors(t *testing.T) {
	_, cfgFile := writeTree(t)

	out, err := execute(t, "ls", "missing", "--config", cfgFile, "--events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, out, "Error accessing item")
	assert.Contains(t, out, "listing failed")
	assert.NotContains(t, out, "Search finished")

	_, err = execute(t, "ls", "../etc", "--config", cfgFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid path")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", formatSize(0))
	assert.Equal(t, "1023 B", formatSize(1023))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "1.0 MB", formatSize(1<<20))
}
