package fs

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guideContent = "# Guide\n\nHello world.\n"

// setupTestRepo creates a repository with README.md and docs/guide.md
// committed on HEAD. Tests are skipped when git is not installed.
func setupTestRepo(t *testing.T) (string, func(args ...string)) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v\n%s", args, out)
	}

	git("init", "-q")
	git("config", "user.email", "test@test.com")
	git("config", "user.name", "Test")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# README\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "guide.md"), []byte(guideContent), 0o644))

	git("add", "-A")
	git("commit", "-q", "-m", "initial commit")
	return dir, git
}

func TestGitFS_ReadDir_Root(t *testing.T) {
	dir, _ := setupTestRepo(t)

	entries, err := NewGitFS(dir, "HEAD").ReadDir("")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	kinds := make(map[string]Kind)
	for _, e := range entries {
		kinds[e.Name] = e.Kind
		assert.Equal(t, e.Name, e.Path)
	}
	assert.Equal(t, KindFile, kinds["README.md"])
	assert.Equal(t, KindDirectory, kinds["docs"])
}

func TestGitFS_ReadDir_SubDir(t *testing.T) {
	dir, _ := setupTestRepo(t)

	entries, err := NewGitFS(dir, "HEAD").ReadDir("docs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "guide.md", entries[0].Name)
	assert.Equal(t, "docs/guide.md", entries[0].Path)
	assert.Equal(t, KindFile, entries[0].Kind)
	assert.Equal(t, int64(len(guideContent)), entries[0].Size)
}

func TestGitFS_ReadDir_Errors(t *testing.T) {
	dir, _ := setupTestRepo(t)
	g := NewGitFS(dir, "HEAD")

	_, err := g.ReadDir("nope")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = g.ReadDir("README.md")
	assert.ErrorContains(t, err, "not a directory")

	_, err = NewGitFS(dir, "no-such-branch").ReadDir("")
	assert.Error(t, err)
}

func TestGitFS_ReadDir_ReadsRefNotWorkingTree(t *testing.T) {
	dir, git := setupTestRepo(t)
	git("tag", "v1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "new.md"), []byte("new"), 0o644))
	git("add", "-A")
	git("commit", "-q", "-m", "add new")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "untracked.md"), []byte("u"), 0o644))

	old, err := NewGitFS(dir, "v1").ReadDir("docs")
	require.NoError(t, err)
	assert.Len(t, old, 1)

	head, err := NewGitFS(dir, "HEAD").ReadDir("docs")
	require.NoError(t, err)
	assert.Len(t, head, 2, "untracked files are not part of the ref")
}

func TestGitFS_SpecialNames(t *testing.T) {
	dir, git := setupTestRepo(t)
	name := "résumé \"draft\".md"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	git("add", "-A")
	git("commit", "-q", "-m", "add draft")

	entries, err := NewGitFS(dir, "HEAD").ReadDir("")
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, name)
}

func TestGitFS_Stat(t *testing.T) {
	dir, _ := setupTestRepo(t)
	g := NewGitFS(dir, "HEAD")

	root, err := g.Stat("")
	require.NoError(t, err)
	assert.True(t, root.IsDir)
	assert.Equal(t, "HEAD", root.Name)

	docs, err := g.Stat("docs")
	require.NoError(t, err)
	assert.True(t, docs.IsDir)
	assert.Equal(t, "docs", docs.Name)

	guide, err := g.Stat("docs/guide.md")
	require.NoError(t, err)
	assert.False(t, guide.IsDir)
	assert.Equal(t, "guide.md", guide.Name)
	assert.Equal(t, int64(len(guideContent)), guide.Size)
	assert.False(t, guide.ModTime.IsZero(), "modification time is the last commit time")

	_, err = g.Stat("docs/missing.md")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewGitFS(dir, "no-such-branch").Stat("")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGitFS_ReadFile(t *testing.T) {
	dir, _ := setupTestRepo(t)
	g := NewGitFS(dir, "HEAD")

	content, err := g.ReadFile("docs/guide.md")
	require.NoError(t, err)
	assert.Equal(t, guideContent, string(content))

	_, err = g.ReadFile("nonexistent.md")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = g.ReadFile("")
	assert.Error(t, err)
}
