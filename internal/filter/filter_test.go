package filter

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/CageChen/fileexplorer/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(name string) fs.Entry { return fs.Entry{Name: name, Path: name, Kind: fs.KindFile} }
func dir(name string) fs.Entry  { return fs.Entry{Name: name, Path: name, Kind: fs.KindDirectory} }

func TestCriteria_Active(t *testing.T) {
	assert.False(t, Criteria{}.Active())
	assert.True(t, Criteria{Name: "a"}.Active())
	assert.True(t, Criteria{Extension: "md"}.Active())
	assert.True(t, Criteria{HideDirectories: true}.Active())
	assert.True(t, Criteria{HideFiles: true}.Active())
}

func TestCriteria_Filter(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		entry    fs.Entry
		want     bool
	}{
		{"empty accepts file", Criteria{}, file("a.txt"), true},
		{"empty accepts dir", Criteria{}, dir("docs"), true},
		{"hide dirs", Criteria{HideDirectories: true}, dir("docs"), false},
		{"hide dirs keeps files", Criteria{HideDirectories: true}, file("a.txt"), true},
		{"hide files", Criteria{HideFiles: true}, file("a.txt"), false},
		{"hide files keeps dirs", Criteria{HideFiles: true}, dir("docs"), true},
		{"name case-insensitive", Criteria{Name: "READ"}, file("readme.md"), true},
		{"name mismatch", Criteria{Name: "xyz"}, file("readme.md"), false},
		{"name applies to dirs", Criteria{Name: "doc"}, dir("docs"), true},
		{"extension with dot", Criteria{Extension: ".MD"}, file("readme.md"), true},
		{"extension without dot", Criteria{Extension: "md"}, file("readme.md"), true},
		{"extension mismatch", Criteria{Extension: "go"}, file("readme.md"), false},
		{"extension ignores dirs", Criteria{Extension: "go"}, dir("docs"), true},
		{"extension and name", Criteria{Name: "main", Extension: "go"}, file("main.go"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Filter()(tt.entry))
		})
	}
}

func TestChain(t *testing.T) {
	assert.Nil(t, Chain())
	assert.Nil(t, Chain(nil, nil))

	only := func(e fs.Entry) bool { return e.Name == "a" }
	single := Chain(nil, only)
	require.NotNil(t, single)
	assert.True(t, single(file("a")))

	notDir := func(e fs.Entry) bool { return !e.IsDir() }
	both := Chain(only, nil, notDir)
	assert.True(t, both(file("a")))
	assert.False(t, both(dir("a")))
	assert.False(t, both(file("b")))
}

func TestModifiedWithin(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	f := ModifiedWithin(7*24*time.Hour, now)

	recent := file("new.txt")
	recent.ModTime = now.AddDate(0, 0, -2)
	old := file("old.txt")
	old.ModTime = now.AddDate(0, 0, -8)

	assert.True(t, f(recent))
	assert.False(t, f(old))
}

func TestLargerThan(t *testing.T) {
	f := LargerThan(1000)

	big := file("big.bin")
	big.Size = 2000
	small := file("small.txt")
	small.Size = 10

	assert.True(t, f(big))
	assert.False(t, f(small))
	assert.True(t, f(dir("docs")))
}

func TestExcludePatterns(t *testing.T) {
	assert.Nil(t, ExcludePatterns(nil))

	f := ExcludePatterns([]string{"node_modules", ".*", "*.tmp"})
	assert.False(t, f(dir("node_modules")))
	assert.False(t, f(dir(".git")))
	assert.False(t, f(file("scratch.tmp")))
	assert.True(t, f(file("main.go")))
}

func TestGitignore(t *testing.T) {
	rules := "*.log\nbuild/\n!keep.log\n"
	f := Gitignore(strings.NewReader(rules), "")

	assert.False(t, f(file("debug.log")))
	assert.True(t, f(file("keep.log")))
	assert.False(t, f(dir("build")))
	assert.True(t, f(file("main.go")))
}

func TestGitignore_Base(t *testing.T) {
	f := Gitignore(strings.NewReader("*.log\n"), "sub")

	nested := fs.Entry{Name: "x.log", Path: "sub/x.log", Kind: fs.KindFile}
	outside := fs.Entry{Name: "y.log", Path: "other/y.log", Kind: fs.KindFile}

	assert.False(t, f(nested))
	assert.True(t, f(outside))
}

func TestLoadGitignore(t *testing.T) {
	m := fs.NewMemFS().
		AddFile(".gitignore", "*.log\n").
		AddFile("app.log", "x").
		AddFile("main.go", "package main")

	f, err := LoadGitignore(m, "")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.False(t, f(file("app.log")))
	assert.True(t, f(file("main.go")))

	none, err := LoadGitignore(fs.NewMemFS(), "")
	require.NoError(t, err)
	assert.Nil(t, none)
}

type deniedStatFS struct {
	*fs.MemFS
}

func (deniedStatFS) Stat(string) (fs.FileInfo, error) {
	return fs.FileInfo{}, os.ErrPermission
}

func TestLoadGitignore_StatError(t *testing.T) {
	m := deniedStatFS{fs.NewMemFS().AddFile(".gitignore", "*.log\n")}

	f, err := LoadGitignore(m, "")
	require.ErrorIs(t, err, os.ErrPermission)
	assert.ErrorContains(t, err, ".gitignore")
	assert.Nil(t, f)
}

func TestOptions_Build(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Nil(t, Options{}.Build(now))

	f := Options{Exclude: []string{"*.tmp"}, RecentDays: 7, MinSize: 10}.Build(now)
	require.NotNil(t, f)

	fresh := file("report.pdf")
	fresh.Size = 100
	fresh.ModTime = now.Add(-time.Hour)
	assert.True(t, f(fresh))

	stale := fresh
	stale.ModTime = now.AddDate(0, 0, -30)
	assert.False(t, f(stale))

	tiny := fresh
	tiny.Size = 1
	assert.False(t, f(tiny))

	tmp := fresh
	tmp.Name = "x.tmp"
	assert.False(t, f(tmp))
}
