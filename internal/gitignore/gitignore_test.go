package gitignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		isDir    bool
		want     bool
	}{
		{"basename anywhere", []string{"*.pyc"}, "pkg/mod.pyc", false, true},
		{"basename no match", []string{"*.pyc"}, "pkg/mod.py", false, false},
		{"dir only matches dir", []string{"build/"}, "build", true, true},
		{"dir only skips file", []string{"build/"}, "build", false, false},
		{"dir only matches contents", []string{"build/"}, "build/lib/a.py", false, true},
		{"nested dir only", []string{"build/"}, "src/build/a.py", false, true},
		{"rooted", []string{"/docs"}, "docs/a.py", false, true},
		{"rooted not nested", []string{"/docs"}, "src/docs/a.py", false, false},
		{"inner slash anchored", []string{"src/gen"}, "src/gen/a.py", false, true},
		{"double star", []string{"**/fixtures/**"}, "tests/fixtures/data.py", false, true},
		{"negation", []string{"*.py", "!keep.py"}, "keep.py", false, false},
		{"negation order", []string{"!keep.py", "*.py"}, "keep.py", false, true},
		{"comment ignored", []string{"# *.py"}, "a.py", false, false},
		{"escaped hash", []string{`\#notes.py`}, "#notes.py", false, true},
		{"root path", []string{"*"}, ".", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			for _, p := range tt.patterns {
				m.AddPattern(p)
			}
			assert.Equal(t, tt.want, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestMatcher_AddPatternWithBase_ScopesToDirectory(t *testing.T) {
	// Given: a pattern declared by src/.gitignore
	m := New()
	m.AddPatternWithBase("*.gen.py", "src")

	// Then: it only applies below src
	assert.True(t, m.Match("src/a.gen.py", false))
	assert.True(t, m.Match("src/deep/b.gen.py", false))
	assert.False(t, m.Match("a.gen.py", false))
}

func TestMatcher_AddFromFile(t *testing.T) {
	// Given: a .gitignore on disk
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("# generated\n\n*.pyc\n/dist/\n"), 0o644))

	// When: loading it
	m := New()
	require.NoError(t, m.AddFromFile(path, ""))

	// Then: blank lines and comments are skipped
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Match("dist/pkg.py", false))
	assert.True(t, m.Match("x/y.pyc", false))
}

func TestMatcher_AddFromFile_Missing(t *testing.T) {
	err := New().AddFromFile(filepath.Join(t.TempDir(), "nope"), "")
	assert.Error(t, err)
}

func TestMatcher_InvalidPatternIgnored(t *testing.T) {
	m := New()
	m.AddPattern("[unclosed")
	assert.Equal(t, 0, m.Len())
}

func TestMatchesAnyPattern(t *testing.T) {
	assert.True(t, MatchesAnyPattern("pkg/migrations/0001.py", []string{"**/migrations/**"}))
	assert.True(t, MatchesAnyPattern("pkg/conftest.py", []string{"conftest.py"}))
	assert.True(t, MatchesAnyPattern(`pkg\test_a.py`, []string{"test_*.py"}))
	assert.False(t, MatchesAnyPattern("pkg/a.py", []string{"tests/**"}))
	assert.False(t, MatchesAnyPattern("a.py", nil))
}
