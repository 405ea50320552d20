package scan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relPaths(entries []FileEntry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.RelPath
	}
	return paths
}

func TestWalkCorpus(t *testing.T) {
	t.Parallel()

	t.Run("RecognizedExtensions", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "core.py", "class Engine:\n    pass\n")
		writeFile(t, root, "sub/util.go", "package sub\n")
		writeFile(t, root, "app.ts", "export class App {}\n")
		writeFile(t, root, "notes.txt", "not a corpus file\n")
		writeFile(t, root, "README.md", "# Readme\n")

		entries, warnings, err := WalkCorpus(root, WalkOptions{}, nil)

		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.ElementsMatch(t,
			[]string{"core.py", "sub/util.go", "app.ts", "README.md"},
			relPaths(entries))

		byPath := make(map[string]FileEntry)
		for _, e := range entries {
			byPath[e.RelPath] = e
		}
		assert.Equal(t, "python", byPath["core.py"].Language)
		assert.Equal(t, "go", byPath["sub/util.go"].Language)
		assert.Equal(t, "typescript", byPath["app.ts"].Language)
		assert.Equal(t, "markdown", byPath["README.md"].Language)
		assert.True(t, byPath["README.md"].IsDoc)
		assert.False(t, byPath["core.py"].IsDoc)
		assert.Equal(t, "class Engine:\n    pass\n", string(byPath["core.py"].Content))
	})

	t.Run("ExcludedDirectories", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "keep.py", "x = 1\n")
		writeFile(t, root, "node_modules/dep.js", "module.exports = {}\n")
		writeFile(t, root, "__pycache__/keep.py", "x = 1\n")
		writeFile(t, root, "extra/skip.py", "x = 1\n")

		entries, _, err := WalkCorpus(root, WalkOptions{ExcludeDirs: []string{"extra"}}, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"keep.py"}, relPaths(entries))
	})

	t.Run("GitignorePatterns", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, ".gitignore", "ignored/\n*.gen.py\n")
		writeFile(t, root, "keep.py", "x = 1\n")
		writeFile(t, root, "skip.gen.py", "x = 1\n")
		writeFile(t, root, "ignored/inner.py", "x = 1\n")

		patterns, err := LoadGitignore(root)
		require.NoError(t, err)

		entries, _, err := WalkCorpus(root, WalkOptions{}, patterns)

		require.NoError(t, err)
		assert.Equal(t, []string{"keep.py"}, relPaths(entries))
	})

	t.Run("BinaryFileSkippedWithWarning", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "ok.py", "x = 1\n")
		require.NoError(t, os.WriteFile(
			filepath.Join(root, "blob.py"), []byte("garbage\x00binary"), 0o644))

		entries, warnings, err := WalkCorpus(root, WalkOptions{}, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"ok.py"}, relPaths(entries))
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "blob.py")
		assert.Contains(t, warnings[0], "not a text file")
	})

	t.Run("MaxFileSize", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "small.py", "x = 1\n")
		writeFile(t, root, "big.py", strings.Repeat("x = 1\n", 100))

		entries, warnings, err := WalkCorpus(root, WalkOptions{MaxFileSize: 50}, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"small.py"}, relPaths(entries))
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "exceeds size limit")
	})

	t.Run("MaxFiles", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "a.py", "x = 1\n")
		writeFile(t, root, "b.py", "x = 1\n")
		writeFile(t, root, "c.py", "x = 1\n")

		entries, _, err := WalkCorpus(root, WalkOptions{MaxFiles: 2}, nil)

		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("EmptyCorpus", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()

		entries, warnings, err := WalkCorpus(root, WalkOptions{}, nil)

		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Empty(t, warnings)
	})
}

func TestLoadGitignore(t *testing.T) {
	t.Parallel()

	t.Run("Missing", func(t *testing.T) {
		t.Parallel()
		patterns, err := LoadGitignore(t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, patterns)
	})

	t.Run("SkipsCommentsAndBlanks", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, ".gitignore", "# comment\n\nbuild/\n")

		patterns, err := LoadGitignore(root)
		require.NoError(t, err)
		assert.Len(t, patterns, 1)
	})
}

func TestRecognize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		language string
		isDoc    bool
	}{
		{"main.py", "python", false},
		{"main.go", "go", false},
		{"app.tsx", "typescript", false},
		{"index.mjs", "javascript", false},
		{"README.MD", "markdown", true},
		{"guide.rst", "restructuredtext", true},
		{"data.json", "", false},
		{"Makefile", "", false},
	}

	for _, tt := range tests {
		lang, isDoc := recognize(tt.filename)
		assert.Equal(t, tt.language, lang, tt.filename)
		assert.Equal(t, tt.isDoc, isDoc, tt.filename)
	}
}
