// Package scan provides the corpus analysis pipeline for Strata.
package scan

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileEntry represents a corpus file to be processed.
type FileEntry struct {
	// Path is the absolute file path.
	Path string

	// RelPath is the path relative to the corpus root.
	RelPath string

	// Language is the detected language.
	Language string

	// Content is the file content.
	Content []byte

	// IsDoc indicates a documentation-class file (markdown and friends).
	// Doc entries join the connection graph but yield no symbols.
	IsDoc bool
}

// WalkOptions control corpus enumeration.
type WalkOptions struct {
	// ExcludeDirs are directory names skipped in addition to the defaults.
	ExcludeDirs []string

	// MaxFiles caps the number of files returned; 0 means no limit.
	MaxFiles int

	// MaxFileSize skips files larger than this many bytes; 0 means no limit.
	MaxFileSize int64
}

// Supported source extensions and their languages.
var supportedExtensions = map[string]string{
	".py":  "python",
	".go":  "go",
	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
}

// Documentation-class extensions carried into the graph for the
// documentation-gap pass.
var docExtensions = map[string]string{
	".md":  "markdown",
	".rst": "restructuredtext",
}

// Default directory names to skip (in addition to .gitignore patterns).
var defaultExcludeDirs = []string{
	".git",
	".strata",
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	"venv",
	".tox",
	".mypy_cache",
	".pytest_cache",
	"dist",
	"build",
	"target",
	"coverage",
}

// WalkCorpus walks the corpus root and returns all recognized files.
//
// Unreadable directories and files are skipped with a recorded warning and
// never abort the walk. An empty corpus is not an error.
func WalkCorpus(root string, opts WalkOptions, patterns []gitignore.Pattern) ([]FileEntry, []string, error) {
	matcher := gitignore.NewMatcher(patterns)
	excluded := make(map[string]bool, len(defaultExcludeDirs)+len(opts.ExcludeDirs))
	for _, d := range defaultExcludeDirs {
		excluded[d] = true
	}
	for _, d := range opts.ExcludeDirs {
		excluded[d] = true
	}

	var entries []FileEntry
	var warnings []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %v", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && excluded[d.Name()] {
				return filepath.SkipDir
			}
			relPath, relErr := filepath.Rel(root, path)
			if relErr == nil && relPath != "." && matcher.Match(splitPath(relPath), true) {
				return filepath.SkipDir
			}
			return nil
		}

		language, isDoc := recognize(d.Name())
		if language == "" {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if matcher.Match(splitPath(relPath), false) {
			return nil
		}

		if opts.MaxFileSize > 0 {
			if info, err := d.Info(); err == nil && info.Size() > opts.MaxFileSize {
				warnings = append(warnings, fmt.Sprintf("skipping %s: exceeds size limit", relPath))
				return nil
			}
		}

		content, err := os.ReadFile(path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s: %v", relPath, err))
			return nil
		}
		if bytes.IndexByte(content, 0) >= 0 {
			warnings = append(warnings, fmt.Sprintf("skipping %s: not a text file", relPath))
			return nil
		}

		entries = append(entries, FileEntry{
			Path:     path,
			RelPath:  filepath.ToSlash(relPath),
			Language: language,
			Content:  content,
			IsDoc:    isDoc,
		})

		if opts.MaxFiles > 0 && len(entries) >= opts.MaxFiles {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return entries, warnings, err
	}

	return entries, warnings, nil
}

// LoadGitignore loads .gitignore patterns from the corpus root.
func LoadGitignore(root string) ([]gitignore.Pattern, error) {
	gitignorePath := filepath.Join(root, ".gitignore")

	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}

	return patterns, nil
}

// recognize returns the language for a filename, and whether the file is
// documentation-class. Empty language means the file is not part of the corpus.
func recognize(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if lang, ok := supportedExtensions[ext]; ok {
		return lang, false
	}
	if lang, ok := docExtensions[ext]; ok {
		return lang, true
	}
	return "", false
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	return strings.Split(path, string(filepath.Separator))
}
