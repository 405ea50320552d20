package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/stratalab/strata/internal/storage"
)

// debounceWindow batches change events before a re-analysis run.
const debounceWindow = 2 * time.Second

// WatchCorpus monitors the corpus for source changes and re-runs the full
// pipeline after a quiet period. Blocks until the context is cancelled.
//
// The pipeline is cheap relative to editing cadence, so watch mode re-runs
// it wholesale rather than patching artifacts incrementally.
func WatchCorpus(ctx context.Context, root string, store storage.ArtifactStore, opts Options) error {
	patterns, _ := LoadGitignore(root)
	matcher := gitignore.NewMatcher(patterns)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	excluded := make(map[string]bool, len(defaultExcludeDirs)+len(opts.Walk.ExcludeDirs))
	for _, d := range defaultExcludeDirs {
		excluded[d] = true
	}
	for _, d := range opts.Walk.ExcludeDirs {
		excluded[d] = true
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root {
			if excluded[info.Name()] {
				return filepath.SkipDir
			}
			if rel, relErr := filepath.Rel(root, path); relErr == nil && matcher.Match(splitPath(rel), true) {
				return filepath.SkipDir
			}
		}
		return watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	pending := 0
	timer := time.NewTimer(debounceWindow)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if lang, _ := recognize(filepath.Base(event.Name)); lang == "" {
				continue
			}
			pending++
			timer.Reset(debounceWindow)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-timer.C:
			if pending == 0 {
				continue
			}
			fmt.Printf("Re-analyzing after %d change(s)...\n", pending)
			pending = 0

			if _, _, err := RunPipeline(ctx, root, store, opts, nil); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintf(os.Stderr, "Re-analysis error: %v\n", err)
			}
		}
	}
}
