package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/stratalab/strata/internal/analysis"
	"github.com/stratalab/strata/internal/graph"
	"github.com/stratalab/strata/internal/storage"
)

// Options configure a pipeline run. Zero-value sub-configs fall back to the
// defaults.
type Options struct {
	Walk        WalkOptions
	Fingerprint FingerprintConfig
	Thresholds  analysis.Thresholds
}

// PipelineResult summarizes a pipeline run.
type PipelineResult struct {
	Files        int
	Symbols      int
	Edges        int
	Gaps         int
	DurationSecs float64

	// Warnings lists files skipped as unreadable or over limits; this is the
	// only user-visible failure surface of a run.
	Warnings []string
}

// ProgressCallback is called with phase name and progress (0.0-1.0).
type ProgressCallback func(phase string, progress float64)

// RunPipeline runs the full analysis pipeline: walk the corpus, extract
// symbols, map references, fingerprint, run the gap passes, and persist the
// artifacts. An empty corpus yields empty artifacts, not an error.
func RunPipeline(
	ctx context.Context,
	root string,
	store storage.ArtifactStore,
	opts Options,
	progress ProgressCallback,
) (*storage.Artifacts, *PipelineResult, error) {
	start := time.Now()
	result := &PipelineResult{}

	if len(opts.Fingerprint.Lexicon) == 0 && len(opts.Fingerprint.PatternRules) == 0 {
		opts.Fingerprint = DefaultFingerprintConfig()
	}
	if opts.Thresholds == (analysis.Thresholds{}) {
		opts.Thresholds = analysis.DefaultThresholds()
	}

	report := func(phase string, pct float64) {
		if progress != nil {
			progress(phase, pct)
		}
	}

	// Phase 1: corpus walk
	report("Walking corpus", 0.0)
	patterns, _ := LoadGitignore(root)
	entries, warnings, err := WalkCorpus(root, opts.Walk, patterns)
	if err != nil {
		return nil, nil, fmt.Errorf("walking corpus: %w", err)
	}
	result.Files = len(entries)
	result.Warnings = warnings
	report("Walking corpus", 1.0)

	// Phase 2: symbol extraction
	report("Extracting symbols", 0.0)
	symbols := ExtractSymbols(entries)
	result.Symbols = len(symbols)
	report("Extracting symbols", 1.0)

	// Phase 3: reference mapping
	report("Mapping references", 0.0)
	g := graph.NewConnectionGraph()
	MapReferences(symbols, entries, g)
	result.Edges = g.EdgeCount()
	report("Mapping references", 1.0)

	// Phase 4: fingerprints
	report("Building fingerprints", 0.0)
	builder := NewFingerprintBuilder(opts.Fingerprint)
	prints := builder.BuildAll(symbols)
	report("Building fingerprints", 1.0)

	// Phase 5: gap analysis
	report("Analyzing gaps", 0.0)
	analyzer := analysis.NewAnalyzer(symbols, g, prints, opts.Thresholds)
	gapReport := analyzer.Analyze()
	result.Gaps = gapReport.Metrics.Total
	report("Analyzing gaps", 1.0)

	artifacts := &storage.Artifacts{
		Symbols:     symbols,
		Connections: g.Links(),
		Patterns:    prints,
		Report:      gapReport,
	}
	if artifacts.Symbols == nil {
		artifacts.Symbols = []*graph.Symbol{}
	}

	// Phase 6: persistence
	if store != nil {
		report("Persisting artifacts", 0.0)
		if err := storage.SaveArtifacts(ctx, store, artifacts); err != nil {
			return nil, nil, fmt.Errorf("persisting artifacts: %w", err)
		}
		report("Persisting artifacts", 1.0)
	}

	result.DurationSecs = time.Since(start).Seconds()
	return artifacts, result, nil
}
