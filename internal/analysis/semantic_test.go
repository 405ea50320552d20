package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratalab/strata/internal/graph"
)

func newAnalyzer(symbols []*graph.Symbol, g *graph.ConnectionGraph) *Analyzer {
	return NewAnalyzer(symbols, g, nil, DefaultThresholds())
}

func TestFindOrphans(t *testing.T) {
	t.Parallel()

	symbols := []*graph.Symbol{
		{ID: "class:a.py:Lost", Name: "Lost", Kind: graph.KindClass, File: "a.py", Refs: nil},
		{ID: "function:a.py:solo", Name: "solo", Kind: graph.KindFunction, File: "a.py", Refs: []string{"a.py"}},
		{ID: "function:b.py:used", Name: "used", Kind: graph.KindFunction, File: "b.py", Refs: []string{"b.py", "c.py"}},
		{ID: "function:c.py:external", Name: "external", Kind: graph.KindFunction, File: "c.py", Refs: []string{"d.py"}},
	}

	orphans := newAnalyzer(symbols, nil).FindOrphans()

	require.Len(t, orphans, 2)
	assert.Equal(t, "Lost", orphans[0].Symbol)
	assert.Equal(t, SeverityHigh, orphans[0].Severity)
	assert.Equal(t, "solo", orphans[1].Symbol)
	assert.Equal(t, SeverityMedium, orphans[1].Severity)
}

func TestFindMissingTests(t *testing.T) {
	t.Parallel()

	g := graph.NewConnectionGraph()
	g.EnsureFile("engine.py")
	g.EnsureFile("test_engine.py")
	g.EnsureFile("util.go")
	g.EnsureFile("util_test.go")
	g.EnsureFile("worker.py")
	g.EnsureFile("README.md")

	var symbols []*graph.Symbol
	for i := 0; i < 6; i++ {
		symbols = append(symbols, &graph.Symbol{
			ID:   fmt.Sprintf("function:worker.py:f%d", i),
			Name: fmt.Sprintf("f%d", i),
			Kind: graph.KindFunction,
			File: "worker.py",
		})
	}

	missing := newAnalyzer(symbols, g).FindMissingTests()

	// engine.py and util.go are covered; worker.py is not. Test files and
	// documentation never need tests themselves.
	require.Len(t, missing, 1)
	assert.Equal(t, "worker.py", missing[0].File)
	assert.Equal(t, 6, missing[0].SymbolCount)
	assert.Equal(t, SeverityHigh, missing[0].Severity)
	assert.Contains(t, missing[0].Suggestion, "test_worker")
}

func TestFindMissingTests_MediumSeverity(t *testing.T) {
	t.Parallel()

	g := graph.NewConnectionGraph()
	g.EnsureFile("small.py")

	symbols := []*graph.Symbol{
		{ID: "function:small.py:one", Name: "one", File: "small.py"},
	}

	missing := newAnalyzer(symbols, g).FindMissingTests()

	require.Len(t, missing, 1)
	assert.Equal(t, SeverityMedium, missing[0].Severity)
}

func TestFindCircularDependencies(t *testing.T) {
	t.Parallel()

	t.Run("TwoFileMutualNotReported", func(t *testing.T) {
		t.Parallel()
		g := graph.NewConnectionGraph()
		g.AddEdge("a.py", "b.py")
		g.AddEdge("b.py", "a.py")

		assert.Empty(t, newAnalyzer(nil, g).FindCircularDependencies())
	})

	t.Run("ThreeFileCycleReportedOnce", func(t *testing.T) {
		t.Parallel()
		g := graph.NewConnectionGraph()
		g.AddEdge("a.py", "b.py")
		g.AddEdge("b.py", "c.py")
		g.AddEdge("c.py", "a.py")

		cycles := newAnalyzer(nil, g).FindCircularDependencies()

		require.Len(t, cycles, 1)
		assert.Equal(t, 3, cycles[0].Length)
		assert.ElementsMatch(t, []string{"a.py", "b.py", "c.py"}, cycles[0].Cycle)
		assert.Equal(t, SeverityHigh, cycles[0].Severity)
	})

	t.Run("LongCycleIsCritical", func(t *testing.T) {
		t.Parallel()
		g := graph.NewConnectionGraph()
		files := []string{"a.py", "b.py", "c.py", "d.py", "e.py"}
		for i := range files {
			g.AddEdge(files[i], files[(i+1)%len(files)])
		}

		cycles := newAnalyzer(nil, g).FindCircularDependencies()

		require.Len(t, cycles, 1)
		assert.Equal(t, 5, cycles[0].Length)
		assert.Equal(t, SeverityCritical, cycles[0].Severity)
	})

	t.Run("SelfEdgeIgnored", func(t *testing.T) {
		t.Parallel()
		g := graph.NewConnectionGraph()
		g.AddEdge("a.py", "a.py")

		assert.Empty(t, newAnalyzer(nil, g).FindCircularDependencies())
	})
}

func TestFindHighlyCoupled(t *testing.T) {
	t.Parallel()

	makeHub := func(degree int) *graph.ConnectionGraph {
		g := graph.NewConnectionGraph()
		for i := 0; i < degree; i++ {
			g.AddEdge("hub.py", fmt.Sprintf("n%02d.py", i))
		}
		return g
	}

	t.Run("AtThresholdNotFlagged", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, newAnalyzer(nil, makeHub(15)).FindHighlyCoupled())
	})

	t.Run("AboveThresholdHigh", func(t *testing.T) {
		t.Parallel()
		coupled := newAnalyzer(nil, makeHub(16)).FindHighlyCoupled()

		require.Len(t, coupled, 1)
		assert.Equal(t, "hub.py", coupled[0].File)
		assert.Equal(t, 16, coupled[0].Outgoing)
		assert.Equal(t, 0, coupled[0].Incoming)
		assert.Equal(t, SeverityHigh, coupled[0].Severity)
	})

	t.Run("AboveCriticalThreshold", func(t *testing.T) {
		t.Parallel()
		coupled := newAnalyzer(nil, makeHub(21)).FindHighlyCoupled()

		require.Len(t, coupled, 1)
		assert.Equal(t, SeverityCritical, coupled[0].Severity)
	})
}

func TestFindLayerImbalances(t *testing.T) {
	t.Parallel()

	g := graph.NewConnectionGraph()
	for i := 0; i < 5; i++ {
		g.EnsureFile(fmt.Sprintf("semantic_pass_%d.py", i))
	}
	for i := 0; i < 4; i++ {
		g.EnsureFile(fmt.Sprintf("core_engine_%d.py", i))
	}
	g.EnsureFile("graph_store.py")

	th := DefaultThresholds()
	th.LayerLightPct = 15 // make the single graph file (10%) light

	imbalances := NewAnalyzer(nil, g, nil, th).FindLayerImbalances()

	require.Len(t, imbalances, 2)
	assert.Equal(t, LayerSemantic, imbalances[0].Layer)
	assert.Equal(t, 5, imbalances[0].FileCount)
	assert.InDelta(t, 50.0, imbalances[0].Percentage, 0.01)
	assert.Contains(t, imbalances[0].Issue, "splitting")
	assert.Equal(t, LayerGraph, imbalances[1].Layer)
	assert.Contains(t, imbalances[1].Issue, "vestigial")
}

func TestFindLayerImbalances_EmptyGraph(t *testing.T) {
	t.Parallel()

	assert.Empty(t, newAnalyzer(nil, nil).FindLayerImbalances())
}

func TestFindMissingConnections(t *testing.T) {
	t.Parallel()

	t.Run("SemanticWithoutGraphLayer", func(t *testing.T) {
		t.Parallel()
		g := graph.NewConnectionGraph()
		// rank has an outgoing graph edge, score an incoming one; drift has
		// no graph-layer contact at all.
		g.AddEdge("semantic_rank.py", "graph_store.py")
		g.AddEdge("graph_store.py", "semantic_score.py")
		g.EnsureFile("semantic_drift.py")

		missing := newAnalyzer(nil, g).FindMissingConnections()

		require.Len(t, missing, 1)
		assert.Equal(t, "semantic_drift.py", missing[0].FromFile)
		assert.Equal(t, LayerGraph, missing[0].ToLayer)
		assert.Equal(t, "semantic_to_graph", missing[0].Type)
	})

	t.Run("EntryFileWithoutSemanticEdge", func(t *testing.T) {
		t.Parallel()
		g := graph.NewConnectionGraph()
		g.AddEdge("main.py", "util.py")

		missing := newAnalyzer(nil, g).FindMissingConnections()

		require.Len(t, missing, 1)
		assert.Equal(t, "main.py", missing[0].FromFile)
		assert.Equal(t, "entry_to_semantic", missing[0].Type)
	})

	t.Run("EntryFileWired", func(t *testing.T) {
		t.Parallel()
		g := graph.NewConnectionGraph()
		g.AddEdge("main.py", "semantic_rank.py")
		g.AddEdge("semantic_rank.py", "graph_store.py")

		assert.Empty(t, newAnalyzer(nil, g).FindMissingConnections())
	})

	t.Run("SemanticTestFilesExempt", func(t *testing.T) {
		t.Parallel()
		g := graph.NewConnectionGraph()
		g.EnsureFile("semantic_rank_test.py")

		assert.Empty(t, newAnalyzer(nil, g).FindMissingConnections())
	})
}

func TestFindPatternViolations(t *testing.T) {
	t.Parallel()

	g := graph.NewConnectionGraph()
	// viz_panel.py references a core symbol, so the edge runs from the
	// declaring core file into the visualization file.
	g.AddEdge("core_engine.py", "viz_panel.py")
	g.AddEdge("util.py", "viz_chart.py")
	g.AddEdge("viz_panel.py", "core_engine.py") // core consuming viz symbols is allowed

	violations := newAnalyzer(nil, g).FindPatternViolations()

	require.Len(t, violations, 1)
	assert.Equal(t, "viz_panel.py", violations[0].File)
	assert.Equal(t, "layered_mediation", violations[0].Pattern)
	assert.Contains(t, violations[0].Issue, "core_engine.py")
}

func TestFindDocumentationGaps(t *testing.T) {
	t.Parallel()

	t.Run("WellDocumented", func(t *testing.T) {
		t.Parallel()
		g := graph.NewConnectionGraph()
		g.EnsureFile("README.md")
		g.EnsureFile("docs/guide.md")
		g.EnsureFile("docs/api.rst")

		assert.Empty(t, newAnalyzer(nil, g).FindDocumentationGaps())
	})

	t.Run("NestedReadmeDoesNotCount", func(t *testing.T) {
		t.Parallel()
		g := graph.NewConnectionGraph()
		g.EnsureFile("docs/readme.md")
		g.EnsureFile("code.py")

		gaps := newAnalyzer(nil, g).FindDocumentationGaps()

		require.Len(t, gaps, 2)
		assert.Equal(t, "missing_readme", gaps[0].Type)
		assert.Equal(t, SeverityHigh, gaps[0].Severity)
		assert.Equal(t, "insufficient_docs", gaps[1].Type)
		assert.Equal(t, SeverityMedium, gaps[1].Severity)
	})

	t.Run("EmptyGraphStaysQuiet", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, newAnalyzer(nil, nil).FindDocumentationGaps())
	})
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	g := graph.NewConnectionGraph()
	g.AddEdge("a.py", "b.py")
	g.AddEdge("b.py", "c.py")
	g.AddEdge("c.py", "a.py")

	symbols := []*graph.Symbol{
		{ID: "class:a.py:Lost", Name: "Lost", Kind: graph.KindClass, File: "a.py"},
	}

	report := newAnalyzer(symbols, g).Analyze()

	require.NotNil(t, report)
	assert.Len(t, report.Orphans, 1)
	assert.Len(t, report.CircularDeps, 1)
	assert.Equal(t, len(report.Orphans), report.Metrics.Orphans)
	assert.Equal(t, len(report.CircularDeps), report.Metrics.CircularDeps)
	assert.Equal(t,
		report.Metrics.Orphans+report.Metrics.MissingTests+report.Metrics.CircularDeps+
			report.Metrics.HighlyCoupled+report.Metrics.LayerImbalances+
			report.Metrics.MissingConnections+report.Metrics.PatternViolations+
			report.Metrics.DocumentationGaps+report.Metrics.TagGaps,
		report.Metrics.Total)
}

func TestClassifyLayer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path  string
		layer string
	}{
		{"semantic_rank.py", LayerSemantic},
		{"graph_store.py", LayerGraph},
		{"viz_panel.py", LayerVisualization},
		{"visualization/chart.py", LayerVisualization},
		{"core_engine.py", LayerCore},
		{"collector_agent.py", LayerCollector},
		{"server_api.py", LayerServer},
		{"util.py", LayerOther},
		{"semantic_graph.py", LayerSemantic}, // first match wins
	}

	for _, tt := range tests {
		assert.Equal(t, tt.layer, ClassifyLayer(tt.path), tt.path)
	}
}
