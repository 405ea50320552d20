package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratalab/strata/internal/analysis"
	"github.com/stratalab/strata/internal/graph"
	"github.com/stratalab/strata/internal/storage"
)

// seededStore returns a memory store holding one small analysis run.
func seededStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	ctx := context.Background()

	g := graph.NewConnectionGraph()
	g.AddEdge("core.py", "semantic_rank.py")
	g.EnsureFile("viz_panel.py")

	report := &analysis.GapReport{
		Orphans: []analysis.OrphanedSymbol{
			{Symbol: "Lost", File: "viz_panel.py", Kind: "class", Severity: analysis.SeverityHigh},
		},
	}
	report.Metrics.Orphans = 1
	report.Metrics.Total = 1

	store := storage.NewMemoryStore()
	err := storage.SaveArtifacts(ctx, store, &storage.Artifacts{
		Symbols: []*graph.Symbol{
			{ID: "class:core.py:Engine", Name: "Engine", Kind: graph.KindClass, File: "core.py", Line: 1, Refs: []string{"core.py", "semantic_rank.py"}},
			{ID: "class:viz_panel.py:Lost", Name: "Lost", Kind: graph.KindClass, File: "viz_panel.py", Line: 3, Refs: []string{}},
		},
		Connections: g.Links(),
		Patterns: map[string]*graph.Fingerprint{
			"class:core.py:Engine":    {Tags: []string{"graph"}, Patterns: []string{}},
			"class:viz_panel.py:Lost": {Tags: []string{}, Patterns: []string{}},
		},
		Report: report,
	})
	require.NoError(t, err)
	return store
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	server := NewServer(storage.NewMemoryStore())

	assert.NotNil(t, server)
	assert.NotNil(t, server.backend)
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()

	tools := NewServer(storage.NewMemoryStore()).ListTools()

	toolNames := make(map[string]bool)
	for _, tool := range tools {
		toolNames[tool.Name] = true
		assert.NotEmpty(t, tool.Description)
		assert.NotNil(t, tool.InputSchema)
	}

	for _, name := range []string{
		"strata_gaps", "strata_symbol", "strata_connections", "strata_layers",
	} {
		assert.True(t, toolNames[name], name)
	}
}

func TestServer_ListResources(t *testing.T) {
	t.Parallel()

	resources := NewServer(storage.NewMemoryStore()).ListResources()

	uris := make(map[string]bool)
	for _, res := range resources {
		uris[res.URI] = true
	}
	assert.True(t, uris["strata://overview"])
	assert.True(t, uris["strata://gap-report"])
}

func TestServer_CallTool(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	server := NewServer(seededStore(t))

	t.Run("Gaps", func(t *testing.T) {
		t.Parallel()
		out, err := server.CallTool(ctx, "strata_gaps", map[string]any{})

		require.NoError(t, err)
		assert.Contains(t, out, "Orphaned Symbols (1)")
		assert.Contains(t, out, "Lost")
	})

	t.Run("GapsCategory", func(t *testing.T) {
		t.Parallel()
		out, err := server.CallTool(ctx, "strata_gaps", map[string]any{"category": "orphaned_symbols"})

		require.NoError(t, err)
		assert.Contains(t, out, "Lost")
		assert.NotContains(t, out, "Missing Tests")
	})

	t.Run("GapsUnknownCategory", func(t *testing.T) {
		t.Parallel()
		out, err := server.CallTool(ctx, "strata_gaps", map[string]any{"category": "bogus"})

		require.NoError(t, err)
		assert.Contains(t, out, "Unknown category")
	})

	t.Run("Symbol", func(t *testing.T) {
		t.Parallel()
		out, err := server.CallTool(ctx, "strata_symbol", map[string]any{"name": "Engine"})

		require.NoError(t, err)
		assert.Contains(t, out, "core.py")
		assert.Contains(t, out, "semantic_rank.py")
		assert.Contains(t, out, "Tags: graph")
	})

	t.Run("SymbolNotFound", func(t *testing.T) {
		t.Parallel()
		out, err := server.CallTool(ctx, "strata_symbol", map[string]any{"name": "Nope"})

		require.NoError(t, err)
		assert.Contains(t, out, "not found")
	})

	t.Run("Connections", func(t *testing.T) {
		t.Parallel()
		out, err := server.CallTool(ctx, "strata_connections", map[string]any{"file": "semantic_rank.py"})

		require.NoError(t, err)
		assert.Contains(t, out, "Incoming (1)")
		assert.Contains(t, out, "core.py")
		assert.Contains(t, out, "Layer: semantic")
	})

	t.Run("ConnectionsUnknownFile", func(t *testing.T) {
		t.Parallel()
		out, err := server.CallTool(ctx, "strata_connections", map[string]any{"file": "ghost.py"})

		require.NoError(t, err)
		assert.Contains(t, out, "not found")
	})

	t.Run("Layers", func(t *testing.T) {
		t.Parallel()
		out, err := server.CallTool(ctx, "strata_layers", map[string]any{})

		require.NoError(t, err)
		assert.Contains(t, out, "semantic: 1 files")
		assert.Contains(t, out, "visualization: 1 files")
		assert.Contains(t, out, "Total: 3 files")
	})

	t.Run("UnknownTool", func(t *testing.T) {
		t.Parallel()
		_, err := server.CallTool(ctx, "strata_bogus", nil)

		assert.Error(t, err)
	})
}

func TestServer_ReadResource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	server := NewServer(seededStore(t))

	t.Run("Overview", func(t *testing.T) {
		t.Parallel()
		out, err := server.ReadResource(ctx, "strata://overview")

		require.NoError(t, err)
		assert.Contains(t, out, "**Files:** 3")
		assert.Contains(t, out, "**Symbols:** 2")
	})

	t.Run("GapReport", func(t *testing.T) {
		t.Parallel()
		out, err := server.ReadResource(ctx, "strata://gap-report")

		require.NoError(t, err)
		assert.Contains(t, out, "Gap Report")
	})

	t.Run("Unknown", func(t *testing.T) {
		t.Parallel()
		_, err := server.ReadResource(ctx, "strata://nope")

		assert.Error(t, err)
	})
}

func TestServer_Run(t *testing.T) {
	t.Parallel()

	server := NewServer(seededStore(t))

	requests := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"strata_gaps","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"no/such"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	err := server.Run(context.Background(), strings.NewReader(requests), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)

	var initResp map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &initResp))
	result := initResp["result"].(map[string]any)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])

	var errResp map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &errResp))
	assert.NotNil(t, errResp["error"])
}

func TestServer_Run_NilStreams(t *testing.T) {
	t.Parallel()

	server := NewServer(storage.NewMemoryStore())

	assert.Error(t, server.Run(context.Background(), nil, nil))
}
