// Package mcp provides the MCP (Model Context Protocol) server for Strata.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stratalab/strata/internal/analysis"
	"github.com/stratalab/strata/internal/graph"
	"github.com/stratalab/strata/internal/storage"
)

// Server represents the MCP server. It serves persisted analysis artifacts
// read-only; it never re-runs the pipeline itself.
type Server struct {
	backend storage.Loader
	server  *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server over the given artifact backend.
func NewServer(backend storage.Loader) *Server {
	s := &Server{
		backend: backend,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "strata",
		Version: "0.1.0",
	}, nil)

	return s
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "strata_gaps",
			Description: "Get the architecture gap report: orphaned symbols, missing tests, circular dependencies, coupling, layering, and documentation findings.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"category": {Type: "string", Description: "Restrict to one category (e.g. orphaned_symbols, missing_tests, circular_dependencies)"},
				},
			},
		},
		{
			Name:        "strata_symbol",
			Description: "Look up a symbol by name: its definitions, vocabulary tags, naming patterns, and the files that reference it.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {Type: "string", Description: "Symbol name to look up"},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        "strata_connections",
			Description: "Get the incoming and outgoing file connections for a file in the corpus.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"file": {Type: "string", Description: "Corpus-relative file path"},
				},
				Required: []string{"file"},
			},
		},
		{
			Name:        "strata_layers",
			Description: "Show how corpus files distribute across architectural layers.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "strata://overview",
			Name:        "Corpus Overview",
			Description: "High-level statistics about the analyzed corpus",
			MimeType:    "text/plain",
		},
		{
			URI:         "strata://gap-report",
			Name:        "Gap Report",
			Description: "Full architecture gap report from the last analysis",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "strata_gaps":
		category, _ := args["category"].(string)
		return s.handleGaps(ctx, category)
	case "strata_symbol":
		symbol, _ := args["name"].(string)
		return s.handleSymbol(ctx, symbol)
	case "strata_connections":
		file, _ := args["file"].(string)
		return s.handleConnections(ctx, file)
	case "strata_layers":
		return s.handleLayers(ctx)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "strata://overview":
		return s.getOverview(ctx)
	case "strata://gap-report":
		return s.handleGaps(ctx, "")
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// Note: Do NOT use SetIndent - MCP protocol requires compact JSON (one line per message)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    "strata",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

// Tool Handlers

func (s *Server) handleGaps(ctx context.Context, category string) (string, error) {
	artifacts, missing, err := storage.LoadArtifacts(ctx, s.backend)
	if err != nil {
		return "", err
	}
	report := artifacts.Report

	sections := map[string]func(*strings.Builder){
		"orphaned_symbols": func(sb *strings.Builder) {
			sb.WriteString(fmt.Sprintf("## Orphaned Symbols (%d)\n\n", len(report.Orphans)))
			for _, o := range report.Orphans {
				sb.WriteString(fmt.Sprintf("- **%s** (%s) in `%s` [%s]\n", o.Symbol, o.Kind, o.File, o.Severity))
			}
		},
		"missing_tests": func(sb *strings.Builder) {
			sb.WriteString(fmt.Sprintf("## Missing Tests (%d)\n\n", len(report.MissingTests)))
			for _, m := range report.MissingTests {
				sb.WriteString(fmt.Sprintf("- `%s` (%d symbols) [%s]: %s\n", m.File, m.SymbolCount, m.Severity, m.Suggestion))
			}
		},
		"circular_dependencies": func(sb *strings.Builder) {
			sb.WriteString(fmt.Sprintf("## Circular Dependencies (%d)\n\n", len(report.CircularDeps)))
			for _, c := range report.CircularDeps {
				sb.WriteString(fmt.Sprintf("- %s [%s]\n", strings.Join(c.Cycle, " -> "), c.Severity))
			}
		},
		"highly_coupled": func(sb *strings.Builder) {
			sb.WriteString(fmt.Sprintf("## Highly Coupled Files (%d)\n\n", len(report.HighlyCoupled)))
			for _, h := range report.HighlyCoupled {
				sb.WriteString(fmt.Sprintf("- `%s` in: %d, out: %d, total: %d [%s]\n", h.File, h.Incoming, h.Outgoing, h.Total, h.Severity))
			}
		},
		"layer_imbalance": func(sb *strings.Builder) {
			sb.WriteString(fmt.Sprintf("## Layer Imbalance (%d)\n\n", len(report.LayerImbalances)))
			for _, l := range report.LayerImbalances {
				sb.WriteString(fmt.Sprintf("- %s (%d files, %.1f%%): %s\n", l.Layer, l.FileCount, l.Percentage, l.Issue))
			}
		},
		"missing_connections": func(sb *strings.Builder) {
			sb.WriteString(fmt.Sprintf("## Missing Connections (%d)\n\n", len(report.MissingConnections)))
			for _, m := range report.MissingConnections {
				sb.WriteString(fmt.Sprintf("- `%s` -> %s: %s\n", m.FromFile, m.ToLayer, m.Suggestion))
			}
		},
		"pattern_violations": func(sb *strings.Builder) {
			sb.WriteString(fmt.Sprintf("## Pattern Violations (%d)\n\n", len(report.PatternViolations)))
			for _, p := range report.PatternViolations {
				sb.WriteString(fmt.Sprintf("- `%s` [%s]: %s\n", p.File, p.Pattern, p.Issue))
			}
		},
		"documentation_gaps": func(sb *strings.Builder) {
			sb.WriteString(fmt.Sprintf("## Documentation Gaps (%d)\n\n", len(report.DocumentationGaps)))
			for _, d := range report.DocumentationGaps {
				sb.WriteString(fmt.Sprintf("- %s [%s]\n", d.Type, d.Severity))
			}
		},
		"tag_gaps": func(sb *strings.Builder) {
			sb.WriteString(fmt.Sprintf("## Tag Gaps (%d)\n\n", len(report.TagGaps)))
			for _, t := range report.TagGaps {
				sb.WriteString(fmt.Sprintf("- [%s] %s <-> %s\n", t.Tag, t.From, t.To))
			}
		},
	}

	var sb strings.Builder

	if category != "" {
		section, ok := sections[category]
		if !ok {
			keys := make([]string, 0, len(sections))
			for k := range sections {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return fmt.Sprintf("Unknown category '%s'. Valid categories: %s", category, strings.Join(keys, ", ")), nil
		}
		section(&sb)
		return sb.String(), nil
	}

	sb.WriteString("# Gap Report\n\n")
	if report.Metrics.Total == 0 {
		sb.WriteString("No gaps detected.\n")
	} else {
		for _, key := range []string{
			"orphaned_symbols", "missing_tests", "circular_dependencies",
			"highly_coupled", "layer_imbalance", "missing_connections",
			"pattern_violations", "documentation_gaps", "tag_gaps",
		} {
			sections[key](&sb)
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("**Total findings:** %d\n", report.Metrics.Total))
	}

	if len(missing) > 0 {
		sb.WriteString(fmt.Sprintf("\nNote: absent artifacts %v. Run `strata analyze` to populate.\n", missing))
	}

	return sb.String(), nil
}

func (s *Server) handleSymbol(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "No symbol name provided", nil
	}

	artifacts, _, err := storage.LoadArtifacts(ctx, s.backend)
	if err != nil {
		return "", err
	}

	var matches []*graph.Symbol
	for _, sym := range artifacts.Symbols {
		if sym.Name == name {
			matches = append(matches, sym)
		}
	}

	if len(matches) == 0 {
		return fmt.Sprintf("Symbol '%s' not found. Run `strata analyze` if the corpus changed.", name), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Symbol: %s\n\n", name))

	for _, sym := range matches {
		sb.WriteString(fmt.Sprintf("## %s in `%s` (line %d)\n", sym.Kind, sym.File, sym.Line))

		if fp := artifacts.Patterns[sym.ID]; fp != nil {
			if len(fp.Tags) > 0 {
				sb.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(fp.Tags, ", ")))
			}
			if len(fp.Patterns) > 0 {
				sb.WriteString(fmt.Sprintf("Patterns: %s\n", strings.Join(fp.Patterns, ", ")))
			}
		}

		if len(sym.Refs) == 0 {
			sb.WriteString("Referenced by: nothing (orphan candidate)\n")
		} else {
			sb.WriteString(fmt.Sprintf("Referenced by (%d files):\n", len(sym.Refs)))
			for _, ref := range sym.Refs {
				sb.WriteString(fmt.Sprintf("- `%s`\n", ref))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Next: Use `strata_connections` on a referencing file to see its edges.")

	return sb.String(), nil
}

func (s *Server) handleConnections(ctx context.Context, file string) (string, error) {
	if file == "" {
		return "No file path provided", nil
	}

	artifacts, _, err := storage.LoadArtifacts(ctx, s.backend)
	if err != nil {
		return "", err
	}

	links, ok := artifacts.Connections[file]
	if !ok {
		return fmt.Sprintf("File '%s' not found in the connection graph.", file), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Connections for `%s`\n\n", file))
	sb.WriteString(fmt.Sprintf("Layer: %s\n\n", analysis.ClassifyLayer(file)))

	sb.WriteString(fmt.Sprintf("## Incoming (%d)\n", len(links.Incoming)))
	for _, f := range links.Incoming {
		sb.WriteString(fmt.Sprintf("- `%s`\n", f))
	}
	sb.WriteString(fmt.Sprintf("\n## Outgoing (%d)\n", len(links.Outgoing)))
	for _, f := range links.Outgoing {
		sb.WriteString(fmt.Sprintf("- `%s`\n", f))
	}

	return sb.String(), nil
}

func (s *Server) handleLayers(ctx context.Context) (string, error) {
	artifacts, _, err := storage.LoadArtifacts(ctx, s.backend)
	if err != nil {
		return "", err
	}

	counts := make(map[string]int)
	total := 0
	for file := range artifacts.Connections {
		counts[analysis.ClassifyLayer(file)]++
		total++
	}

	var sb strings.Builder
	sb.WriteString("# Layer Distribution\n\n")

	if total == 0 {
		sb.WriteString("No files in the connection graph. Run `strata analyze` first.\n")
		return sb.String(), nil
	}

	for _, layer := range analysis.Layers() {
		count := counts[layer]
		if count == 0 {
			continue
		}
		pct := float64(count) / float64(total) * 100
		sb.WriteString(fmt.Sprintf("- %s: %d files (%.1f%%)\n", layer, count, pct))
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %d files\n", total))

	return sb.String(), nil
}

// Resource Handlers

func (s *Server) getOverview(ctx context.Context) (string, error) {
	artifacts, missing, err := storage.LoadArtifacts(ctx, s.backend)
	if err != nil {
		return "", err
	}

	edgeCount := 0
	for _, links := range artifacts.Connections {
		edgeCount += len(links.Outgoing)
	}

	var sb strings.Builder
	sb.WriteString("# Strata Corpus Overview\n\n")
	sb.WriteString(fmt.Sprintf("**Files:** %d\n", len(artifacts.Connections)))
	sb.WriteString(fmt.Sprintf("**Symbols:** %d\n", len(artifacts.Symbols)))
	sb.WriteString(fmt.Sprintf("**Connections:** %d\n", edgeCount))
	sb.WriteString(fmt.Sprintf("**Gap findings:** %d\n", artifacts.Report.Metrics.Total))
	sb.WriteString("\n## Tools\n\n")
	sb.WriteString("- strata_gaps: architecture gap report\n")
	sb.WriteString("- strata_symbol: symbol lookup with references\n")
	sb.WriteString("- strata_connections: file-level connection graph\n")
	sb.WriteString("- strata_layers: layer distribution\n")

	if len(missing) > 0 {
		sb.WriteString(fmt.Sprintf("\nNote: absent artifacts %v. Run `strata analyze` to populate.\n", missing))
	}

	return sb.String(), nil
}

// Helper functions

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
