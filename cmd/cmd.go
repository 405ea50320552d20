// Package cmd provides CLI command implementations for Strata.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/stratalab/strata/internal/analysis"
	"github.com/stratalab/strata/internal/scan"
	"github.com/stratalab/strata/internal/storage"
	"github.com/stratalab/strata/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// AnalyzeCmd scans a corpus and persists the symbol graph and gap report.
type AnalyzeCmd struct {
	Path        string   `arg:"" optional:"" default:"." help:"Path to the corpus root"`
	Exclude     []string `help:"Additional directory names to exclude"`
	MaxFiles    int      `help:"Maximum number of files to scan (0 = unlimited)"`
	MaxFileSize int64    `help:"Skip files larger than this many bytes (0 = unlimited)"`
}

// Run executes the analyze command.
func (c *AnalyzeCmd) Run() error {
	ctx := context.Background()
	root, err := filepath.Abs(c.Path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("accessing %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	color.Green("Analyzing %s", root)

	strataDir := filepath.Join(root, ".strata")
	if err := os.MkdirAll(strataDir, 0o755); err != nil {
		return fmt.Errorf("creating .strata directory: %w", err)
	}

	store := storage.NewBadgerStore()
	if err := store.Initialize(filepath.Join(strataDir, "badger"), false); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	progress := func(phase string, pct float64) {
		fmt.Printf("\r\033[K%s (%.0f%%)", phase, pct*100)
	}

	opts := scan.Options{
		Walk: scan.WalkOptions{
			ExcludeDirs: c.Exclude,
			MaxFiles:    c.MaxFiles,
			MaxFileSize: c.MaxFileSize,
		},
	}

	_, result, err := scan.RunPipeline(ctx, root, store, opts, progress)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	fmt.Println() // Newline after progress

	meta := map[string]any{
		"version":     Version,
		"name":        filepath.Base(root),
		"path":        root,
		"files":       result.Files,
		"symbols":     result.Symbols,
		"edges":       result.Edges,
		"gaps":        result.Gaps,
		"analyzed_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := store.Save(ctx, storage.DocMeta, meta); err != nil {
		return fmt.Errorf("writing meta: %w", err)
	}

	metaJSON, _ := json.MarshalIndent(meta, "", "  ")
	if err := os.WriteFile(filepath.Join(strataDir, "meta.json"), metaJSON, 0o644); err != nil {
		return fmt.Errorf("writing meta.json: %w", err)
	}

	color.Green("\n✓ Analysis complete")
	fmt.Printf("  Files:    %d\n", result.Files)
	fmt.Printf("  Symbols:  %d\n", result.Symbols)
	fmt.Printf("  Edges:    %d\n", result.Edges)
	fmt.Printf("  Gaps:     %d\n", result.Gaps)
	fmt.Printf("  Duration: %.2fs\n", result.DurationSecs)

	if len(result.Warnings) > 0 {
		color.Yellow("\nSkipped files (%d):", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}

	return nil
}

// GapsCmd prints the persisted gap report.
type GapsCmd struct {
	JSON bool `help:"Emit the raw report as JSON"`
}

// Run executes the gaps command.
func (c *GapsCmd) Run() error {
	ctx := context.Background()
	store, err := openStore(true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	artifacts, missing, err := storage.LoadArtifacts(ctx, store)
	if err != nil {
		return fmt.Errorf("loading artifacts: %w", err)
	}

	if c.JSON {
		out, err := json.MarshalIndent(artifacts.Report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	printReport(artifacts.Report)

	if len(missing) > 0 {
		color.Yellow("\nAbsent sections (run 'strata analyze' to populate): %v", missing)
	}
	return nil
}

func printReport(r *analysis.GapReport) {
	fmt.Println("## Gap Report")
	fmt.Println()

	if r.Metrics.Total == 0 {
		color.Green("✓ No gaps detected")
		return
	}

	if len(r.Orphans) > 0 {
		fmt.Printf("### Orphaned symbols (%d)\n", len(r.Orphans))
		for _, o := range r.Orphans {
			fmt.Printf("  [%s] %s (%s) in %s\n", o.Severity, o.Symbol, o.Kind, o.File)
		}
		fmt.Println()
	}

	if len(r.MissingTests) > 0 {
		fmt.Printf("### Missing tests (%d)\n", len(r.MissingTests))
		for _, m := range r.MissingTests {
			fmt.Printf("  [%s] %s (%d symbols)\n", m.Severity, m.File, m.SymbolCount)
		}
		fmt.Println()
	}

	if len(r.CircularDeps) > 0 {
		fmt.Printf("### Circular dependencies (%d)\n", len(r.CircularDeps))
		for _, c := range r.CircularDeps {
			fmt.Printf("  [%s] %v (length %d)\n", c.Severity, c.Cycle, c.Length)
		}
		fmt.Println()
	}

	if len(r.HighlyCoupled) > 0 {
		fmt.Printf("### Highly coupled files (%d)\n", len(r.HighlyCoupled))
		for _, h := range r.HighlyCoupled {
			fmt.Printf("  [%s] %s (in %d, out %d, total %d)\n", h.Severity, h.File, h.Incoming, h.Outgoing, h.Total)
		}
		fmt.Println()
	}

	if len(r.LayerImbalances) > 0 {
		fmt.Printf("### Layer imbalance (%d)\n", len(r.LayerImbalances))
		for _, l := range r.LayerImbalances {
			fmt.Printf("  %s: %s\n", l.Layer, l.Issue)
		}
		fmt.Println()
	}

	if len(r.MissingConnections) > 0 {
		fmt.Printf("### Missing connections (%d)\n", len(r.MissingConnections))
		for _, m := range r.MissingConnections {
			fmt.Printf("  %s -> %s: %s\n", m.FromFile, m.ToLayer, m.Suggestion)
		}
		fmt.Println()
	}

	if len(r.PatternViolations) > 0 {
		fmt.Printf("### Pattern violations (%d)\n", len(r.PatternViolations))
		for _, p := range r.PatternViolations {
			fmt.Printf("  %s [%s]: %s\n", p.File, p.Pattern, p.Issue)
		}
		fmt.Println()
	}

	if len(r.DocumentationGaps) > 0 {
		fmt.Printf("### Documentation gaps (%d)\n", len(r.DocumentationGaps))
		for _, d := range r.DocumentationGaps {
			fmt.Printf("  [%s] %s\n", d.Severity, d.Type)
		}
		fmt.Println()
	}

	if len(r.TagGaps) > 0 {
		fmt.Printf("### Tag gaps (%d)\n", len(r.TagGaps))
		for _, t := range r.TagGaps {
			fmt.Printf("  [%s] %s <-> %s\n", t.Tag, t.From, t.To)
		}
		fmt.Println()
	}

	fmt.Printf("Total findings: %d\n", r.Metrics.Total)
}

// StatusCmd shows analysis status for the current corpus.
type StatusCmd struct{}

// Run executes the status command.
func (c *StatusCmd) Run() error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	metaPath := filepath.Join(root, ".strata", "meta.json")
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no analysis found at %s. Run 'strata analyze' first", root)
		}
		return fmt.Errorf("reading meta.json: %w", err)
	}

	var meta map[string]any
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return fmt.Errorf("parsing meta.json: %w", err)
	}

	fmt.Printf("Analysis status for %s\n", root)
	if version, ok := meta["version"].(string); ok {
		fmt.Printf("  Version:       %s\n", version)
	}
	if analyzedAt, ok := meta["analyzed_at"].(string); ok {
		fmt.Printf("  Last analyzed: %s\n", analyzedAt)
	}
	for _, key := range []string{"files", "symbols", "edges", "gaps"} {
		if v, ok := meta[key].(float64); ok {
			fmt.Printf("  %-13s %.0f\n", key+":", v)
		}
	}

	return nil
}

// CleanCmd deletes the analysis artifacts for the current corpus.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run() error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	strataDir := filepath.Join(root, ".strata")
	if _, err := os.Stat(strataDir); os.IsNotExist(err) {
		return fmt.Errorf("no analysis found at %s. Nothing to clean", root)
	}

	if !c.Force {
		fmt.Printf("Delete analysis at %s? [y/N] ", strataDir)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(strataDir); err != nil {
		return fmt.Errorf("deleting analysis: %w", err)
	}

	color.Green("Deleted %s", strataDir)
	return nil
}

// WatchCmd re-runs the analysis whenever the corpus changes.
type WatchCmd struct{}

// Run executes the watch command.
func (c *WatchCmd) Run() error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-osSignalChannel()
		fmt.Println("\nStopping watch mode...")
		cancel()
	}()

	err = scan.WatchCorpus(ctx, root, store, scan.Options{})
	if err != nil && err != context.Canceled {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Println("Watch mode stopped.")
	return nil
}

// MCPCmd starts the MCP server over the persisted artifacts.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run() error {
	ctx := context.Background()
	store, err := openStore(true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	server := mcp.NewServer(store)

	// Note: No output to stderr - MCP server uses stdio for JSON-RPC only
	return server.Run(ctx, os.Stdin, os.Stdout)
}

// ServeCmd starts the MCP server with optional watch mode.
type ServeCmd struct {
	Watch bool `short:"w" help:"Enable corpus watching"`
}

// Run executes the serve command.
func (c *ServeCmd) Run() error {
	ctx := context.Background()
	store, err := openStore(!c.Watch)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	server := mcp.NewServer(store)

	if c.Watch {
		fmt.Fprintln(os.Stderr, "Starting MCP server with watch mode...")

		root, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		go func() {
			err := scan.WatchCorpus(watchCtx, root, store, scan.Options{})
			if err != nil && err != context.Canceled {
				fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
			}
		}()
	} else {
		fmt.Fprintln(os.Stderr, "Starting MCP server...")
	}

	return server.Run(ctx, os.Stdin, os.Stdout)
}

// Helper functions

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

func openStore(readOnly bool) (*storage.BadgerStore, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	dbPath := filepath.Join(root, ".strata", "badger")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no analysis found at %s. Run 'strata analyze' first", root)
	}

	store := storage.NewBadgerStore()
	if err := store.Initialize(dbPath, readOnly); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	return store, nil
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable verbose output"`
	Quiet   bool             `short:"q" help:"Suppress non-essential output"`

	// Commands
	Analyze AnalyzeCmd `cmd:"" aliases:"init" help:"Scan a corpus and persist the symbol graph and gap report"`
	Gaps    GapsCmd    `cmd:"" help:"Print the persisted gap report"`
	Status  StatusCmd  `cmd:"" help:"Show analysis status for the current corpus"`
	Clean   CleanCmd   `cmd:"" help:"Delete analysis artifacts for the current corpus"`
	Watch   WatchCmd   `cmd:"" help:"Re-run analysis on corpus changes"`
	MCP     MCPCmd     `cmd:"" help:"Start MCP server (stdio transport)"`
	Serve   ServeCmd   `cmd:"" help:"Start MCP server with optional watch mode"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	kongCtx := kong.Parse(c,
		kong.Name("strata"),
		kong.Description("Architecture symbol graph and gap analysis engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	return kongCtx.Run()
}
