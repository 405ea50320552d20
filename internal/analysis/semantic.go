package analysis

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/stratalab/strata/internal/graph"
)

// Analyzer runs the semantic gap passes over persisted artifacts: symbol
// records, the connection graph, and fingerprints. It never re-reads files,
// so it can run on partial data; each pass independently degrades to an
// empty result when its inputs are absent.
type Analyzer struct {
	symbols    []*graph.Symbol
	graph      *graph.ConnectionGraph
	prints     map[string]*graph.Fingerprint
	thresholds Thresholds
}

// NewAnalyzer creates an analyzer over the given artifacts. Nil inputs are
// replaced with empty structures.
func NewAnalyzer(symbols []*graph.Symbol, g *graph.ConnectionGraph, prints map[string]*graph.Fingerprint, th Thresholds) *Analyzer {
	if g == nil {
		g = graph.NewConnectionGraph()
	}
	if prints == nil {
		prints = map[string]*graph.Fingerprint{}
	}
	return &Analyzer{
		symbols:    symbols,
		graph:      g,
		prints:     prints,
		thresholds: th,
	}
}

// Analyze runs all passes and combines them into one report. The passes are
// mutually independent and run concurrently against the immutable graph.
func (a *Analyzer) Analyze() *GapReport {
	report := &GapReport{}

	var wg sync.WaitGroup
	run := func(pass func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pass()
		}()
	}

	run(func() { report.Orphans = a.FindOrphans() })
	run(func() { report.MissingTests = a.FindMissingTests() })
	run(func() { report.CircularDeps = a.FindCircularDependencies() })
	run(func() { report.HighlyCoupled = a.FindHighlyCoupled() })
	run(func() { report.LayerImbalances = a.FindLayerImbalances() })
	run(func() { report.MissingConnections = a.FindMissingConnections() })
	run(func() { report.PatternViolations = a.FindPatternViolations() })
	run(func() { report.DocumentationGaps = a.FindDocumentationGaps() })
	run(func() { report.TagGaps = FindTagGaps(a.symbols, a.prints, a.graph) })
	wg.Wait()

	report.summarize()
	return report
}

// FindOrphans flags symbols whose reference list has at most one entry and
// that entry is the declaring file itself.
func (a *Analyzer) FindOrphans() []OrphanedSymbol {
	orphans := []OrphanedSymbol{}
	for _, sym := range a.symbols {
		if len(sym.Refs) > 1 {
			continue
		}
		if len(sym.Refs) == 1 && sym.Refs[0] != sym.File {
			continue
		}

		severity := SeverityMedium
		if sym.Kind == graph.KindClass {
			severity = SeverityHigh
		}
		orphans = append(orphans, OrphanedSymbol{
			Symbol:   sym.Name,
			File:     sym.File,
			Kind:     string(sym.Kind),
			Severity: severity,
		})
	}
	return orphans
}

// FindMissingTests flags non-test source files without a sibling test file
// following the test_<name> or <name>_test naming convention.
func (a *Analyzer) FindMissingTests() []MissingTest {
	symbolCount := make(map[string]int)
	for _, sym := range a.symbols {
		symbolCount[sym.File]++
	}

	testStems := make(map[string]bool)
	for _, file := range a.graph.Files() {
		if isTestPath(file) {
			testStems[stem(file)] = true
		}
	}

	missing := []MissingTest{}
	for _, file := range a.graph.Files() {
		if isTestPath(file) || isDocPath(file) {
			continue
		}
		s := stem(file)
		if testStems["test_"+s] || testStems[s+"_test"] {
			continue
		}

		count := symbolCount[file]
		severity := SeverityMedium
		if count > a.thresholds.TestImportanceSymbols {
			severity = SeverityHigh
		}
		missing = append(missing, MissingTest{
			File:        file,
			SymbolCount: count,
			Severity:    severity,
			Suggestion:  fmt.Sprintf("add test_%s or %s_test covering %s", s, s, file),
		})
	}
	return missing
}

// maxCyclePathLen bounds the depth-first search so pathological graphs do
// not explode; real dependency cycles are far shorter.
const maxCyclePathLen = 16

// FindCircularDependencies reports file cycles longer than the minimum
// length, deduplicated by the sorted set of member files so the same cycle
// is reported once regardless of the starting point. Self-edges and 2-file
// mutual references are never reported.
func (a *Analyzer) FindCircularDependencies() []CircularDependency {
	cycles := []CircularDependency{}
	seen := make(map[string]bool)

	for _, start := range a.graph.Files() {
		path := []string{start}
		onPath := map[string]bool{start: true}
		a.dfsCycles(start, start, path, onPath, seen, &cycles)
	}
	return cycles
}

func (a *Analyzer) dfsCycles(start, current string, path []string, onPath map[string]bool, seen map[string]bool, cycles *[]CircularDependency) {
	for _, next := range a.graph.Outgoing(current) {
		if next == current {
			continue // self-edge, tolerated but never a cycle
		}
		if next == start {
			if len(path) <= a.thresholds.CycleMinLen {
				continue
			}
			key := cycleKey(path)
			if seen[key] {
				continue
			}
			seen[key] = true

			severity := SeverityHigh
			if len(path) > a.thresholds.CycleCriticalLen {
				severity = SeverityCritical
			}
			cycle := make([]string, len(path))
			copy(cycle, path)
			*cycles = append(*cycles, CircularDependency{
				Cycle:    cycle,
				Length:   len(cycle),
				Severity: severity,
			})
			continue
		}
		if onPath[next] || len(path) >= maxCyclePathLen {
			continue
		}
		onPath[next] = true
		a.dfsCycles(start, next, append(path, next), onPath, seen, cycles)
		delete(onPath, next)
	}
}

func cycleKey(files []string) string {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// FindHighlyCoupled reports files whose total degree exceeds the coupling
// threshold, sorted by total degree descending.
func (a *Analyzer) FindHighlyCoupled() []HighlyCoupled {
	coupled := []HighlyCoupled{}
	for _, file := range a.graph.Files() {
		in := len(a.graph.Incoming(file))
		out := len(a.graph.Outgoing(file))
		total := in + out
		if total <= a.thresholds.CouplingHigh {
			continue
		}

		severity := SeverityHigh
		if total > a.thresholds.CouplingCritical {
			severity = SeverityCritical
		}
		coupled = append(coupled, HighlyCoupled{
			File:     file,
			Incoming: in,
			Outgoing: out,
			Total:    total,
			Severity: severity,
		})
	}

	sort.Slice(coupled, func(i, j int) bool {
		if coupled[i].Total != coupled[j].Total {
			return coupled[i].Total > coupled[j].Total
		}
		return coupled[i].File < coupled[j].File
	})
	return coupled
}

// FindLayerImbalances classifies every file into a layer and flags layers
// that are too heavy or too light relative to the whole corpus.
func (a *Analyzer) FindLayerImbalances() []LayerImbalance {
	counts := make(map[string]int)
	total := 0
	for _, file := range a.graph.Files() {
		counts[ClassifyLayer(file)]++
		total++
	}
	if total == 0 {
		return []LayerImbalance{}
	}

	imbalances := []LayerImbalance{}
	for _, layer := range Layers() {
		count := counts[layer]
		pct := float64(count) / float64(total) * 100

		switch {
		case pct > a.thresholds.LayerHeavyPct:
			imbalances = append(imbalances, LayerImbalance{
				Layer:      layer,
				FileCount:  count,
				Percentage: pct,
				Issue: fmt.Sprintf("layer holds %.1f%% of files (threshold %.0f%%), consider splitting",
					pct, a.thresholds.LayerHeavyPct),
			})
		case count > 0 && pct < a.thresholds.LayerLightPct:
			imbalances = append(imbalances, LayerImbalance{
				Layer:      layer,
				FileCount:  count,
				Percentage: pct,
				Issue: fmt.Sprintf("layer holds only %.1f%% of files (threshold %.0f%%), may be vestigial",
					pct, a.thresholds.LayerLightPct),
			})
		}
	}
	return imbalances
}

// FindMissingConnections checks layer collaboration rules: every non-test
// semantic-layer file should connect to at least one graph-layer file, and
// each orchestration entry file should have an outgoing edge into the
// semantic layer.
func (a *Analyzer) FindMissingConnections() []MissingConnection {
	missing := []MissingConnection{}

	for _, file := range a.graph.Files() {
		if ClassifyLayer(file) != LayerSemantic || isTestPath(file) {
			continue
		}
		if a.touchesLayer(file, LayerGraph) {
			continue
		}
		missing = append(missing, MissingConnection{
			FromFile:   file,
			ToLayer:    LayerGraph,
			Type:       "semantic_to_graph",
			Suggestion: fmt.Sprintf("%s has no connection to any graph-layer file", file),
		})
	}

	for _, file := range a.graph.Files() {
		base := path.Base(file)
		if !strings.HasPrefix(base, a.thresholds.EntryFilePrefix+".") {
			continue
		}
		connected := false
		for _, out := range a.graph.Outgoing(file) {
			if ClassifyLayer(out) == LayerSemantic {
				connected = true
				break
			}
		}
		if !connected {
			missing = append(missing, MissingConnection{
				FromFile:   file,
				ToLayer:    LayerSemantic,
				Type:       "entry_to_semantic",
				Suggestion: fmt.Sprintf("entry file %s has no outgoing edge into the semantic layer", file),
			})
		}
	}
	return missing
}

func (a *Analyzer) touchesLayer(file, layer string) bool {
	for _, out := range a.graph.Outgoing(file) {
		if ClassifyLayer(out) == layer {
			return true
		}
	}
	for _, in := range a.graph.Incoming(file) {
		if ClassifyLayer(in) == layer {
			return true
		}
	}
	return false
}

// FindPatternViolations flags visualization-layer files that reference a
// core-layer file directly; they are expected to route through an
// intermediary. A visualization file consuming a core symbol shows up as an
// incoming edge from the core file, since edges point from the declaring
// file to the referencing one.
func (a *Analyzer) FindPatternViolations() []PatternViolation {
	violations := []PatternViolation{}
	for _, file := range a.graph.Files() {
		if ClassifyLayer(file) != LayerVisualization {
			continue
		}
		for _, in := range a.graph.Incoming(file) {
			if ClassifyLayer(in) != LayerCore {
				continue
			}
			violations = append(violations, PatternViolation{
				File:    file,
				Pattern: "layered_mediation",
				Issue:   fmt.Sprintf("visualization file uses core file %s directly", in),
			})
		}
	}
	return violations
}

// FindDocumentationGaps flags the absence of a root README-equivalent and an
// insufficient count of markdown-like files in the graph.
func (a *Analyzer) FindDocumentationGaps() []DocumentationGap {
	if a.graph.FileCount() == 0 {
		return []DocumentationGap{}
	}

	hasReadme := false
	docCount := 0
	for _, file := range a.graph.Files() {
		if isDocPath(file) {
			docCount++
			if !strings.Contains(file, "/") &&
				strings.HasPrefix(strings.ToLower(path.Base(file)), "readme") {
				hasReadme = true
			}
		}
	}

	gaps := []DocumentationGap{}
	if !hasReadme {
		gaps = append(gaps, DocumentationGap{Type: "missing_readme", Severity: SeverityHigh})
	}
	if docCount < a.thresholds.MinDocFiles {
		gaps = append(gaps, DocumentationGap{Type: "insufficient_docs", Severity: SeverityMedium})
	}
	return gaps
}

// stem returns the file base name without its extension.
func stem(file string) string {
	base := path.Base(file)
	return strings.TrimSuffix(base, path.Ext(base))
}

// isDocPath reports whether a file is documentation-class by extension.
func isDocPath(file string) bool {
	switch strings.ToLower(path.Ext(file)) {
	case ".md", ".rst", ".markdown":
		return true
	}
	return false
}
