package analysis

// OrphanedSymbol flags a symbol referenced nowhere outside its own file.
type OrphanedSymbol struct {
	Symbol   string `json:"symbol"`
	File     string `json:"file"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
}

// MissingTest flags a source file with no sibling test file.
type MissingTest struct {
	File        string `json:"file"`
	SymbolCount int    `json:"symbol_count"`
	Severity    string `json:"severity"`
	Suggestion  string `json:"suggestion"`
}

// CircularDependency flags a file cycle longer than the minimum length.
type CircularDependency struct {
	Cycle    []string `json:"cycle"`
	Length   int      `json:"length"`
	Severity string   `json:"severity"`
}

// HighlyCoupled flags a file whose total edge degree exceeds the threshold.
type HighlyCoupled struct {
	File     string `json:"file"`
	Incoming int    `json:"incoming"`
	Outgoing int    `json:"outgoing"`
	Total    int    `json:"total"`
	Severity string `json:"severity"`
}

// LayerImbalance flags a layer that holds too many or too few files.
type LayerImbalance struct {
	Layer      string  `json:"layer"`
	FileCount  int     `json:"file_count"`
	Percentage float64 `json:"percentage"`
	Issue      string  `json:"issue"`
}

// MissingConnection flags a file that lacks an expected edge into a
// collaborating layer.
type MissingConnection struct {
	FromFile   string `json:"from_file"`
	ToLayer    string `json:"to_layer"`
	Type       string `json:"type"`
	Suggestion string `json:"suggestion"`
}

// PatternViolation flags an edge that bypasses an expected intermediary.
type PatternViolation struct {
	File    string `json:"file"`
	Pattern string `json:"pattern"`
	Issue   string `json:"issue"`
}

// DocumentationGap flags missing or insufficient documentation files.
type DocumentationGap struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
}

// TagGap flags two symbols that share a vocabulary tag although their owning
// files have no edge between them in either direction. This is a coarse
// heuristic precursor to the semantic passes, not a final judgment.
type TagGap struct {
	Tag  string `json:"tag"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Metrics is the headline summary of a gap report.
type Metrics struct {
	Orphans            int `json:"orphans"`
	MissingTests       int `json:"missing_tests"`
	CircularDeps       int `json:"circular_dependencies"`
	HighlyCoupled      int `json:"highly_coupled"`
	LayerImbalances    int `json:"layer_imbalances"`
	MissingConnections int `json:"missing_connections"`
	PatternViolations  int `json:"pattern_violations"`
	DocumentationGaps  int `json:"documentation_gaps"`
	TagGaps            int `json:"tag_gaps"`
	Total              int `json:"total"`
}

// GapReport combines all analysis passes into one persistable artifact.
// Empty passes serialize as empty lists so absent sections are explicit.
type GapReport struct {
	Orphans            []OrphanedSymbol     `json:"orphaned_symbols"`
	MissingTests       []MissingTest        `json:"missing_tests"`
	CircularDeps       []CircularDependency `json:"circular_dependencies"`
	HighlyCoupled      []HighlyCoupled      `json:"highly_coupled"`
	LayerImbalances    []LayerImbalance     `json:"layer_imbalance"`
	MissingConnections []MissingConnection  `json:"missing_connections"`
	PatternViolations  []PatternViolation   `json:"pattern_violations"`
	DocumentationGaps  []DocumentationGap   `json:"documentation_gaps"`
	TagGaps            []TagGap             `json:"tag_gaps"`
	Metrics            Metrics              `json:"metrics"`
}

// summarize recomputes the metrics block from the pass results.
func (r *GapReport) summarize() {
	r.Metrics = Metrics{
		Orphans:            len(r.Orphans),
		MissingTests:       len(r.MissingTests),
		CircularDeps:       len(r.CircularDeps),
		HighlyCoupled:      len(r.HighlyCoupled),
		LayerImbalances:    len(r.LayerImbalances),
		MissingConnections: len(r.MissingConnections),
		PatternViolations:  len(r.PatternViolations),
		DocumentationGaps:  len(r.DocumentationGaps),
		TagGaps:            len(r.TagGaps),
	}
	r.Metrics.Total = r.Metrics.Orphans + r.Metrics.MissingTests +
		r.Metrics.CircularDeps + r.Metrics.HighlyCoupled +
		r.Metrics.LayerImbalances + r.Metrics.MissingConnections +
		r.Metrics.PatternViolations + r.Metrics.DocumentationGaps +
		r.Metrics.TagGaps
}
