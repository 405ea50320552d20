// Package analysis provides the gap analysis passes for Strata.
//
// All passes operate on the persisted symbol records, connection graph, and
// fingerprints; none of them re-reads file content.
package analysis

// Severity levels attached to gap findings.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Thresholds holds the tunable limits used by the analysis passes. The
// defaults mirror long-standing heuristics; none of them is authoritative,
// which is why they are configuration rather than constants.
type Thresholds struct {
	// CouplingHigh is the total degree above which a file is flagged.
	CouplingHigh int

	// CouplingCritical is the total degree above which the flag escalates.
	CouplingCritical int

	// LayerHeavyPct flags a layer holding more than this percentage of files.
	LayerHeavyPct float64

	// LayerLightPct flags a non-empty layer below this percentage of files.
	LayerLightPct float64

	// TestImportanceSymbols escalates a missing-test finding when the file
	// declares more than this many symbols.
	TestImportanceSymbols int

	// CycleMinLen is the cycle length that must be exceeded to report a
	// circular dependency. Mutual 2-file references are not reported.
	CycleMinLen int

	// CycleCriticalLen escalates cycles longer than this.
	CycleCriticalLen int

	// MinDocFiles is the minimum number of markdown-like files expected.
	MinDocFiles int

	// EntryFilePrefix designates orchestration entry files by base name.
	EntryFilePrefix string
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CouplingHigh:          15,
		CouplingCritical:      20,
		LayerHeavyPct:         40,
		LayerLightPct:         5,
		TestImportanceSymbols: 5,
		CycleMinLen:           2,
		CycleCriticalLen:      4,
		MinDocFiles:           3,
		EntryFilePrefix:       "main",
	}
}
