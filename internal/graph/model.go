// Package graph provides the architecture symbol graph data model for Strata.
//
// It defines the Symbol records extracted from a source corpus, the
// name-derived Fingerprint attached to each symbol, and the file-to-file
// ConnectionGraph built from textual reference matches.
package graph

// SymbolKind represents the kind of a top-level declaration.
type SymbolKind string

const (
	KindClass    SymbolKind = "class"
	KindFunction SymbolKind = "function"
)

// Symbol represents a top-level declared class or function.
//
// Identity is the composite of (File, Name); duplicate declarations with the
// same name in the same file produce independent Symbol records. Refs is
// appended by the reference mapper and is immutable afterwards.
type Symbol struct {
	// ID is the unique identifier for the symbol.
	// Format: {kind}:{file}:{name}
	ID string `json:"id"`

	// Name is the declared identifier.
	Name string `json:"name"`

	// Kind is the declaration kind (class or function).
	Kind SymbolKind `json:"kind"`

	// File is the corpus-relative path of the declaring file.
	File string `json:"file"`

	// Line is the 1-based line of the declaration.
	Line int `json:"line"`

	// Refs is the ordered list of files that reference this symbol by name.
	// It may include the declaring file itself.
	Refs []string `json:"refs"`
}

// Fingerprint holds the name-derived classification of a Symbol: vocabulary
// tags matched against a fixed lexicon and structural-pattern labels from
// suffix rules. No file content is consulted.
type Fingerprint struct {
	// Tags are lexicon substrings found in the lower-cased symbol name.
	Tags []string `json:"tags"`

	// Patterns are structural-pattern labels (e.g. "Controller") matched
	// against the original symbol name.
	Patterns []string `json:"patterns"`
}

// SymbolID creates a deterministic symbol ID from kind, file path, and name.
// Format: {kind}:{file}:{name}
func SymbolID(kind SymbolKind, file, name string) string {
	return string(kind) + ":" + file + ":" + name
}
