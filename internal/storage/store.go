// Package storage provides the artifact store for Strata.
//
// Analysis results are persisted as a small set of named JSON documents
// (symbol records, the connection graph, fingerprints, and the gap report),
// each independently loadable by downstream consumers without re-running
// analysis.
package storage

import (
	"context"

	"github.com/stratalab/strata/internal/analysis"
	"github.com/stratalab/strata/internal/graph"
)

// Document names persisted by the pipeline.
const (
	DocSymbols     = "symbols"
	DocConnections = "connections"
	DocPatterns    = "patterns"
	DocGapReport   = "gap_report"

	// DocMeta carries run metadata (timestamps, version). It is not part of
	// the deterministic artifact set.
	DocMeta = "meta"
)

// Loader is the read side of an artifact store. Consumers that only inspect
// a prior run (the MCP server, the gaps command) should depend on this.
type Loader interface {
	// Load deserializes the named document into out. It returns false with a
	// nil error when the document does not exist, so callers can default to
	// an empty structure instead of failing.
	Load(ctx context.Context, name string, out any) (bool, error)
}

// ArtifactStore defines the interface for artifact persistence backends.
//
// Implementations must be safe for concurrent use.
type ArtifactStore interface {
	Loader

	// Initialize opens or creates the store at the given path.
	// If readOnly is true, the store is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the store.
	Close() error

	// Save serializes v as JSON under the given document name.
	Save(ctx context.Context, name string, v any) error
}

// Artifacts bundles everything one analysis run persists.
type Artifacts struct {
	Symbols     []*graph.Symbol               `json:"symbols"`
	Connections map[string]graph.FileLinks    `json:"connections"`
	Patterns    map[string]*graph.Fingerprint `json:"patterns"`
	Report      *analysis.GapReport           `json:"report"`
}

// SaveArtifacts writes all documents of a run.
func SaveArtifacts(ctx context.Context, store ArtifactStore, a *Artifacts) error {
	if err := store.Save(ctx, DocSymbols, a.Symbols); err != nil {
		return err
	}
	if err := store.Save(ctx, DocConnections, a.Connections); err != nil {
		return err
	}
	if err := store.Save(ctx, DocPatterns, a.Patterns); err != nil {
		return err
	}
	return store.Save(ctx, DocGapReport, a.Report)
}

// LoadArtifacts reads all documents of a prior run. Each document that is
// absent loads as an empty structure and is reported in the missing list;
// a partial store is usable, not an error.
func LoadArtifacts(ctx context.Context, store Loader) (*Artifacts, []string, error) {
	a := &Artifacts{
		Symbols:     []*graph.Symbol{},
		Connections: map[string]graph.FileLinks{},
		Patterns:    map[string]*graph.Fingerprint{},
		Report:      &analysis.GapReport{},
	}
	var missing []string

	for _, doc := range []struct {
		name string
		out  any
	}{
		{DocSymbols, &a.Symbols},
		{DocConnections, &a.Connections},
		{DocPatterns, &a.Patterns},
		{DocGapReport, a.Report},
	} {
		ok, err := store.Load(ctx, doc.name, doc.out)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			missing = append(missing, doc.name)
		}
	}
	return a, missing, nil
}

// Graph rebuilds the connection graph from the persisted adjacency form.
func (a *Artifacts) Graph() *graph.ConnectionGraph {
	return graph.FromLinks(a.Connections)
}
