// Package graph provides the in-memory connection graph for Strata.
//
// The ConnectionGraph is a directed file-to-file graph: an edge A -> B exists
// iff some symbol declared in A is referenced by exact word match inside B.
// Self-edges may occur and are tolerated. The graph is append-only during a
// single analysis pass and shared read-only afterwards.
package graph

import (
	"encoding/json"
	"sort"
	"sync"
)

// FileLinks is the serialized adjacency of one file: ordered incoming and
// outgoing neighbor lists for deterministic artifacts.
type FileLinks struct {
	Incoming []string `json:"incoming"`
	Outgoing []string `json:"outgoing"`
}

// ConnectionGraph is an in-memory directed graph keyed by file path.
//
// Write methods are safe for concurrent use; once construction is finished
// the graph is treated as immutable and may be freely shared across
// concurrent analysis passes.
type ConnectionGraph struct {
	mu       sync.RWMutex
	outgoing map[string]map[string]struct{}
	incoming map[string]map[string]struct{}
}

// NewConnectionGraph creates a new empty connection graph.
func NewConnectionGraph() *ConnectionGraph {
	return &ConnectionGraph{
		outgoing: make(map[string]map[string]struct{}),
		incoming: make(map[string]map[string]struct{}),
	}
}

// EnsureFile registers a file with empty adjacency if it is not yet present.
// Layer and documentation passes need edgeless files in the artifact too.
func (g *ConnectionGraph) EnsureFile(file string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureLocked(file)
}

func (g *ConnectionGraph) ensureLocked(file string) {
	if g.outgoing[file] == nil {
		g.outgoing[file] = make(map[string]struct{})
	}
	if g.incoming[file] == nil {
		g.incoming[file] = make(map[string]struct{})
	}
}

// AddEdge records a directed edge from -> to, keeping the incoming and
// outgoing indexes symmetric. Duplicate edges are idempotent.
func (g *ConnectionGraph) AddEdge(from, to string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ensureLocked(from)
	g.ensureLocked(to)
	g.outgoing[from][to] = struct{}{}
	g.incoming[to][from] = struct{}{}
}

// HasEdge reports whether a directed edge from -> to exists.
func (g *ConnectionGraph) HasEdge(from, to string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.outgoing[from][to]
	return ok
}

// Connected reports whether an edge exists between a and b in either direction.
func (g *ConnectionGraph) Connected(a, b string) bool {
	return g.HasEdge(a, b) || g.HasEdge(b, a)
}

// Files returns all registered file paths in sorted order.
func (g *ConnectionGraph) Files() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	files := make([]string, 0, len(g.outgoing))
	for f := range g.outgoing {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Outgoing returns the sorted outgoing neighbors of a file.
func (g *ConnectionGraph) Outgoing(file string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.outgoing[file])
}

// Incoming returns the sorted incoming neighbors of a file.
func (g *ConnectionGraph) Incoming(file string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.incoming[file])
}

// Degree returns the total degree (incoming + outgoing edge count) of a file.
func (g *ConnectionGraph) Degree(file string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.incoming[file]) + len(g.outgoing[file])
}

// FileCount returns the number of registered files.
func (g *ConnectionGraph) FileCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.outgoing)
}

// EdgeCount returns the number of directed edges.
func (g *ConnectionGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	count := 0
	for _, targets := range g.outgoing {
		count += len(targets)
	}
	return count
}

// Links returns the full adjacency as file -> FileLinks with sorted neighbor
// lists. This is the deterministic artifact form.
func (g *ConnectionGraph) Links() map[string]FileLinks {
	g.mu.RLock()
	defer g.mu.RUnlock()

	links := make(map[string]FileLinks, len(g.outgoing))
	for file := range g.outgoing {
		links[file] = FileLinks{
			Incoming: sortedKeys(g.incoming[file]),
			Outgoing: sortedKeys(g.outgoing[file]),
		}
	}
	return links
}

// MarshalJSON serializes the graph as file -> {incoming, outgoing} with
// sorted neighbor lists. Map keys sort during encoding, so two graphs with
// the same edge set produce identical bytes.
func (g *ConnectionGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Links())
}

// FromLinks rebuilds a graph from its serialized adjacency form.
func FromLinks(links map[string]FileLinks) *ConnectionGraph {
	g := NewConnectionGraph()
	for file, l := range links {
		g.EnsureFile(file)
		for _, to := range l.Outgoing {
			g.AddEdge(file, to)
		}
		for _, from := range l.Incoming {
			g.AddEdge(from, file)
		}
	}
	return g
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
