package analysis

import "strings"

// Architectural layers assigned to files by path heuristic.
const (
	LayerSemantic      = "semantic"
	LayerGraph         = "graph"
	LayerVisualization = "visualization"
	LayerCore          = "core"
	LayerCollector     = "collector"
	LayerServer        = "server"
	LayerOther         = "other"
)

// layerOrder is the fixed classification order; the first matching substring
// wins, so it doubles as the precedence between overlapping names.
var layerOrder = []struct {
	substr string
	layer  string
}{
	{"semantic", LayerSemantic},
	{"graph", LayerGraph},
	{"visualization", LayerVisualization},
	{"viz", LayerVisualization},
	{"core", LayerCore},
	{"collector", LayerCollector},
	{"server", LayerServer},
}

// Layers returns all layer names in classification order, ending with other.
func Layers() []string {
	return []string{
		LayerSemantic, LayerGraph, LayerVisualization,
		LayerCore, LayerCollector, LayerServer, LayerOther,
	}
}

// ClassifyLayer buckets a file path into an architectural layer.
func ClassifyLayer(path string) string {
	lower := strings.ToLower(path)
	for _, rule := range layerOrder {
		if strings.Contains(lower, rule.substr) {
			return rule.layer
		}
	}
	return LayerOther
}

// isTestPath reports whether a file path belongs to test code.
func isTestPath(path string) bool {
	return strings.Contains(strings.ToLower(path), "test")
}
