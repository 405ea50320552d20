package analysis

import (
	"sort"

	"github.com/stratalab/strata/internal/graph"
)

// FindTagGaps groups symbols by shared vocabulary tag and flags every
// unordered pair whose owning files have no edge between them in either
// direction. Pairs within the same file are skipped.
func FindTagGaps(symbols []*graph.Symbol, prints map[string]*graph.Fingerprint, g *graph.ConnectionGraph) []TagGap {
	// Deduplicate by ID; duplicate declarations share file and name.
	byID := make(map[string]*graph.Symbol, len(symbols))
	for _, sym := range symbols {
		byID[sym.ID] = sym
	}

	byTag := make(map[string][]*graph.Symbol)
	for id, fp := range prints {
		sym, ok := byID[id]
		if !ok {
			continue
		}
		for _, tag := range fp.Tags {
			byTag[tag] = append(byTag[tag], sym)
		}
	}

	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	gaps := []TagGap{}
	for _, tag := range tags {
		members := byTag[tag]
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if a.File == b.File {
					continue
				}
				if g.Connected(a.File, b.File) {
					continue
				}
				gaps = append(gaps, TagGap{Tag: tag, From: a.ID, To: b.ID})
			}
		}
	}
	return gaps
}
