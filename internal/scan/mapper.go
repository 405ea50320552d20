package scan

import (
	"regexp"
	"runtime"
	"sort"
	"sync"

	"github.com/stratalab/strata/internal/graph"
)

var identRe = regexp.MustCompile(`^[A-Za-z_]\w*$`)

// corpusIndex caches each file's content exactly once and maintains an
// inverted index from identifier token to the files containing it, so each
// symbol lookup touches only candidate files. The resulting edge set is
// identical to rescanning every file per symbol.
type corpusIndex struct {
	files   []string
	content map[string]string
	tokens  map[string][]string
}

// buildCorpusIndex indexes all source entries. Documentation entries join the
// graph but are not searched for references.
func buildCorpusIndex(entries []FileEntry) *corpusIndex {
	idx := &corpusIndex{
		content: make(map[string]string, len(entries)),
		tokens:  make(map[string][]string),
	}

	tokenSets := make(map[string]map[string]struct{})
	for _, entry := range entries {
		if entry.IsDoc {
			continue
		}
		text := string(entry.Content)
		idx.files = append(idx.files, entry.RelPath)
		idx.content[entry.RelPath] = text

		for _, tok := range tokenize(text) {
			if tokenSets[tok] == nil {
				tokenSets[tok] = make(map[string]struct{})
			}
			tokenSets[tok][entry.RelPath] = struct{}{}
		}
	}
	sort.Strings(idx.files)

	for tok, set := range tokenSets {
		files := make([]string, 0, len(set))
		for f := range set {
			files = append(files, f)
		}
		sort.Strings(files)
		idx.tokens[tok] = files
	}
	return idx
}

// lookup returns the sorted files containing the symbol name as a whole word.
// Plain identifiers hit the inverted index; anything else falls back to an
// escaped word-boundary scan over the cached contents.
func (idx *corpusIndex) lookup(name string) []string {
	if name == "" {
		return nil
	}
	if identRe.MatchString(name) {
		return idx.tokens[name]
	}

	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return nil
	}
	var matches []string
	for _, file := range idx.files {
		if re.MatchString(idx.content[file]) {
			matches = append(matches, file)
		}
	}
	return matches
}

// tokenize splits text into maximal word-character runs, matching the
// word-boundary semantics of the fallback scan. A token may start with a
// digit; such tokens never equal a symbol name and simply miss every lookup.
func tokenize(text string) []string {
	var tokens []string
	start := -1
	for i, r := range text {
		if isIdentRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

func isIdentRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// MapReferences scans the corpus for occurrences of every symbol's name and
// records directed file-to-file edges plus the symbol's referencing files.
//
// The content cache and inverted index are fully built before any lookup
// starts; lookups then run in parallel across symbols against the read-only
// index. Every walked file is registered in the graph even when edgeless.
func MapReferences(symbols []*graph.Symbol, entries []FileEntry, g *graph.ConnectionGraph) {
	for _, entry := range entries {
		g.EnsureFile(entry.RelPath)
	}

	idx := buildCorpusIndex(entries)

	workers := runtime.NumCPU()
	if workers > len(symbols) {
		workers = len(symbols)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan *graph.Symbol)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				refs := idx.lookup(sym.Name)
				for _, file := range refs {
					g.AddEdge(sym.File, file)
				}
				sym.Refs = append(sym.Refs, refs...)
			}
		}()
	}
	for _, sym := range symbols {
		jobs <- sym
	}
	close(jobs)
	wg.Wait()
}
