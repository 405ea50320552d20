package scan

import (
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/stratalab/strata/internal/graph"
)

// declRule matches a top-level declaration at the start of a line and maps it
// to a symbol kind. Submatch 1 is the declared identifier.
type declRule struct {
	re   *regexp.Regexp
	kind graph.SymbolKind
}

// Declaration patterns per language. Patterns are anchored at column zero so
// indented (nested) declarations are ignored.
var declRules = map[string][]declRule{
	"python": {
		{regexp.MustCompile(`^class\s+([A-Za-z_]\w*)`), graph.KindClass},
		{regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)`), graph.KindFunction},
	},
	"go": {
		{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+(?:struct|interface)\b`), graph.KindClass},
		{regexp.MustCompile(`^func\s+([A-Za-z_]\w*)\s*\(`), graph.KindFunction},
	},
	"typescript": {
		{regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$]\w*)`), graph.KindClass},
		{regexp.MustCompile(`^(?:export\s+)?interface\s+([A-Za-z_$]\w*)`), graph.KindClass},
		{regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s+([A-Za-z_$]\w*)`), graph.KindFunction},
	},
	"javascript": {
		{regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$]\w*)`), graph.KindClass},
		{regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s+([A-Za-z_$]\w*)`), graph.KindFunction},
	},
}

// ExtractSymbols scans each corpus file line by line for top-level
// declarations. Files are processed on a worker pool; results are merged in
// entry order so output is deterministic. Documentation entries are skipped.
func ExtractSymbols(entries []FileEntry) []*graph.Symbol {
	perFile := make([][]*graph.Symbol, len(entries))

	workers := runtime.NumCPU()
	if workers > len(entries) {
		workers = len(entries)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				perFile[i] = extractFile(entries[i])
			}
		}()
	}
	for i := range entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var symbols []*graph.Symbol
	for _, syms := range perFile {
		symbols = append(symbols, syms...)
	}
	return symbols
}

// extractFile extracts all top-level declarations from a single entry.
// Multiple declarations with the same name yield multiple records.
func extractFile(entry FileEntry) []*graph.Symbol {
	if entry.IsDoc {
		return nil
	}
	rules, ok := declRules[entry.Language]
	if !ok {
		return nil
	}

	var symbols []*graph.Symbol
	for lineNum, line := range strings.Split(string(entry.Content), "\n") {
		for _, rule := range rules {
			m := rule.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			symbols = append(symbols, &graph.Symbol{
				ID:   graph.SymbolID(rule.kind, entry.RelPath, m[1]),
				Name: m[1],
				Kind: rule.kind,
				File: entry.RelPath,
				Line: lineNum + 1,
			})
			break
		}
	}
	return symbols
}
