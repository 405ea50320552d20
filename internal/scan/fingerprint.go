package scan

import (
	"strings"

	"github.com/stratalab/strata/internal/graph"
)

// PatternRule maps a trailing-name suffix to a structural-pattern label.
type PatternRule struct {
	Suffix string
	Label  string
}

// FingerprintConfig holds the vocabulary lexicon and structural-pattern rules
// used to fingerprint symbols. It is immutable configuration passed in at
// construction so tests can substitute custom vocabularies.
type FingerprintConfig struct {
	Lexicon      []string
	PatternRules []PatternRule
}

// DefaultFingerprintConfig returns the stock lexicon and suffix rules.
func DefaultFingerprintConfig() FingerprintConfig {
	return FingerprintConfig{
		Lexicon: []string{
			"user", "auth", "payment", "repo", "controller",
			"service", "graph", "config", "cache", "token",
		},
		PatternRules: []PatternRule{
			{Suffix: "Controller", Label: "Controller"},
			{Suffix: "Repository", Label: "Repository"},
			{Suffix: "Factory", Label: "Factory"},
			{Suffix: "Observer", Label: "Observer"},
			{Suffix: "Service", Label: "Service"},
			{Suffix: "Manager", Label: "Manager"},
			{Suffix: "Handler", Label: "Handler"},
			{Suffix: "Builder", Label: "Builder"},
		},
	}
}

// FingerprintBuilder derives tags and pattern labels from symbol names.
// Both operations are pure functions of the name; no file content is read.
type FingerprintBuilder struct {
	config FingerprintConfig
}

// NewFingerprintBuilder creates a builder with the given configuration.
func NewFingerprintBuilder(config FingerprintConfig) *FingerprintBuilder {
	return &FingerprintBuilder{config: config}
}

// Fingerprint classifies a single symbol name.
func (b *FingerprintBuilder) Fingerprint(name string) *graph.Fingerprint {
	fp := &graph.Fingerprint{
		Tags:     []string{},
		Patterns: []string{},
	}

	lower := strings.ToLower(name)
	for _, word := range b.config.Lexicon {
		if strings.Contains(lower, word) {
			fp.Tags = append(fp.Tags, word)
		}
	}

	for _, rule := range b.config.PatternRules {
		if strings.HasSuffix(name, rule.Suffix) {
			fp.Patterns = append(fp.Patterns, rule.Label)
		}
	}

	return fp
}

// BuildAll fingerprints every symbol, keyed by symbol ID. Duplicate
// declarations share an ID and a fingerprint, both being pure name derivations.
func (b *FingerprintBuilder) BuildAll(symbols []*graph.Symbol) map[string]*graph.Fingerprint {
	prints := make(map[string]*graph.Fingerprint, len(symbols))
	for _, sym := range symbols {
		if _, ok := prints[sym.ID]; ok {
			continue
		}
		prints[sym.ID] = b.Fingerprint(sym.Name)
	}
	return prints
}
