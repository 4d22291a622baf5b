// Package semantic produces SemanticFeatures for code entities, either via
// an external Describer or a deterministic heuristic fallback, grounded on
// the identifier-tokenization helpers (internal/campaign/decomposer.go's
// extractTopicsFromGoal, internal/context/tokens.go's chars-per-token
// calibration).
package semantic

import (
	"context"
	"regexp"
	"strings"

	"rpg/internal/graph"
)

// DescribeInput carries everything a Describer (or the heuristic fallback)
// needs to produce a SemanticFeature for one code entity.
type DescribeInput struct {
	Kind           graph.EntityKind
	Name           string
	FilePath       string
	SourceSnippet  string
	ParentQualName string
}

// DescribeOutput is the parsed shape of an external Describer's response.
type DescribeOutput struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Describer is the optional external language-model collaborator. See
// spec §6 "Describer contract".
type Describer interface {
	Describe(ctx context.Context, in DescribeInput) (DescribeOutput, error)
}

// HeuristicDescriber is the deterministic offline fallback: description is
// a fixed template, keywords are camelCase/snake_case-split identifier
// fragments.
type HeuristicDescriber struct{}

func (HeuristicDescriber) Describe(_ context.Context, in DescribeInput) (DescribeOutput, error) {
	desc := string(in.Kind) + " " + in.Name + " in " + in.FilePath
	return DescribeOutput{Description: desc, Keywords: Tokenize(in.Name)}, nil
}

var identSplit = regexp.MustCompile(`[A-Z]+[a-z0-9]*|[a-z0-9]+`)

// Tokenize splits an identifier on camelCase/snake_case/kebab-case
// boundaries, lower-cases each fragment, dedupes, and drops fragments
// shorter than 2 runes. Mirrors decomposer.go's extractTopicsFromGoal
// shape (regex scan + seen-set dedup) applied to identifier fragments
// instead of free text.
func Tokenize(name string) []string {
	normalized := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	matches := identSplit.FindAllString(normalized, -1)

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		lower := strings.ToLower(m)
		if len(lower) < 2 {
			continue
		}
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, lower)
	}
	return out
}

// Extract produces a SemanticFeature for the given entity. If describer is
// non-nil it is tried first; a describer error is a ModelError-class
// failure, so Extract silently falls back to the heuristic rather than
// propagating it (spec §7: Describer/Embedder failure is non-fatal).
func Extract(ctx context.Context, in DescribeInput, describer Describer) (graph.SemanticFeature, error) {
	if describer != nil {
		out, err := describer.Describe(ctx, in)
		if err == nil && out.Description != "" {
			return graph.NewSemanticFeature(out.Description, out.Keywords, "")
		}
	}
	out, _ := HeuristicDescriber{}.Describe(ctx, in)
	return graph.NewSemanticFeature(out.Description, out.Keywords, "")
}

// PromptSnippet caps a source snippet at ~2000 tokens (≈4 chars/token),
// matching spec §6's Describer prompt contract.
func PromptSnippet(source string) string {
	const maxChars = 2000 * 4
	if len(source) <= maxChars {
		return source
	}
	return source[:maxChars]
}
