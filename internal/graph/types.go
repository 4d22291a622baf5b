// Package graph implements the Repository Planning Graph's data model, the
// Store interface and its in-memory reference implementation, the typed
// Facade over a Store, and the stable JSON serialization envelope.
package graph

import "fmt"

// Intent is a closed-set classification of a SemanticFeature's purpose.
type Intent string

const (
	IntentBehavior Intent = "behavior"
	IntentData     Intent = "data"
	IntentControl  Intent = "control"
	IntentIO       Intent = "io"
	IntentUtil     Intent = "util"
)

// ValidIntent reports whether i is one of the fixed closed-set values, or
// empty (meaning "unset").
func ValidIntent(i Intent) bool {
	switch i {
	case "", IntentBehavior, IntentData, IntentControl, IntentIO, IntentUtil:
		return true
	}
	return false
}

// SemanticFeature is a value object describing what a graph entity means:
// a non-empty natural-language description plus an ordered, non-empty-word
// keyword list, and an optional intent tag. Immutable after construction.
type SemanticFeature struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Intent      Intent   `json:"intent,omitempty"`
}

// NewSemanticFeature validates and constructs a SemanticFeature.
func NewSemanticFeature(description string, keywords []string, intent Intent) (SemanticFeature, error) {
	if description == "" {
		return SemanticFeature{}, fmt.Errorf("semantic feature: description must be non-empty")
	}
	if !ValidIntent(intent) {
		return SemanticFeature{}, fmt.Errorf("semantic feature: invalid intent %q", intent)
	}
	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k == "" {
			return SemanticFeature{}, fmt.Errorf("semantic feature: keyword must be non-empty")
		}
		kws = append(kws, k)
	}
	return SemanticFeature{Description: description, Keywords: kws, Intent: intent}, nil
}

// EntityKind enumerates the kinds of code entity a StructuralMetadata can
// describe.
type EntityKind string

const (
	KindFile      EntityKind = "file"
	KindClass     EntityKind = "class"
	KindFunction  EntityKind = "function"
	KindMethod    EntityKind = "method"
	KindModule    EntityKind = "module"
)

// StructuralMetadata locates a code entity within the repository.
// StartLine/EndLine are 1-indexed and inclusive; zero means "not set".
type StructuralMetadata struct {
	FilePath      string     `json:"filePath"`
	Kind          EntityKind `json:"kind"`
	QualifiedName string     `json:"qualifiedName"`
	StartLine     int        `json:"startLine,omitempty"`
	EndLine       int        `json:"endLine,omitempty"`
}

// NodeType discriminates the Node tagged union.
type NodeType string

const (
	NodeHighLevel NodeType = "high_level"
	NodeLowLevel  NodeType = "low_level"
)

// Node is a tagged union of HighLevelNode and LowLevelNode. Only the
// fields relevant to Type are meaningful; the discriminant is decoded once
// at the store boundary — callers should not type-switch on Node fields
// themselves.
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"nodeType"`

	// HighLevelNode fields.
	Feature       SemanticFeature `json:"feature"`
	DirectoryPath string          `json:"directoryPath,omitempty"`

	// LowLevelNode fields.
	Metadata   *StructuralMetadata `json:"metadata,omitempty"`
	SourceText string              `json:"sourceText,omitempty"`
}

// NewHighLevelNode constructs an architectural node.
func NewHighLevelNode(id string, feature SemanticFeature, directoryPath string) Node {
	return Node{ID: id, Type: NodeHighLevel, Feature: feature, DirectoryPath: directoryPath}
}

// NewLowLevelNode constructs an implementation node. metadata must be
// non-nil: StructuralMetadata is required for low-level nodes.
func NewLowLevelNode(id string, feature SemanticFeature, metadata StructuralMetadata, sourceText string) Node {
	m := metadata
	return Node{ID: id, Type: NodeLowLevel, Feature: feature, Metadata: &m, SourceText: sourceText}
}

// Validate checks a Node against the structural requirements of its
// variant (LowLevelNode requires Metadata; HighLevelNode must not carry
// one).
func (n Node) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node: empty ID")
	}
	switch n.Type {
	case NodeHighLevel:
		if n.Metadata != nil {
			return fmt.Errorf("node %s: high-level node must not carry StructuralMetadata", n.ID)
		}
	case NodeLowLevel:
		if n.Metadata == nil {
			return fmt.Errorf("node %s: low-level node requires StructuralMetadata", n.ID)
		}
	default:
		return fmt.Errorf("node %s: unknown node type %q", n.ID, n.Type)
	}
	return nil
}

// EdgeType discriminates the Edge tagged union.
type EdgeType string

const (
	EdgeFunctional EdgeType = "functional"
	EdgeDependency EdgeType = "dependency"
)

// DependencyKind enumerates the DependencyEdge's dependencyType.
type DependencyKind string

const (
	DepImport    DependencyKind = "import"
	DepCall      DependencyKind = "call"
	DepInherit   DependencyKind = "inherit"
	DepImplement DependencyKind = "implement"
	DepUse       DependencyKind = "use"
)

// Edge is a tagged union of FunctionalEdge and DependencyEdge.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"edgeType"`

	// FunctionalEdge fields.
	Level        *int `json:"level,omitempty"`
	SiblingOrder *int `json:"siblingOrder,omitempty"`

	// DependencyEdge fields.
	DependencyType DependencyKind `json:"dependencyType,omitempty"`
	IsRuntime      *bool          `json:"isRuntime,omitempty"`
	SourceLine     int            `json:"sourceLine,omitempty"`
}

// NewFunctionalEdge constructs a hierarchy edge parent -> child.
func NewFunctionalEdge(parent, child string) Edge {
	return Edge{Source: parent, Target: child, Type: EdgeFunctional}
}

// NewDependencyEdge constructs a dependency edge source -> target.
func NewDependencyEdge(source, target string, kind DependencyKind) Edge {
	return Edge{Source: source, Target: target, Type: EdgeDependency, DependencyType: kind}
}

// Key identifies an edge for multi-edge and self-loop checks: for
// DependencyEdges this is (source, target, dependencyType); for
// FunctionalEdges the dependencyType component is empty since at most one
// FunctionalEdge may target a given node regardless of source.
func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target, Type: e.Type, DependencyType: e.DependencyType}
}

// EdgeKey is the comparable identity of an edge for duplicate detection.
type EdgeKey struct {
	Source, Target string
	Type           EdgeType
	DependencyType DependencyKind
}

// Validate checks an Edge's own invariants that don't require the full
// graph (self-loop on dependency edges, required dependencyType).
func (e Edge) Validate() error {
	if e.Source == "" || e.Target == "" {
		return fmt.Errorf("edge: source and target must be non-empty")
	}
	switch e.Type {
	case EdgeFunctional:
		if e.Source == e.Target {
			return fmt.Errorf("functional edge %s->%s: a node cannot be its own parent", e.Source, e.Target)
		}
	case EdgeDependency:
		if e.Source == e.Target {
			return fmt.Errorf("dependency edge %s->%s: self-loops are forbidden", e.Source, e.Target)
		}
		switch e.DependencyType {
		case DepImport, DepCall, DepInherit, DepImplement, DepUse:
		default:
			return fmt.Errorf("dependency edge %s->%s: invalid dependencyType %q", e.Source, e.Target, e.DependencyType)
		}
	default:
		return fmt.Errorf("edge %s->%s: unknown edge type %q", e.Source, e.Target, e.Type)
	}
	return nil
}
