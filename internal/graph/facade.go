package graph

import (
	"context"
	"fmt"

	"rpg/internal/ids"
	"rpg/internal/rpgerr"
	"rpg/internal/rpglog"
)

// Facade is the typed wrapper over a Store that every caller in this
// module uses to mutate a graph. It is the only supported construction
// path for nodes: callers never build graph.Node values directly against
// a bare Store outside tests. It enforces invariants at the API boundary
// (duplicate-ID rejection on insert, endpoint existence on edge insert)
// that the underlying Store may also check, but the Facade is where a
// caller is guaranteed to see a GraphInvariantError rather than a silent
// no-op.
type Facade struct {
	store Store
}

// NewFacade wraps store.
func NewFacade(store Store) *Facade {
	return &Facade{store: store}
}

// Store returns the underlying Store, for components (the Evolver, the
// Serializer) that need direct access to bulk operations.
func (f *Facade) Store() Store { return f.store }

// AddHighLevelNode constructs and inserts an architectural node for the
// given directory path.
func (f *Facade) AddHighLevelNode(ctx context.Context, directoryPath string, feature SemanticFeature) (Node, error) {
	id := ids.HighLevel(directoryPath)
	n := NewHighLevelNode(id, feature, directoryPath)
	if err := f.insert(ctx, n); err != nil {
		return Node{}, err
	}
	return n, nil
}

// AddLowLevelNode constructs and inserts an implementation node.
// includeLine controls whether the canonical ID carries the metadata's
// start line; evolution-produced nodes pass false.
func (f *Facade) AddLowLevelNode(ctx context.Context, metadata StructuralMetadata, feature SemanticFeature, sourceText string, includeLine bool) (Node, error) {
	id := ids.LowLevel(metadata.FilePath, string(metadata.Kind), metadata.QualifiedName, metadata.StartLine, includeLine)
	n := NewLowLevelNode(id, feature, metadata, sourceText)
	if err := f.insert(ctx, n); err != nil {
		return Node{}, err
	}
	return n, nil
}

func (f *Facade) insert(ctx context.Context, n Node) error {
	exists, err := f.store.HasNode(ctx, n.ID)
	if err != nil {
		return rpgerr.NewStoreError("HasNode", err)
	}
	if exists {
		return rpgerr.NewGraphInvariantError("AddNode", n.ID, fmt.Errorf("duplicate node ID"))
	}
	if err := f.store.AddNode(ctx, n); err != nil {
		return err
	}
	rpglog.Get(rpglog.CategoryGraph).Debug("facade inserted node %s", n.ID)
	return nil
}

// AddFunctionalEdge inserts a hierarchy edge, rejecting endpoints that
// don't exist.
func (f *Facade) AddFunctionalEdge(ctx context.Context, parent, child string, level, siblingOrder *int) error {
	if err := f.checkEndpoints(ctx, parent, child); err != nil {
		return err
	}
	e := NewFunctionalEdge(parent, child)
	e.Level = level
	e.SiblingOrder = siblingOrder
	return f.store.AddEdge(ctx, e)
}

// AddDependencyEdge inserts a dependency edge, rejecting endpoints that
// don't exist.
func (f *Facade) AddDependencyEdge(ctx context.Context, source, target string, kind DependencyKind, isRuntime *bool, sourceLine int) error {
	if err := f.checkEndpoints(ctx, source, target); err != nil {
		return err
	}
	e := NewDependencyEdge(source, target, kind)
	e.IsRuntime = isRuntime
	e.SourceLine = sourceLine
	return f.store.AddEdge(ctx, e)
}

func (f *Facade) checkEndpoints(ctx context.Context, source, target string) error {
	sOk, err := f.store.HasNode(ctx, source)
	if err != nil {
		return rpgerr.NewStoreError("HasNode", err)
	}
	if !sOk {
		return rpgerr.NewGraphInvariantError("AddEdge", source, fmt.Errorf("source node does not exist"))
	}
	tOk, err := f.store.HasNode(ctx, target)
	if err != nil {
		return rpgerr.NewStoreError("HasNode", err)
	}
	if !tOk {
		return rpgerr.NewGraphInvariantError("AddEdge", target, fmt.Errorf("target node does not exist"))
	}
	return nil
}

// RemoveNode cascades via the store; the Facade never silently ignores a
// missing ID on mutation — callers that want idempotent delete semantics
// (the Evolver's deletion stage) check HasNode themselves first.
func (f *Facade) RemoveNode(ctx context.Context, id string) (removedEdges int, err error) {
	exists, err := f.store.HasNode(ctx, id)
	if err != nil {
		return 0, rpgerr.NewStoreError("HasNode", err)
	}
	if !exists {
		return 0, rpgerr.NewGraphInvariantError("RemoveNode", id, fmt.Errorf("node does not exist"))
	}
	return f.store.RemoveNode(ctx, id)
}

// UpdateNode updates feature/metadata in place without touching incident
// edges.
func (f *Facade) UpdateNode(ctx context.Context, n Node) error {
	return f.store.UpdateNode(ctx, n)
}

// GetNode, Children, Parent, Dependencies, Dependents, TopologicalOrder,
// SearchByFeature, SearchByPath and Stats pass straight through to the
// underlying store; they carry no invariant-enforcement responsibility.

func (f *Facade) GetNode(ctx context.Context, id string) (Node, bool, error) {
	return f.store.GetNode(ctx, id)
}

func (f *Facade) Children(ctx context.Context, id string) ([]string, error) {
	return f.store.GetChildren(ctx, id)
}

func (f *Facade) Parent(ctx context.Context, id string) (string, bool, error) {
	return f.store.GetParent(ctx, id)
}

func (f *Facade) Dependencies(ctx context.Context, id string) ([]Edge, error) {
	return f.store.GetDependencies(ctx, id)
}

func (f *Facade) Dependents(ctx context.Context, id string) ([]Edge, error) {
	return f.store.GetDependents(ctx, id)
}

func (f *Facade) TopologicalOrder(ctx context.Context) ([]string, error) {
	return f.store.GetTopologicalOrder(ctx)
}

func (f *Facade) SearchByFeature(ctx context.Context, query string) ([]SearchHit, error) {
	return f.store.SearchByFeature(ctx, query)
}

func (f *Facade) SearchByPath(ctx context.Context, glob string) ([]string, error) {
	return f.store.SearchByPath(ctx, glob)
}

func (f *Facade) Stats(ctx context.Context) (Stats, error) {
	return f.store.GetStats(ctx)
}

// AllHighLevelNodes enumerates every HighLevelNode in the graph, used by
// the Semantic Router to evaluate candidate parents.
func (f *Facade) AllHighLevelNodes(ctx context.Context) ([]Node, error) {
	return f.store.ListNodes(ctx, NodeHighLevel)
}
