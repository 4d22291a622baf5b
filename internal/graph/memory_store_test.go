package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func feat(t *testing.T, desc string, kws ...string) SemanticFeature {
	t.Helper()
	f, err := NewSemanticFeature(desc, kws, "")
	require.NoError(t, err)
	return f
}

func meta(path string, kind EntityKind, qname string) StructuralMetadata {
	return StructuralMetadata{FilePath: path, Kind: kind, QualifiedName: qname, StartLine: 1, EndLine: 2}
}

func TestMemoryStore_AddNodeRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	n := NewHighLevelNode("src:dir", feat(t, "source dir"), "src")
	require.NoError(t, s.AddNode(ctx, n))
	err := s.AddNode(ctx, n)
	require.Error(t, err)
}

func TestMemoryStore_AddEdgeRejectsMissingEndpoints(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	err := s.AddEdge(ctx, NewFunctionalEdge("a", "b"))
	require.Error(t, err)
}

func TestMemoryStore_SingleParent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("p1:dir", feat(t, "p1"), "p1")))
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("p2:dir", feat(t, "p2"), "p2")))
	require.NoError(t, s.AddNode(ctx, NewLowLevelNode("x:function:foo", feat(t, "foo"), meta("x.go", KindFunction, "foo"), "")))

	require.NoError(t, s.AddEdge(ctx, NewFunctionalEdge("p1:dir", "x:function:foo")))
	err := s.AddEdge(ctx, NewFunctionalEdge("p2:dir", "x:function:foo"))
	require.Error(t, err)
}

func TestMemoryStore_AcyclicHierarchy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("a:dir", feat(t, "a"), "a")))
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("b:dir", feat(t, "b"), "b")))
	require.NoError(t, s.AddEdge(ctx, NewFunctionalEdge("a:dir", "b:dir")))
	err := s.AddEdge(ctx, NewFunctionalEdge("b:dir", "a:dir"))
	require.Error(t, err, "would create a cycle in the functional subgraph")
}

func TestMemoryStore_DependencyNoSelfLoopNoMultiEdge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("a:dir", feat(t, "a"), "a")))
	require.Error(t, s.AddEdge(ctx, NewDependencyEdge("a:dir", "a:dir", DepImport)))

	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("b:dir", feat(t, "b"), "b")))
	require.NoError(t, s.AddEdge(ctx, NewDependencyEdge("a:dir", "b:dir", DepImport)))
	err := s.AddEdge(ctx, NewDependencyEdge("a:dir", "b:dir", DepImport))
	require.Error(t, err)
	// Different dependencyType between the same endpoints is allowed.
	require.NoError(t, s.AddEdge(ctx, NewDependencyEdge("a:dir", "b:dir", DepCall)))
}

func TestMemoryStore_CascadeOnRemove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("a:dir", feat(t, "a"), "a")))
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("b:dir", feat(t, "b"), "b")))
	require.NoError(t, s.AddEdge(ctx, NewFunctionalEdge("a:dir", "b:dir")))
	require.NoError(t, s.AddEdge(ctx, NewDependencyEdge("a:dir", "b:dir", DepImport)))

	removed, err := s.RemoveNode(ctx, "a:dir")
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	outB, _ := s.GetInEdges(ctx, "b:dir", "")
	require.Empty(t, outB)
}

func TestMemoryStore_RemoveNodeIdempotentAtStoreLevel(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	removed, err := s.RemoveNode(ctx, "ghost")
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestMemoryStore_TopologicalOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddNode(ctx, NewHighLevelNode(id+":dir", feat(t, id), id)))
	}
	// a depends on b, b depends on c: order should have c before b before a.
	require.NoError(t, s.AddEdge(ctx, NewDependencyEdge("a:dir", "b:dir", DepImport)))
	require.NoError(t, s.AddEdge(ctx, NewDependencyEdge("b:dir", "c:dir", DepImport)))

	order, err := s.GetTopologicalOrder(ctx)
	require.NoError(t, err)

	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	require.Less(t, pos["c:dir"], pos["b:dir"])
	require.Less(t, pos["b:dir"], pos["a:dir"])
}

func TestMemoryStore_TopologicalOrderToleratesCycles(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"a", "b"} {
		require.NoError(t, s.AddNode(ctx, NewHighLevelNode(id+":dir", feat(t, id), id)))
	}
	require.NoError(t, s.AddEdge(ctx, NewDependencyEdge("a:dir", "b:dir", DepImport)))
	require.NoError(t, s.AddEdge(ctx, NewDependencyEdge("b:dir", "a:dir", DepImport)))

	order, err := s.GetTopologicalOrder(ctx)
	require.NoError(t, err)
	require.Len(t, order, 2)
}

func TestMemoryStore_SearchByFeature(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("auth:dir", feat(t, "authentication and session handling", "auth", "session"), "auth")))
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("db:dir", feat(t, "database migrations", "db", "migration"), "db")))

	hits, err := s.SearchByFeature(ctx, "session auth")
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "auth:dir", hits[0].NodeID)
}

func TestMemoryStore_SearchByPath(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddNode(ctx, NewLowLevelNode("src/a.go:function:Foo", feat(t, "Foo"), meta("src/a.go", KindFunction, "Foo"), "")))
	require.NoError(t, s.AddNode(ctx, NewLowLevelNode("lib/b.go:function:Bar", feat(t, "Bar"), meta("lib/b.go", KindFunction, "Bar"), "")))

	ids, err := s.SearchByPath(ctx, "src/*")
	require.NoError(t, err)
	require.Equal(t, []string{"src/a.go:function:Foo"}, ids)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("a:dir", feat(t, "a"), "a")))
	require.NoError(t, s.AddNode(ctx, NewLowLevelNode("a/x.go:function:F", feat(t, "F"), meta("a/x.go", KindFunction, "F"), "body")))
	require.NoError(t, s.AddEdge(ctx, NewFunctionalEdge("a:dir", "a/x.go:function:F")))

	data, err := s.ExportJSON(ctx, ExportConfig{Name: "test"})
	require.NoError(t, err)

	s2 := NewMemoryStore()
	require.NoError(t, s2.ImportJSON(ctx, data))

	st1, _ := s.GetStats(ctx)
	st2, _ := s2.GetStats(ctx)
	require.Equal(t, st1, st2)

	data2, err := s2.ExportJSON(ctx, ExportConfig{Name: "test"})
	require.NoError(t, err)
	require.JSONEq(t, string(data), string(data2))
}
