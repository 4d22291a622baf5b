package graph

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTripsNodesAndEdges(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	high := NewHighLevelNode("src:dir", feat(t, "source directory"), "src")
	low := NewLowLevelNode("src/x.go:function:Foo", feat(t, "function Foo"), meta("src/x.go", KindFunction, "Foo"), "func Foo() {}")
	require.NoError(t, s.AddNode(ctx, high))
	require.NoError(t, s.AddNode(ctx, low))
	require.NoError(t, s.AddEdge(ctx, NewFunctionalEdge(high.ID, low.ID)))

	data, err := s.ExportJSON(ctx, ExportConfig{Name: "demo", RootPath: "/repo", Description: "a repo"})
	require.NoError(t, err)

	cfg, nodes, edges, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, ExportConfig{Name: "demo", RootPath: "/repo", Description: "a repo"}, cfg)

	wantNodes := []Node{high, low}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	sort.Slice(wantNodes, func(i, j int) bool { return wantNodes[i].ID < wantNodes[j].ID })
	if diff := cmp.Diff(wantNodes, nodes); diff != "" {
		t.Fatalf("decoded nodes mismatch (-want +got):\n%s", diff)
	}

	wantEdges := []Edge{NewFunctionalEdge(high.ID, low.ID)}
	if diff := cmp.Diff(wantEdges, edges); diff != "" {
		t.Fatalf("decoded edges mismatch (-want +got):\n%s", diff)
	}
}

func TestImportJSON_ReplacesExistingContent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.AddNode(ctx, NewHighLevelNode("stale:dir", feat(t, "stale"), "stale")))

	fresh := NewMemoryStore()
	require.NoError(t, fresh.AddNode(ctx, NewHighLevelNode("src:dir", feat(t, "source"), "src")))
	data, err := fresh.ExportJSON(ctx, ExportConfig{Name: "fresh"})
	require.NoError(t, err)

	require.NoError(t, s.ImportJSON(ctx, data))

	has, err := s.HasNode(ctx, "stale:dir")
	require.NoError(t, err)
	require.False(t, has, "import must clear prior content")

	has, err = s.HasNode(ctx, "src:dir")
	require.NoError(t, err)
	require.True(t, has)
}
