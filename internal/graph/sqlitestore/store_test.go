package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpg/internal/graph"
)

func mustFeature(t *testing.T, desc string) graph.SemanticFeature {
	t.Helper()
	f, err := graph.NewSemanticFeature(desc, nil, "")
	require.NoError(t, err)
	return f
}

func TestOpen_CreatesSchemaAndIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer s.Close()

	stats, err := s.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.HighLevelNodes)
	assert.Equal(t, 0, stats.LowLevelNodes)
}

func TestAddNodeAndEdge_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)

	high := graph.NewHighLevelNode("src:dir", mustFeature(t, "source directory"), "src")
	require.NoError(t, s.AddNode(ctx, high))

	low := graph.NewLowLevelNode("src/x.go:function:Foo", mustFeature(t, "function Foo"), graph.StructuralMetadata{
		FilePath: "src/x.go", Kind: graph.KindFunction, QualifiedName: "Foo",
	}, "")
	require.NoError(t, s.AddNode(ctx, low))

	edge := graph.NewFunctionalEdge(high.ID, low.ID)
	require.NoError(t, s.AddEdge(ctx, edge))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	ok, err := reopened.HasNode(ctx, low.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	parent, hasParent, err := reopened.GetParent(ctx, low.ID)
	require.NoError(t, err)
	require.True(t, hasParent)
	assert.Equal(t, high.ID, parent)
}

func TestRemoveNode_CascadesEdgesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)

	high := graph.NewHighLevelNode("src:dir", mustFeature(t, "source directory"), "src")
	require.NoError(t, s.AddNode(ctx, high))
	low := graph.NewLowLevelNode("src/x.go:function:Foo", mustFeature(t, "function Foo"), graph.StructuralMetadata{
		FilePath: "src/x.go", Kind: graph.KindFunction, QualifiedName: "Foo",
	}, "")
	require.NoError(t, s.AddNode(ctx, low))
	edge := graph.NewFunctionalEdge(high.ID, low.ID)
	require.NoError(t, s.AddEdge(ctx, edge))

	removed, err := s.RemoveNode(ctx, low.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	out, err := reopened.GetOutEdges(ctx, high.ID, "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSearchByFeature_PrefiltersByLikeThenRanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	match := graph.NewLowLevelNode("src/parser.go:function:Parse", mustFeature(t, "parses a commit range into entities"),
		graph.StructuralMetadata{FilePath: "src/parser.go", Kind: graph.KindFunction, QualifiedName: "Parse"}, "")
	other := graph.NewLowLevelNode("src/embed.go:function:Embed", mustFeature(t, "embeds text into a vector"),
		graph.StructuralMetadata{FilePath: "src/embed.go", Kind: graph.KindFunction, QualifiedName: "Embed"}, "")
	require.NoError(t, s.AddNode(ctx, match))
	require.NoError(t, s.AddNode(ctx, other))

	hits, err := s.SearchByFeature(ctx, "parses commit entities")
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, match.ID, hits[0].NodeID)
}

func TestExportImportJSON_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	high := graph.NewHighLevelNode("src:dir", mustFeature(t, "source directory"), "src")
	require.NoError(t, s.AddNode(ctx, high))

	data, err := s.ExportJSON(ctx, graph.ExportConfig{Name: "demo"})
	require.NoError(t, err)

	s2, err := Open(filepath.Join(t.TempDir(), "graph2.db"))
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.ImportJSON(ctx, data))

	ok, err := s2.HasNode(ctx, high.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
