package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFacade_AddAndRemove(t *testing.T) {
	ctx := context.Background()
	f := NewFacade(NewMemoryStore())

	dir, err := f.AddHighLevelNode(ctx, "pkg/auth", feat(t, "authentication package"))
	require.NoError(t, err)

	fn, err := f.AddLowLevelNode(ctx, meta("pkg/auth/login.go", KindFunction, "Login"), feat(t, "logs a user in"), "func Login() {}", false)
	require.NoError(t, err)
	require.Equal(t, "pkg/auth/login.go:function:Login", fn.ID)

	require.NoError(t, f.AddFunctionalEdge(ctx, dir.ID, fn.ID, nil, nil))

	children, err := f.Children(ctx, dir.ID)
	require.NoError(t, err)
	require.Equal(t, []string{fn.ID}, children)

	parent, ok, err := f.Parent(ctx, fn.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, dir.ID, parent)

	removed, err := f.RemoveNode(ctx, fn.ID)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	children, err = f.Children(ctx, dir.ID)
	require.NoError(t, err)
	require.Empty(t, children)
}

func TestFacade_DuplicateInsertRejected(t *testing.T) {
	ctx := context.Background()
	f := NewFacade(NewMemoryStore())
	_, err := f.AddHighLevelNode(ctx, "pkg/auth", feat(t, "authentication package"))
	require.NoError(t, err)
	_, err = f.AddHighLevelNode(ctx, "pkg/auth", feat(t, "authentication package, again"))
	require.Error(t, err)
}

func TestFacade_RemoveMissingNodeErrors(t *testing.T) {
	ctx := context.Background()
	f := NewFacade(NewMemoryStore())
	_, err := f.RemoveNode(ctx, "ghost")
	require.Error(t, err, "the facade never silently ignores a missing ID on mutation")
}

func TestFacade_EdgeRejectsMissingEndpoint(t *testing.T) {
	ctx := context.Background()
	f := NewFacade(NewMemoryStore())
	dir, err := f.AddHighLevelNode(ctx, "pkg", feat(t, "pkg"))
	require.NoError(t, err)
	err = f.AddFunctionalEdge(ctx, dir.ID, "missing", nil, nil)
	require.Error(t, err)
}

func TestFacade_AllHighLevelNodes(t *testing.T) {
	ctx := context.Background()
	f := NewFacade(NewMemoryStore())
	_, err := f.AddHighLevelNode(ctx, "a", feat(t, "a"))
	require.NoError(t, err)
	_, err = f.AddHighLevelNode(ctx, "b", feat(t, "b"))
	require.NoError(t, err)
	_, err = f.AddLowLevelNode(ctx, meta("a/x.go", KindFunction, "X"), feat(t, "x"), "", false)
	require.NoError(t, err)

	nodes, err := f.AllHighLevelNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
}
