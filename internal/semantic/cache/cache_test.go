package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpg/internal/graph"
)

func TestKey_IsStableAndSensitiveToEachInput(t *testing.T) {
	k1 := Key(graph.KindFunction, "foo", "a.go", "func foo() {}")
	k2 := Key(graph.KindFunction, "foo", "a.go", "func foo() {}")
	assert.Equal(t, k1, k2)

	k3 := Key(graph.KindFunction, "bar", "a.go", "func foo() {}")
	assert.NotEqual(t, k1, k3)

	k4 := Key(graph.KindFunction, "foo", "b.go", "func foo() {}")
	assert.NotEqual(t, k1, k4)

	k5 := Key(graph.KindFunction, "foo", "a.go", "func foo() { return }")
	assert.NotEqual(t, k1, k5)
}

func TestLoad_MissingFileYieldsEmptyCache(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	require.NoError(t, err)
	_, ok := c.Get("anything")
	assert.False(t, ok)
}

func TestPutGet_RoundTripsInMemory(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	require.NoError(t, err)

	feature, err := graph.NewSemanticFeature("parses config", []string{"parse", "config"}, "")
	require.NoError(t, err)

	key := Key(graph.KindFunction, "parseConfig", "config.go", "func parseConfig() {}")
	c.Put(key, feature)

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, feature, got)
}

func TestFlushAndReload_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	require.NoError(t, err)

	feature, err := graph.NewSemanticFeature("parses config", []string{"parse", "config"}, "")
	require.NoError(t, err)
	key := Key(graph.KindFunction, "parseConfig", "config.go", "func parseConfig() {}")
	c.Put(key, feature)
	require.NoError(t, c.Flush())

	path := filepath.Join(dir, ".rpg", "cache", "semantic.json")
	_, statErr := filepath.Glob(path)
	require.NoError(t, statErr)

	reloaded, err := Load(dir)
	require.NoError(t, err)
	got, ok := reloaded.Get(key)
	require.True(t, ok)
	assert.Equal(t, feature, got)
}

func TestFlush_NoopWhenNotDirty(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, c.Flush())

	entries, err := filepath.Glob(filepath.Join(dir, ".rpg", "cache", "*"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
