package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeCompiler drops an executable placeholder the cache can stat.
func writeFakeCompiler(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

func TestDefaultsCache_SetAndGet(t *testing.T) {
	tempDir := t.TempDir()
	cache, err := NewDefaultsCache(filepath.Join(tempDir, "cache"))
	require.NoError(t, err)

	compiler := writeFakeCompiler(t, tempDir, "g++")
	paths := []string{"/usr/include/c++/11", "/usr/include"}

	_, found := cache.Get(compiler)
	assert.False(t, found)

	require.NoError(t, cache.Set(compiler, paths))

	cached, found := cache.Get(compiler)
	assert.True(t, found)
	assert.Equal(t, paths, cached)
}

func TestDefaultsCache_InvalidatedWhenCompilerChanges(t *testing.T) {
	tempDir := t.TempDir()
	cache, err := NewDefaultsCache(filepath.Join(tempDir, "cache"))
	require.NoError(t, err)

	compiler := writeFakeCompiler(t, tempDir, "g++")
	require.NoError(t, cache.Set(compiler, []string{"/usr/include"}))

	// Rewrite the compiler binary with different content and timestamp.
	require.NoError(t, os.WriteFile(compiler, []byte("#!/bin/sh\nexec cc\n"), 0755))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(compiler, future, future))

	_, found := cache.Get(compiler)
	assert.False(t, found, "entry must be dropped after a toolchain change")
}

func TestDefaultsCache_MissingCompiler(t *testing.T) {
	tempDir := t.TempDir()
	cache, err := NewDefaultsCache(filepath.Join(tempDir, "cache"))
	require.NoError(t, err)

	err = cache.Set(filepath.Join(tempDir, "no-such-compiler"), []string{"/usr/include"})
	assert.Error(t, err)
}

func TestDefaultsCache_ClearAndStats(t *testing.T) {
	tempDir := t.TempDir()
	cache, err := NewDefaultsCache(filepath.Join(tempDir, "cache"))
	require.NoError(t, err)

	compiler := writeFakeCompiler(t, tempDir, "clang++")
	require.NoError(t, cache.Set(compiler, []string{"/usr/include"}))

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats["cache_files"])
	assert.Greater(t, stats["total_size"], int64(0))

	require.NoError(t, cache.Clear())

	stats, err = cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats["cache_files"])
}

func TestResolver_UsesDiskCache(t *testing.T) {
	tempDir := t.TempDir()
	cache, err := NewDefaultsCache(filepath.Join(tempDir, "cache"))
	require.NoError(t, err)

	compiler := writeFakeCompiler(t, tempDir, "g++")

	runner := &fakeRunner{stderr: gccVerboseOutput}
	resolver := NewResolver(runner, cache)
	first := resolver.ResolveDefaults(context.Background(), compiler, nil)
	require.NotEmpty(t, first)
	require.Len(t, runner.calls, 1)

	// A fresh resolver (new process) finds the persisted entry and never
	// invokes the compiler.
	runner2 := &fakeRunner{stderr: gccVerboseOutput}
	resolver2 := NewResolver(runner2, cache)
	second := resolver2.ResolveDefaults(context.Background(), compiler, nil)

	assert.Equal(t, first, second)
	assert.Empty(t, runner2.calls)
}
