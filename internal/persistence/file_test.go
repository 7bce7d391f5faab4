package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
)

func TestFile_LoadMissing(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nested", "memory.jsonl"), nil)
	g, report, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, apptype.EmptyGraph(), g)
	assert.Zero(t, report.Lines)
}

func TestFile_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "memory.jsonl")
	f := NewFile(path, nil)
	ctx := context.Background()

	require.NoError(t, f.Save(ctx, sampleGraph()))
	g, _, err := f.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleGraph(), g)

	// Overwrite with a smaller graph; no stale lines or temp files remain.
	require.NoError(t, f.Save(ctx, apptype.Graph{Entities: []apptype.Entity{{Name: "Only", EntityType: "t"}}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"entity","name":"Only","entityType":"t","observations":[]}`+"\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFile_SaveError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	f := NewFile(filepath.Join(blocker, "memory.jsonl"), nil)
	err := f.Save(context.Background(), sampleGraph())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceWrite)

	var we *PersistenceWriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, "create directory for", we.Op)
}

func TestFile_LoadError(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be read as a graph file.
	f := NewFile(dir, nil)
	_, _, err := f.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceRead)
}
