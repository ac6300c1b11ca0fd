package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsStat(ws *Workspace, rel string) (os.FileInfo, error) {
	return os.Stat(filepath.Join(ws.Root(), filepath.FromSlash(rel)))
}

func TestWorkspaceWriteCreatesParents(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	require.NoError(t, ws.Write("a/b/c/d.txt", "a/b/c/d"))

	data, err := os.ReadFile(filepath.Join(ws.Root(), "a", "b", "c", "d.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a/b/c/d", string(data))
}

func TestWorkspaceMkdir(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	require.NoError(t, ws.Mkdir("h"))
	info, err := wsStat(ws, "h")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWorkspaceRemoveFileAndTree(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	require.NoError(t, ws.Write("x.txt", "x"))
	require.NoError(t, ws.Write("a/b/c.txt", "a/b/c"))

	require.NoError(t, ws.Remove("x.txt"))
	_, err := wsStat(ws, "x.txt")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, ws.Remove("a"))
	_, err = wsStat(ws, "a")
	assert.True(t, os.IsNotExist(err))
}

func TestWorkspaceRemoveMissingPathIsNoop(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	assert.NoError(t, ws.Remove("never/existed"))
}

func TestWorkspaceRemoveReadonlyEntries(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	require.NoError(t, ws.Write("objects/ab/cdef", "blob"))
	require.NoError(t, os.Chmod(filepath.Join(ws.Root(), "objects", "ab", "cdef"), 0o444))
	require.NoError(t, os.Chmod(filepath.Join(ws.Root(), "objects", "ab"), 0o555))

	require.NoError(t, ws.Remove("objects"))
	_, err := wsStat(ws, "objects")
	assert.True(t, os.IsNotExist(err))
}

func TestWorkspaceRejectsEscapingPaths(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	assert.Error(t, ws.Write("../outside.txt", "nope"))
	assert.Error(t, ws.Remove(".."))
	assert.Error(t, ws.Mkdir("../../elsewhere"))
}
