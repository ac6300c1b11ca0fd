package recipe

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopRecipe(name string) Recipe {
	return Recipe{
		Name:         name,
		Setup:        func(ws *Workspace, tool, ref CommandFunc) error { return nil },
		RunTool:      func(tool CommandFunc) error { return nil },
		RunReference: func(ref CommandFunc) error { return nil },
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(noopRecipe("commit"))

	r, err := reg.Get("commit")
	require.NoError(t, err)
	assert.Equal(t, "commit", r.Name)

	_, err = reg.Get("missing")
	assert.Error(t, err)
}

func TestRegisterRejectsIncompleteRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	reg := NewRegistry(logger)

	incomplete := noopRecipe("broken")
	incomplete.RunReference = nil
	reg.Register(incomplete)

	assert.Equal(t, 0, reg.Len())
	assert.Contains(t, buf.String(), "invalid recipe")

	unnamed := noopRecipe("")
	reg.Register(unnamed)
	assert.Equal(t, 0, reg.Len())
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	reg := NewRegistry(logger)

	reg.Register(noopRecipe("commit"))
	reg.Register(noopRecipe("commit"))

	assert.Equal(t, 1, reg.Len())
	assert.Contains(t, buf.String(), "duplicate recipe")
}

func TestNamesSorted(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(noopRecipe("rm_file"))
	reg.Register(noopRecipe("add_all"))
	reg.Register(noopRecipe("commit"))

	assert.Equal(t, []string{"add_all", "commit", "rm_file"}, reg.Names())
}

func TestDefaultRegistryContainsAllBuiltins(t *testing.T) {
	reg := DefaultRegistry(nil)
	assert.Equal(t, len(Builtins()), reg.Len())

	for _, name := range []string{
		"add_all", "add_directory", "add_directory_removed", "add_file",
		"add_file_removed", "add_files", "commit", "commit_to_pristine_repo",
		"create_annotated_tag", "create_branch",
		"create_branch_with_starting_point", "delete_fails_with_current_branch",
		"delete_tag", "hash_blob", "rm_directory", "rm_file",
		"rm_rejects_staged_changes", "rm_rejects_unstaged_changes",
		"switch_fails_with_staged_changes", "switch_to_existing_branch",
		"switch_to_headless",
	} {
		_, err := reg.Get(name)
		assert.NoError(t, err, "missing built-in recipe %s", name)
	}
}

// recordingCmd captures the argument strings a recipe passes to a tool.
type recordingCmd struct {
	calls []string
}

func (r *recordingCmd) fn() CommandFunc {
	return func(args string) error {
		r.calls = append(r.calls, args)
		return nil
	}
}

func TestCommitRecipeScript(t *testing.T) {
	reg := DefaultRegistry(nil)
	r, err := reg.Get("commit")
	require.NoError(t, err)

	ws := NewWorkspace(t.TempDir())
	tool := &recordingCmd{}
	ref := &recordingCmd{}

	require.NoError(t, r.Setup(ws, tool.fn(), ref.fn()))
	assert.Equal(t, []string{"init", "add .", `commit -m "initial commit"`, "add ."}, tool.calls)
	assert.Equal(t, []string{`config user.name "User Name"`, "config user.email user@example.com"}, ref.calls)

	// Setup wrote the starting tree.
	for _, rel := range []string{"x.txt", "a/b/c/d.txt", "y/z.txt", "a/b/c.txt", "a/b/d.txt"} {
		_, err := wsStat(ws, rel)
		assert.NoError(t, err, "missing %s", rel)
	}

	tool.calls = nil
	ref.calls = nil
	require.NoError(t, r.RunTool(tool.fn()))
	require.NoError(t, r.RunReference(ref.fn()))
	assert.Equal(t, []string{`commit -m "second commit"`}, tool.calls)
	assert.Equal(t, []string{"config core.looseCompression 6", `commit -m "second commit"`}, ref.calls)
}

func TestAddFileRemovedRecipeScript(t *testing.T) {
	reg := DefaultRegistry(nil)
	r, err := reg.Get("add_file_removed")
	require.NoError(t, err)

	ws := NewWorkspace(t.TempDir())
	tool := &recordingCmd{}
	ref := &recordingCmd{}

	require.NoError(t, r.Setup(ws, tool.fn(), ref.fn()))

	// The three files are removed after staging; re-adding x.txt is the
	// divergence the snapshot exercises.
	for _, rel := range []string{"x.txt", "a/b/c.txt", "a/b/d.txt"} {
		_, err := wsStat(ws, rel)
		assert.Error(t, err, "%s should have been removed", rel)
	}
	for _, rel := range []string{"a/b.txt", "a/c.txt", "a/b/c/d.txt", "y/x.txt", "y/z.txt"} {
		_, err := wsStat(ws, rel)
		assert.NoError(t, err, "missing %s", rel)
	}

	tool.calls = nil
	require.NoError(t, r.RunTool(tool.fn()))
	assert.Equal(t, []string{"add x.txt"}, tool.calls)
}

func TestSetupStopsOnFirstCommandFailure(t *testing.T) {
	reg := DefaultRegistry(nil)
	r, err := reg.Get("commit")
	require.NoError(t, err)

	ws := NewWorkspace(t.TempDir())
	var calls int
	failing := func(args string) error {
		calls++
		return assert.AnError
	}
	ref := &recordingCmd{}

	err = r.Setup(ws, failing, ref.fn())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}
