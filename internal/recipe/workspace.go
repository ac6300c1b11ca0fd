package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace exposes filesystem helpers rooted at a single directory. Recipes
// use it instead of process-relative paths, so no step ever has to change
// the process working directory.
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at root.
func NewWorkspace(root string) *Workspace {
	return &Workspace{root: root}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// resolve joins rel under the root, rejecting paths that escape it.
func (w *Workspace) resolve(rel string) (string, error) {
	path := filepath.Join(w.root, filepath.FromSlash(rel))
	if path != w.root && !strings.HasPrefix(path, filepath.Clean(w.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes workspace", rel)
	}
	return path, nil
}

// Write writes contents to the file at rel, creating parent directories as
// needed.
func (w *Workspace) Write(rel, contents string) error {
	path, err := w.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", rel, err)
	}
	return os.WriteFile(path, []byte(contents), 0o644)
}

// Mkdir creates the directory at rel, including parents.
func (w *Workspace) Mkdir(rel string) error {
	path, err := w.resolve(rel)
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0o755)
}

// Remove deletes the file or directory tree at rel. Read-only entries (git
// object files) are made writable first so removal succeeds on every
// platform.
func (w *Workspace) Remove(rel string) error {
	path, err := w.resolve(rel)
	if err != nil {
		return err
	}
	if err := makeWritable(path); err != nil {
		return err
	}
	return os.RemoveAll(path)
}

func makeWritable(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.Chmod(path, info.Mode().Perm()|0o200); err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := makeWritable(filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
