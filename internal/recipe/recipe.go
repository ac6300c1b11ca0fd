// Package recipe defines the scripted scenarios the snapshot generator runs
// against the tool under test and the reference tool.
//
// A recipe is a typed record of three functions. The registry validates each
// record once at registration time; there is no dynamic loading or capability
// probing at run time.
package recipe

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// CommandFunc invokes the tool under test or the reference tool with the
// given argument string, e.g. `commit -m "initial commit"`. The working
// directory is fixed by whoever constructed the function.
type CommandFunc func(args string) error

// Recipe is a named scenario. Setup builds the "before" state using the
// workspace and either tool; RunTool and RunReference each run the command
// sequence whose filesystem effects the snapshot captures.
type Recipe struct {
	Name         string
	Setup        func(ws *Workspace, tool, ref CommandFunc) error
	RunTool      func(tool CommandFunc) error
	RunReference func(ref CommandFunc) error
}

// valid reports whether the record is complete.
func (r Recipe) valid() bool {
	return r.Name != "" && r.Setup != nil && r.RunTool != nil && r.RunReference != nil
}

// Registry holds recipes by name.
type Registry struct {
	logger  *slog.Logger
	recipes map[string]Recipe
}

// NewRegistry creates an empty registry. Invalid registrations are logged to
// logger and skipped.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{logger: logger, recipes: make(map[string]Recipe)}
}

// Register adds r to the registry. Incomplete records and duplicate names
// are rejected with a warning; registration problems are never fatal.
func (reg *Registry) Register(r Recipe) {
	if !r.valid() {
		reg.logger.Warn("invalid recipe skipped", "name", r.Name)
		return
	}
	if _, exists := reg.recipes[r.Name]; exists {
		reg.logger.Warn("duplicate recipe skipped", "name", r.Name)
		return
	}
	reg.recipes[r.Name] = r
}

// Get returns the recipe registered under name.
func (reg *Registry) Get(name string) (Recipe, error) {
	r, ok := reg.recipes[name]
	if !ok {
		return Recipe{}, fmt.Errorf("unknown recipe %q", name)
	}
	return r, nil
}

// Names returns all registered recipe names in sorted order.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.recipes))
	for name := range reg.recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered recipes.
func (reg *Registry) Len() int {
	return len(reg.recipes)
}
