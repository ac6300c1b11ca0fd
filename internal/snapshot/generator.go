// Package snapshot drives recipes against the tool under test and the
// reference tool, compares the two resulting trees, and persists accepted
// before/after archive pairs.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/snapgen/snapgen/internal/archive"
	"github.com/snapgen/snapgen/internal/config"
	"github.com/snapgen/snapgen/internal/ledger"
	"github.com/snapgen/snapgen/internal/recipe"
	"github.com/snapgen/snapgen/internal/runner"
)

// Generator orchestrates snapshot generation. All collaborators are
// injectable so the whole cycle runs in tests with a fake runner and an
// auto-confirmer.
type Generator struct {
	Config   config.Config
	Registry *recipe.Registry
	Runner   runner.Runner
	Archiver *archive.Archiver
	Confirm  Confirmer
	Ledger   *ledger.Ledger // optional; nil disables run recording
	Logger   *slog.Logger
	Out      io.Writer
}

// New creates a generator with sane fallbacks for the optional fields.
func New(cfg config.Config, reg *recipe.Registry, run runner.Runner, arch *archive.Archiver, confirm Confirmer, logger *slog.Logger, out io.Writer) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if out == nil {
		out = os.Stdout
	}
	if confirm == nil {
		confirm = NewTerminalConfirmer(os.Stdin, out)
	}
	return &Generator{
		Config:   cfg,
		Registry: reg,
		Runner:   run,
		Archiver: arch,
		Confirm:  confirm,
		Logger:   logger,
		Out:      out,
	}
}

// GenerateAll generates a snapshot for every registered recipe. A failure in
// one recipe is reported but does not stop the batch.
func (g *Generator) GenerateAll(ctx context.Context, force bool) error {
	g.Logger.Info("generating all snapshots")

	var errs []error
	for _, name := range g.Registry.Names() {
		if err := g.Generate(ctx, name, force); err != nil {
			g.Logger.Error("snapshot generation failed", "recipe", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// GenerateNamed generates snapshots for the given recipe names in order,
// with the same keep-going behavior as GenerateAll.
func (g *Generator) GenerateNamed(ctx context.Context, names []string, force bool) error {
	var errs []error
	for _, name := range names {
		if err := g.Generate(ctx, name, force); err != nil {
			g.Logger.Error("snapshot generation failed", "recipe", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// paths bundles every filesystem location one recipe's generation touches.
type paths struct {
	beforeDir     string
	beforeArchive string
	afterDir      string
	afterArchive  string
	refAfterDir   string
	toolListing   string
	refListing    string
}

func (g *Generator) pathsFor(name string) paths {
	snapDir := g.Config.SnapshotsDir
	scratch := g.Config.ScratchDir
	return paths{
		beforeDir:     filepath.Join(snapDir, "before_"+name),
		beforeArchive: filepath.Join(snapDir, "before_"+name+archive.Ext),
		afterDir:      filepath.Join(snapDir, "after_"+name),
		afterArchive:  filepath.Join(snapDir, "after_"+name+archive.Ext),
		refAfterDir:   filepath.Join(scratch, "ref_after_"+name),
		toolListing:   filepath.Join(scratch, "tool_ls-files.txt"),
		refListing:    filepath.Join(scratch, "ref_ls-files.txt"),
	}
}

// Generate runs the full cycle for one recipe: build the before state, clone
// it, run both tools, diff the results behind confirmation prompts, and on
// acceptance persist the archive pair.
func (g *Generator) Generate(ctx context.Context, name string, force bool) (err error) {
	started := time.Now()
	outcome := ledger.OutcomeFailed
	detail := ""
	defer func() {
		if err != nil {
			detail = err.Error()
		}
		g.record(ctx, name, outcome, detail, started)
	}()

	rec, getErr := g.Registry.Get(name)
	if getErr != nil {
		// Invalid recipes are never fatal to a batch.
		g.Logger.Warn("skipping invalid recipe", "recipe", name, "error", getErr)
		outcome = ledger.OutcomeSkipped
		detail = getErr.Error()
		return nil
	}

	p := g.pathsFor(name)

	if !force && fileExists(p.beforeArchive) && fileExists(p.afterArchive) {
		g.Logger.Info("skipping snapshot", "recipe", name, "reason", "archives exist")
		outcome = ledger.OutcomeSkipped
		detail = "archives exist"
		return nil
	}

	g.banner("=", " "+name+" ")
	g.Logger.Info("generating snapshot", "recipe", name)

	// Build the before state.
	removed, err := g.removePath(p.beforeDir, force)
	if err != nil {
		return err
	}
	if !removed {
		outcome = ledger.OutcomeRejected
		detail = "declined to remove " + p.beforeDir
		return nil
	}
	if err = os.MkdirAll(p.beforeDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", p.beforeDir, err)
	}

	ws := recipe.NewWorkspace(p.beforeDir)
	if err = rec.Setup(ws, g.toolCmd(ctx, p.beforeDir), g.refCmd(ctx, p.beforeDir)); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	g.Logger.Debug("setup complete, cloning before state", "recipe", name)

	// Clone the before state: pack once, unpack twice, so both runs start
	// from identical bytes and timestamps.
	for _, stale := range []string{p.beforeArchive, p.afterDir, p.refAfterDir} {
		removed, err = g.removePath(stale, force)
		if err != nil {
			return err
		}
		if !removed {
			outcome = ledger.OutcomeRejected
			detail = "declined to remove " + stale
			return nil
		}
	}
	if err = g.Archiver.Pack(p.beforeDir, p.beforeArchive); err != nil {
		return err
	}
	for _, clone := range []string{p.afterDir, p.refAfterDir} {
		if err = g.Archiver.Unpack(p.beforeArchive, clone); err != nil {
			return err
		}
	}

	// Run both command sequences, each in its own clone.
	g.Logger.Debug("running tool commands", "recipe", name)
	if err = rec.RunTool(g.toolCmd(ctx, p.afterDir)); err != nil {
		return fmt.Errorf("tool run: %w", err)
	}
	g.Logger.Debug("running reference commands", "recipe", name)
	if err = rec.RunReference(g.refCmd(ctx, p.refAfterDir)); err != nil {
		return fmt.Errorf("reference run: %w", err)
	}

	// Capture index listings from both trees.
	listCmd := runner.Command(g.Config.Reference, "ls-files -s --debug")
	if err = runner.RunToFile(ctx, g.Runner, p.afterDir, listCmd, p.toolListing); err != nil {
		return err
	}
	if err = runner.RunToFile(ctx, g.Runner, p.refAfterDir, listCmd, p.refListing); err != nil {
		return err
	}

	// Tree diff, gated by confirmation.
	g.banner("-", " begin directory diff ")
	diffCmd := runner.Command(g.Config.Reference, fmt.Sprintf("diff --no-index %s %s", p.refAfterDir, p.afterDir))
	if err = g.Runner.RunTo(ctx, ".", diffCmd, g.Out); err != nil {
		return err
	}
	g.banner("-", " end directory diff ")

	accepted, err := g.Confirm.Confirm("accept differences")
	if err != nil {
		return err
	}
	if !accepted {
		g.Logger.Info("differences rejected", "recipe", name, "stage", "directory diff")
		outcome = ledger.OutcomeRejected
		detail = "directory diff rejected"
		return nil
	}

	// Listing diff, gated by confirmation.
	listingDiff, err := diffListingFiles(p.refListing, p.toolListing)
	if err != nil {
		return err
	}
	g.banner("-", " begin ls-files diff ")
	fmt.Fprint(g.Out, listingDiff)
	g.banner("-", " end ls-files diff ")

	accepted, err = g.Confirm.Confirm("accept differences")
	if err != nil {
		return err
	}
	if !accepted {
		g.Logger.Info("differences rejected", "recipe", name, "stage", "ls-files diff")
		outcome = ledger.OutcomeRejected
		detail = "ls-files diff rejected"
		return nil
	}

	// Persist the accepted after state and tear down comparison artifacts.
	removed, err = g.removePath(p.afterArchive, force)
	if err != nil {
		return err
	}
	if !removed {
		outcome = ledger.OutcomeRejected
		detail = "declined to remove " + p.afterArchive
		return nil
	}
	if err = g.Archiver.Pack(p.afterDir, p.afterArchive); err != nil {
		return err
	}
	for _, tmp := range []string{p.toolListing, p.refListing} {
		if err = os.Remove(tmp); err != nil {
			return fmt.Errorf("removing %s: %w", tmp, err)
		}
	}
	if err = removeTree(p.refAfterDir); err != nil {
		return err
	}

	g.Logger.Info("snapshot generated", "recipe", name)
	outcome = ledger.OutcomeGenerated
	return nil
}

// toolCmd binds the tool under test to a working directory.
func (g *Generator) toolCmd(ctx context.Context, dir string) recipe.CommandFunc {
	return func(args string) error {
		return g.Runner.Run(ctx, dir, runner.Command(g.Config.Tool, args), slog.LevelDebug)
	}
}

// refCmd binds the reference tool to a working directory.
func (g *Generator) refCmd(ctx context.Context, dir string) recipe.CommandFunc {
	return func(args string) error {
		return g.Runner.Run(ctx, dir, runner.Command(g.Config.Reference, args), slog.LevelDebug)
	}
}

// removePath deletes the file or directory at path, prompting first unless
// force is set. Returns true if the path was removed or never existed.
func (g *Generator) removePath(path string, force bool) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	kind := "file"
	if info.IsDir() {
		kind = "directory"
	}
	if !force {
		ok, err := g.Confirm.Confirm(fmt.Sprintf("delete %s `%s`", kind, path))
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	if info.IsDir() {
		return true, removeTree(path)
	}
	return true, os.Remove(path)
}

func (g *Generator) record(ctx context.Context, name string, outcome ledger.Outcome, detail string, started time.Time) {
	if g.Ledger == nil {
		return
	}
	_, err := g.Ledger.Record(ctx, ledger.Run{
		Recipe:     name,
		Outcome:    outcome,
		Detail:     detail,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
	if err != nil {
		g.Logger.Warn("recording run failed", "recipe", name, "error", err)
	}
}

func (g *Generator) banner(fill, text string) {
	const width = 80
	pad := width - len(text)
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	fmt.Fprintln(g.Out, strings.Repeat(fill, left)+text+strings.Repeat(fill, pad-left))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// removeTree deletes a directory tree, making read-only entries (loose git
// objects) writable first.
func removeTree(path string) error {
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return os.Chmod(p, info.Mode().Perm()|0o200)
	})
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("preparing removal of %s: %w", path, err)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
