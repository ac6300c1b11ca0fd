// Package runner executes external commands for the snapshot harness.
//
// Every invocation takes an explicit working directory rather than mutating
// the process-wide one, so callers can interleave runs in different trees
// without chdir bookkeeping.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Runner abstracts command execution so the snapshot generator can be tested
// without spawning real processes.
type Runner interface {
	// Run executes command in dir, streaming combined stdout/stderr into the
	// logger at level, line by line. A nonzero exit is returned as a
	// *ToolError.
	Run(ctx context.Context, dir, command string, level slog.Level) error

	// RunTo executes command in dir with combined stdout/stderr redirected
	// to w. The exit status is ignored; only failures to start the process
	// (or write to w) are reported. Used for best-effort capture of diff and
	// listing output.
	RunTo(ctx context.Context, dir, command string, w io.Writer) error
}

// ToolError reports a command that exited nonzero.
type ToolError struct {
	Command  string
	ExitCode int
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
}

// ExecRunner runs commands through the shell, mirroring how the recipes
// quote their arguments (`commit -m "initial commit"`).
type ExecRunner struct {
	Logger *slog.Logger
}

// NewExecRunner creates a runner that logs subprocess output to logger.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ExecRunner{Logger: logger}
}

func (r *ExecRunner) command(ctx context.Context, dir, command string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	return cmd
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir, command string, level slog.Level) error {
	r.Logger.Log(ctx, level, "executing subprocess", "command", command, "dir", dir)

	cmd := r.command(ctx, dir, command)

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating output pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %q: %w", command, err)
	}

	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		r.Logger.Log(ctx, level, scanner.Text())
	}

	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ToolError{Command: command, ExitCode: exitErr.ExitCode()}
		}
		return fmt.Errorf("waiting for %q: %w", command, err)
	}
	return nil
}

// RunTo implements Runner.
func (r *ExecRunner) RunTo(ctx context.Context, dir, command string, w io.Writer) error {
	r.Logger.Debug("executing subprocess with redirected output", "command", command, "dir", dir)

	cmd := r.command(ctx, dir, command)
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// Best-effort capture: diff-style commands exit nonzero when the
			// inputs differ, which is exactly the output we want.
			return nil
		}
		return fmt.Errorf("running %q: %w", command, err)
	}
	return nil
}

// RunToFile executes command in dir with combined output written to path,
// truncating any existing file.
func RunToFile(ctx context.Context, r Runner, dir, command, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := r.RunTo(ctx, dir, command, f); err != nil {
		return err
	}
	return f.Close()
}

// Command builds a tool invocation from a base command and recipe-supplied
// arguments, e.g. Command("git", `commit -m "msg"`).
func Command(base, args string) string {
	args = strings.TrimSpace(args)
	if args == "" {
		return base
	}
	return base + " " + args
}
