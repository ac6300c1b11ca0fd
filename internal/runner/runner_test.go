package runner

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(buf *bytes.Buffer) *ExecRunner {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewExecRunner(logger)
}

func TestRunStreamsOutputToLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(&buf)

	err := r.Run(context.Background(), t.TempDir(), "echo hello; echo world 1>&2", slog.LevelDebug)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	r := newTestRunner(&buf)

	err := r.Run(context.Background(), dir, "touch created.txt", slog.LevelDebug)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "created.txt"))
	assert.NoError(t, err)
}

func TestRunReportsNonzeroExit(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(&buf)

	err := r.Run(context.Background(), t.TempDir(), "exit 3", slog.LevelDebug)
	require.Error(t, err)

	toolErr, ok := err.(*ToolError)
	require.True(t, ok, "expected *ToolError, got %T", err)
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Equal(t, "exit 3", toolErr.Command)
}

func TestRunToCapturesCombinedOutput(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(&bytes.Buffer{})

	err := r.RunTo(context.Background(), t.TempDir(), "echo out; echo err 1>&2", &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "out")
	assert.Contains(t, buf.String(), "err")
}

func TestRunToIgnoresExitStatus(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(&bytes.Buffer{})

	err := r.RunTo(context.Background(), t.TempDir(), "echo partial; exit 1", &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "partial")
}

func TestRunToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.txt")
	r := newTestRunner(&bytes.Buffer{})

	err := RunToFile(context.Background(), r, dir, "echo captured", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "captured")
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "git", Command("git", ""))
	assert.Equal(t, "git init", Command("git", "init"))
	assert.Equal(t, `git commit -m "msg"`, Command("git", ` commit -m "msg" `))
}
