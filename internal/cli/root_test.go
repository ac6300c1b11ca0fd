package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "snapgen", cmd.Use)
	assert.Contains(t, cmd.Long, "before/after snapshot archives")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"pack", "unpack", "generate", "history"} {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
}

func TestPackAndUnpackFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"pack", "unpack"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)

		forceFlag := sub.Flags().Lookup("force")
		require.NotNil(t, forceFlag, "%s should have --force", name)
		assert.Equal(t, "f", forceFlag.Shorthand)
		assert.Equal(t, "false", forceFlag.DefValue)
	}
}

func TestGenerateFlags(t *testing.T) {
	cmd := NewRootCommand()
	sub, _, err := cmd.Find([]string{"generate"})
	require.NoError(t, err)

	allFlag := sub.Flags().Lookup("all")
	require.NotNil(t, allFlag)
	assert.Equal(t, "a", allFlag.Shorthand)

	require.NotNil(t, sub.Flags().Lookup("force"))
	require.NotNil(t, sub.Flags().Lookup("yes"))
}

func TestGenerateRejectsAllWithNames(t *testing.T) {
	chdir(t, t.TempDir())

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"generate", "--all", "commit"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGenerateWithoutNamesPrintsHint(t *testing.T) {
	chdir(t, t.TempDir())

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"generate"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "no recipes specified")
}

func TestHistoryEmptyLedger(t *testing.T) {
	chdir(t, t.TempDir())

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"history"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "no runs recorded")
}

func TestSetupCreatesEnvironment(t *testing.T) {
	chdir(t, t.TempDir())

	opts := &RootOptions{}
	require.NoError(t, opts.setup())
	defer opts.teardown()

	assert.DirExists(t, opts.Config.SnapshotsDir)
	assert.DirExists(t, opts.Config.ScratchDir)
	require.NotNil(t, opts.Logger)

	opts.Logger.Debug("hello from test")
	require.NoError(t, opts.teardown())
	assert.FileExists(t, opts.Config.LogFile)
}
