// Package cli implements the snapgen command line interface.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapgen/snapgen/internal/config"
)

// RootOptions holds global flags and the environment every subcommand runs
// in: the loaded config and the file-backed debug logger.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	Config  config.Config
	Logger  *slog.Logger
	logFile *os.File
}

// NewRootCommand creates the root command for the snapgen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "snapgen",
		Short: "snapgen - snapshot fixtures for a git reimplementation",
		Long: `snapgen generates before/after snapshot archives by running scripted
recipes against both a version-control tool under test and the reference git,
then diffing the two resulting trees for operator review.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.setup(); err != nil {
				return WrapExitError(ExitCommandError, "setting up environment", err)
			}
			opts.Logger.Info("invoked", "args", os.Args[1:])
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.teardown()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to snapgen.yaml (default: ./snapgen.yaml if present)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "mirror the debug log to stderr")

	cmd.AddCommand(NewPackCommand(opts))
	cmd.AddCommand(NewUnpackCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// setup loads the config, creates the snapshots and scratch directories, and
// opens the debug log.
func (o *RootOptions) setup() error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	o.Config = cfg

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	var w io.Writer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		o.logFile = f
		w = f
	} else {
		w = io.Discard
	}
	if o.Verbose {
		w = io.MultiWriter(w, os.Stderr)
	}

	o.Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return nil
}

func (o *RootOptions) teardown() error {
	if o.logFile == nil {
		return nil
	}
	err := o.logFile.Close()
	o.logFile = nil
	return err
}
