package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapgen/snapgen/internal/archive"
	"github.com/snapgen/snapgen/internal/ledger"
	"github.com/snapgen/snapgen/internal/recipe"
	"github.com/snapgen/snapgen/internal/runner"
	"github.com/snapgen/snapgen/internal/snapshot"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	All   bool
	Force bool
	Yes   bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate [recipes...]",
		Short: "Generate before/after snapshots from recipes",
		Long: `Generate a before/after archive pair for each named recipe: build the
starting state, clone it, run the tool under test and the reference tool in
parallel clones, then diff the results behind accept/reject prompts.

Recipes whose archive pair already exists are skipped unless --force.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "generate every registered recipe")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite existing snapshots")
	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "answer yes to every prompt (non-interactive)")

	return cmd
}

func runGenerate(opts *GenerateOptions, names []string, cmd *cobra.Command) error {
	if opts.All && len(names) > 0 {
		return NewExitError(ExitCommandError, "a list of recipes is not allowed when --all is present")
	}
	if !opts.All && len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no recipes specified (use --all to generate every snapshot)")
		return nil
	}

	reg := recipe.DefaultRegistry(opts.Logger)

	var confirm snapshot.Confirmer
	if opts.Yes {
		confirm = snapshot.AutoConfirmer{Answer: true}
	} else {
		confirm = snapshot.NewTerminalConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	gen := snapshot.New(
		opts.Config,
		reg,
		runner.NewExecRunner(opts.Logger),
		archive.New(opts.Logger),
		confirm,
		opts.Logger,
		cmd.OutOrStdout(),
	)

	if opts.Config.LedgerFile != "" {
		led, err := ledger.Open(opts.Config.LedgerFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "opening run ledger", err)
		}
		defer led.Close()
		gen.Ledger = led
	}

	ctx := cmd.Context()
	var err error
	if opts.All {
		err = gen.GenerateAll(ctx, opts.Force)
	} else {
		err = gen.GenerateNamed(ctx, names, opts.Force)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return NewExitError(ExitFailure, "one or more snapshots failed")
	}
	return nil
}
