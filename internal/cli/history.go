package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/snapgen/snapgen/internal/ledger"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit  int
	Recipe string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past snapshot generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs to show")
	cmd.Flags().StringVar(&opts.Recipe, "recipe", "", "only show runs for this recipe")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Config.LedgerFile == "" {
		return NewExitError(ExitCommandError, "run ledger is disabled (ledger_file is empty)")
	}

	led, err := ledger.Open(opts.Config.LedgerFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening run ledger", err)
	}
	defer led.Close()

	ctx := cmd.Context()
	var runs []ledger.Run
	if opts.Recipe != "" {
		runs, err = led.ByRecipe(ctx, opts.Recipe)
		if err == nil && opts.Limit > 0 && len(runs) > opts.Limit {
			runs = runs[:opts.Limit]
		}
	} else {
		runs, err = led.Recent(ctx, opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "reading run ledger", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FINISHED\tRECIPE\tOUTCOME\tDETAIL")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			r.Recipe, r.Outcome, r.Detail)
	}
	return w.Flush()
}
