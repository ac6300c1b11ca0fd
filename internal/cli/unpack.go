package cli

import (
	"github.com/spf13/cobra"

	"github.com/snapgen/snapgen/internal/archive"
)

// UnpackOptions holds flags for the unpack command.
type UnpackOptions struct {
	*RootOptions
	Force bool
}

// NewUnpackCommand creates the unpack command.
func NewUnpackCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UnpackOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "unpack",
		Short: "Unpack snapshot archives into directories",
		Long: `Extract each archive in the snapshots directory into a sibling directory
with the same name. Archives whose directory already exists are skipped
unless --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arch := archive.New(opts.Logger)
			if err := arch.UnpackDirectory(opts.Config.SnapshotsDir, opts.Force); err != nil {
				return WrapExitError(ExitFailure, "unpacking snapshots", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite existing directories")

	return cmd
}
