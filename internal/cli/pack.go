package cli

import (
	"github.com/spf13/cobra"

	"github.com/snapgen/snapgen/internal/archive"
)

// PackOptions holds flags for the pack command.
type PackOptions struct {
	*RootOptions
	Force bool
}

// NewPackCommand creates the pack command.
func NewPackCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PackOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Pack snapshot directories into archives",
		Long: `Pack each subdirectory of the snapshots directory into a sibling archive
with the same name. Directories whose name starts with an ignore prefix are
skipped, as are directories that already have an archive (unless --force).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arch := archive.New(opts.Logger)
			if err := arch.PackSubdirectories(opts.Config.SnapshotsDir, opts.Force, opts.Config.IgnorePrefixes); err != nil {
				return WrapExitError(ExitFailure, "packing snapshots", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite existing archives")

	return cmd
}
