package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/snapshot"
)

// SnapshotResult is the export and import commands' result.
type SnapshotResult struct {
	Path    string    `json:"path"`
	Records int       `json:"records"`
	Taken   time.Time `json:"taken"`
}

func (r SnapshotResult) String() string {
	return fmt.Sprintf("%d record(s), %s, taken %s", r.Records, r.Path, r.Taken.Format(time.RFC3339))
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every record to a snapshot file",
		Long: `Write every ledger record to a zstd-compressed snapshot. The journal is
not included.

Example:
  turnstile export fest.snap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				out, err := os.Create(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to create snapshot", err)
				}
				taken := time.Now().UTC()
				n, err := snapshot.Export(cmd.Context(), s.store, out, taken)
				if cerr := out.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to export", err)
				}
				s.log.Info("snapshot exported", "path", args[0], "records", n)
				return f.Success(SnapshotResult{Path: args[0], Records: n, Taken: taken})
			})
		},
	}
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load records from a snapshot file",
		Long: `Load every record of a snapshot into the database. Records with the
same address are overwritten.

Example:
  turnstile import fest.snap --db copy.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open snapshot", err)
			}
			defer in.Close()

			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				hdr, err := snapshot.Import(cmd.Context(), s.store, in)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to import", err)
				}
				s.log.Info("snapshot imported", "path", args[0], "records", hdr.Count)
				return f.Success(SnapshotResult{Path: args[0], Records: hdr.Count, Taken: hdr.Taken})
			})
		},
	}
}
