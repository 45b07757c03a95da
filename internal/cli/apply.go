package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/manifest"
)

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <manifest.cue>",
		Short: "Create an event and its classes from a CUE manifest",
		Long: `Validate a CUE manifest and create its event, collaborators, and ticket
classes. Entities that already exist are left unchanged, so re-applying
is safe.

Signers default to the manifest's event authority.

Example:
  turnstile apply fest.cue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.LoadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid manifest", err)
			}
			caller := rootOpts.signers()
			if len(caller) == 0 {
				caller = identity.Of(m.Event.Authority)
			}

			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				res, err := manifest.Apply(cmd.Context(), s.ledger, m, caller)
				if err != nil {
					return f.Fail("apply", err)
				}
				s.log.Info("manifest applied", "event", res.Event.Short(),
					"created", len(res.Created), "existing", len(res.Existing))
				if rootOpts.Format == "json" {
					return f.Success(res)
				}
				return f.Success(fmt.Sprintf("event %s: %d created, %d already present",
					res.Event.Short(), len(res.Created), len(res.Existing)))
			})
		},
	}
}
