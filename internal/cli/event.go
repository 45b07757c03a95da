package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ledger"
	"github.com/roach88/turnstile/internal/ref"
)

// EventCreateOptions holds flags for "event create".
type EventCreateOptions struct {
	*RootOptions
	Authority string
	ID        string
	Title     string
	Symbol    string
	URI       string
	Currency  string
	FeeVault  bool
	Policy    string
}

// NewEventCommand creates the event command group.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage events",
	}
	cmd.AddCommand(newEventCreateCommand(rootOpts))
	return cmd
}

func newEventCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event and its vaults",
		Long: `Create an event with its escrow vault, and a fee vault with --fee-vault.

The authority defaults to the first --as principal and must sign.

Examples:
  turnstile event create --as org --id fest --title "Summer Fest" --currency USD
  turnstile event create --as org --id gala --currency USD --policy owner-and-collaborator`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventCreate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Authority, "authority", "", "event authority (default: first --as)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "event id, unique per authority (required)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "event title")
	cmd.Flags().StringVar(&opts.Symbol, "symbol", "", "metadata symbol")
	cmd.Flags().StringVar(&opts.URI, "uri", "", "metadata URI")
	cmd.Flags().StringVar(&opts.Currency, "currency", "", "accepted currency (default: config currency)")
	cmd.Flags().BoolVar(&opts.FeeVault, "fee-vault", false, "create a fee vault for deposits")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "check-in policy (default: config default_policy, else owner-or-collaborator)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runEventCreate(opts *EventCreateOptions, cmd *cobra.Command) error {
	authority := identity.Principal(opts.Authority)
	if authority == "" {
		authority = opts.actor()
	}
	currency := opts.Currency
	if currency == "" {
		currency = opts.config.Currency
	}
	policy := opts.Policy
	if policy == "" {
		policy = opts.config.DefaultPolicy
	}

	return opts.withSession(cmd, func(s *session, f *OutputFormatter) error {
		ev, err := s.ledger.CreateEvent(cmd.Context(), ledger.CreateEventRequest{
			Caller:        opts.signers(),
			Authority:     authority,
			ID:            opts.ID,
			Title:         opts.Title,
			Symbol:        opts.Symbol,
			URI:           opts.URI,
			Currency:      currency,
			FeeVault:      opts.FeeVault,
			CheckInPolicy: ledger.CheckInPolicy(policy),
		})
		if err != nil {
			return f.Fail("create event", err)
		}
		return f.Success(ev)
	})
}

// NewCollaboratorCommand creates the collaborator command group.
func NewCollaboratorCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collaborator",
		Short: "Grant or revoke check-in rights",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <event> <principal>",
		Short: "Register a collaborator (event authority only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollaborator(rootOpts, cmd, args, true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <event> <principal>",
		Short: "Revoke a collaborator (event authority only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollaborator(rootOpts, cmd, args, false)
		},
	})
	return cmd
}

func runCollaborator(opts *RootOptions, cmd *cobra.Command, args []string, add bool) error {
	event, err := ref.Event(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid event", err)
	}
	req := ledger.CollaboratorRequest{
		Caller:    opts.signers(),
		Event:     event,
		Principal: identity.Principal(args[1]),
	}

	return opts.withSession(cmd, func(s *session, f *OutputFormatter) error {
		if add {
			collab, err := s.ledger.CreateCollaborator(cmd.Context(), req)
			if err != nil {
				return f.Fail("add collaborator", err)
			}
			return f.Success(collab)
		}
		if err := s.ledger.DeleteCollaborator(cmd.Context(), req); err != nil {
			return f.Fail("remove collaborator", err)
		}
		return f.Success(fmt.Sprintf("removed collaborator %s", req.Principal))
	})
}

// parseAmount parses a non-negative integer amount argument.
func parseAmount(name, s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid %s %q", name, s), err)
	}
	return n, nil
}
