package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ledger"
	"github.com/roach88/turnstile/internal/ref"
)

// CheckInOptions holds flags for the checkin command.
type CheckInOptions struct {
	*RootOptions
	Quantity   uint64
	Attendance bool
}

// CheckInResult is the checkin command's result.
type CheckInResult struct {
	Ticket     *ledger.Ticket               `json:"ticket"`
	Attendance *ledger.AttendanceCredential `json:"attendance,omitempty"`
}

// NewCheckInCommand creates the checkin command.
func NewCheckInCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckInOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkin <ticket>",
		Short: "Redeem uses of a ticket",
		Long: `Redeem uses of a ticket. Who must sign depends on the event's check-in
policy. Classes with proof of attendance need --attendance, signed by the
owner and a collaborator.

Examples:
  turnstile checkin org/fest/ga/ticket-1 --as alice
  turnstile checkin org/fest/vip/v1 --as alice --as door --attendance`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckIn(opts, cmd, args[0])
		},
	}

	cmd.Flags().Uint64Var(&opts.Quantity, "quantity", 1, "uses to redeem")
	cmd.Flags().BoolVar(&opts.Attendance, "attendance", false, "issue proof of attendance")

	return cmd
}

func runCheckIn(opts *CheckInOptions, cmd *cobra.Command, ticketRef string) error {
	ticket, err := ref.Ticket(ticketRef)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid ticket", err)
	}
	req := ledger.CheckInRequest{
		Caller:   opts.signers(),
		Ticket:   ticket,
		Quantity: opts.Quantity,
	}

	return opts.withSession(cmd, func(s *session, f *OutputFormatter) error {
		var res CheckInResult
		if opts.Attendance {
			res.Ticket, res.Attendance, err = s.ledger.CheckInWithAttendance(cmd.Context(), req)
		} else {
			res.Ticket, err = s.ledger.CheckIn(cmd.Context(), req)
		}
		if err != nil {
			return f.Fail("check in", err)
		}
		return f.Success(res)
	})
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <ticket> <owner>",
		Short: "Check that a principal holds a ticket",
		Long: `Check that a principal holds a ticket right now. Read-only; exits 1
with NOT_TICKET_OWNER otherwise.

Example:
  turnstile verify org/fest/ga/ticket-1 alice`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticket, err := ref.Ticket(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid ticket", err)
			}
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				t, err := s.ledger.VerifyOwnership(cmd.Context(), ticket, identity.Principal(args[1]))
				if err != nil {
					return f.Fail("verify", err)
				}
				return f.Success(t)
			})
		},
	}
}

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <ticket> <new-owner>",
		Short: "Hand an unused ticket to someone else",
		Long: `Hand a ticket to a new owner. The current owner must sign, and no use
may have been redeemed.

Example:
  turnstile transfer org/fest/ga/ticket-1 bob --as alice`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticket, err := ref.Ticket(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid ticket", err)
			}
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				t, err := s.ledger.SetAuthority(cmd.Context(), ledger.SetAuthorityRequest{
					Caller:   rootOpts.signers(),
					Ticket:   ticket,
					NewOwner: identity.Principal(args[1]),
				})
				if err != nil {
					return f.Fail("transfer", err)
				}
				return f.Success(t)
			})
		},
	}
}
