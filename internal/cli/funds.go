package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ledger"
	"github.com/roach88/turnstile/internal/ref"
)

// NewFundCommand creates the fund command.
func NewFundCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fund <currency> <owner> <amount>",
		Short: "Mint test funds into an account",
		Long: `Credit an account out of thin air. This is the development faucet that
gives buyers something to spend; it needs no signer.

Example:
  turnstile fund USD alice 100`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[2])
			if err != nil {
				return err
			}
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				acct, err := s.ledger.Fund(cmd.Context(), ledger.FundRequest{
					Currency: args[0],
					Owner:    identity.Principal(args[1]),
					Amount:   amount,
				})
				if err != nil {
					return f.Fail("fund", err)
				}
				return f.Success(acct)
			})
		},
	}
}

// DepositOptions holds flags for the deposit command.
type DepositOptions struct {
	*RootOptions
	From string
}

// NewDepositCommand creates the deposit command.
func NewDepositCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DepositOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deposit <event> <amount>",
		Short: "Move funds into an event's fee vault",
		Long: `Move the depositor's own funds into the event's fee vault. The
depositor must sign.

Example:
  turnstile deposit org/fest 25 --as alice`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := ref.Event(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid event", err)
			}
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			from := identity.Principal(opts.From)
			if from == "" {
				from = opts.actor()
			}
			return opts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				vault, err := s.ledger.Deposit(cmd.Context(), ledger.DepositRequest{
					Caller: opts.signers(),
					From:   from,
					Event:  event,
					Amount: amount,
				})
				if err != nil {
					return f.Fail("deposit", err)
				}
				return f.Success(vault)
			})
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "depositor (default: first --as)")
	return cmd
}

// WithdrawOptions holds flags for the withdraw command.
type WithdrawOptions struct {
	*RootOptions
	Fees bool
	To   string
}

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WithdrawOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "withdraw <event> <amount>",
		Short: "Move funds out of an event's vault",
		Long: `Move sale proceeds out of the escrow vault, or deposits out of the fee
vault with --fees. Only the event authority may withdraw.

Examples:
  turnstile withdraw org/fest 100 --as org
  turnstile withdraw org/fest 25 --as org --fees --to alice`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := ref.Event(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid event", err)
			}
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			req := ledger.WithdrawRequest{
				Caller:      opts.signers(),
				Event:       event,
				Amount:      amount,
				Destination: identity.Principal(opts.To),
			}
			return opts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				var vault *ledger.Vault
				if opts.Fees {
					vault, err = s.ledger.WithdrawFees(cmd.Context(), req)
				} else {
					vault, err = s.ledger.Withdraw(cmd.Context(), req)
				}
				if err != nil {
					return f.Fail("withdraw", err)
				}
				return f.Success(vault)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Fees, "fees", false, "withdraw from the fee vault")
	cmd.Flags().StringVar(&opts.To, "to", "", "destination (default: event authority)")
	return cmd
}
