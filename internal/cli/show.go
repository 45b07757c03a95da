package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/ledger"
	"github.com/roach88/turnstile/internal/ref"
)

// Balance is the show balance result.
type Balance struct {
	Currency string `json:"currency"`
	Owner    string `json:"owner"`
	Balance  uint64 `json:"balance"`
}

type shower func(ctx context.Context, l *ledger.Ledger, name string) (any, error)

var showers = map[string]shower{
	"event": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		addr, err := ref.Event(name)
		if err != nil {
			return nil, err
		}
		return l.GetEvent(ctx, addr)
	},
	"class": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		addr, err := ref.Class(name)
		if err != nil {
			return nil, err
		}
		return l.GetTicketClass(ctx, addr)
	},
	"ticket": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		addr, err := ref.Ticket(name)
		if err != nil {
			return nil, err
		}
		return l.GetTicket(ctx, addr)
	},
	"vault": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		addr, err := ref.Vault(name)
		if err != nil {
			return nil, err
		}
		return l.GetVault(ctx, addr)
	},
	"attendance": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		class, owner, err := ref.Attendance(name)
		if err != nil {
			return nil, err
		}
		return l.GetAttendance(ctx, class, owner)
	},
	"balance": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		currency, owner, err := ref.Account(name)
		if err != nil {
			return nil, err
		}
		n, err := l.Balance(ctx, currency, owner)
		if err != nil {
			return nil, err
		}
		return Balance{Currency: currency, Owner: string(owner), Balance: n}, nil
	},
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <event|class|ticket|vault|attendance|balance> <ref>",
		Short: "Print one entity",
		Long: `Print one entity by reference.

References:
  event       <authority>/<id>
  class       <authority>/<id>/<class>
  ticket      <authority>/<id>/<class>/<ticket seed>
  vault       <authority>/<id>/escrow | <authority>/<id>/fee
  attendance  <authority>/<id>/<class>/<owner>
  balance     <currency>/<owner>

Examples:
  turnstile show class org/fest/ga
  turnstile show balance USD/alice --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			show, ok := showers[args[0]]
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown entity %q", args[0]))
			}
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				entity, err := show(cmd.Context(), s.ledger, args[1])
				if err != nil {
					return f.Fail("show "+args[0], err)
				}
				return f.Success(entity)
			})
		},
	}
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit <event>",
		Short: "Recompute an event's books",
		Long: `Recompute an event's escrow and fee totals from its ticket classes and
compare them with the vault balances. Exits 1 if they disagree.

Example:
  turnstile audit org/fest`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := ref.Event(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid event", err)
			}
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				report, err := s.ledger.Audit(cmd.Context(), event)
				if report == nil {
					return f.Fail("audit", err)
				}
				if werr := f.Success(auditView{report}); werr != nil {
					return werr
				}
				if errors.Is(err, ledger.ErrImbalance) {
					return WrapExitError(ExitFailure, "audit", err)
				}
				return nil
			})
		},
	}
}

// auditView renders an audit report as a short table in text mode.
type auditView struct {
	*ledger.AuditReport
}

func (v auditView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "event %s\n", v.Event.Short())
	fmt.Fprintf(&b, "revenue %d, escrow %d (expected %d)\n", v.Revenue, v.EscrowBalance, v.EscrowExpected)
	if v.FeeBalance != nil {
		fmt.Fprintf(&b, "fees %d locked, %d deposited\n", *v.FeeBalance, v.TotalDeposited)
	}
	for _, c := range v.Classes {
		fmt.Fprintf(&b, "  %-16s sold %d/%d  used %d/%d  revenue %d\n", c.Name, c.Sold, c.Quantity, c.Used, c.Capacity, c.Revenue)
	}
	if v.Balanced() {
		b.WriteString("balanced")
	} else {
		b.WriteString("UNBALANCED: " + strings.Join(v.Problems, "; "))
	}
	return b.String()
}

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Op   string
	Tail int
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the operation journal",
		Long: `Print every attempted operation, committed or rejected, in order.

Examples:
  turnstile journal
  turnstile journal --op sell --tail 10 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				entries, err := s.store.Entries(cmd.Context())
				if err != nil {
					return f.Fail("read journal", err)
				}
				entries = filterEntries(entries, opts.Op, opts.Tail)
				if opts.Format == "json" {
					return f.Success(entries)
				}
				return f.Success(journalView(entries))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Op, "op", "", "only entries for this operation")
	cmd.Flags().IntVar(&opts.Tail, "tail", 0, "only the last N entries")
	return cmd
}

func filterEntries(entries []ir.Entry, op string, tail int) []ir.Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if op == "" || e.Op == op {
			out = append(out, e)
		}
	}
	if tail > 0 && len(out) > tail {
		out = out[len(out)-tail:]
	}
	return out
}

type journalView []ir.Entry

func (v journalView) String() string {
	if len(v) == 0 {
		return "journal is empty"
	}
	var b strings.Builder
	for i, e := range v {
		if i > 0 {
			b.WriteByte('\n')
		}
		signers := strings.Join(e.Signers, "+")
		if signers == "" {
			signers = "-"
		}
		fmt.Fprintf(&b, "%4d  %s  %-24s %-10s %s", e.Seq, e.ID[:12], e.Op, signers, e.Outcome)
		if e.Message != "" {
			fmt.Fprintf(&b, " (%s)", e.Message)
		}
	}
	return b.String()
}
