package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ledger"
	"github.com/roach88/turnstile/internal/ref"
)

// ClassCreateOptions holds flags for "class create".
type ClassCreateOptions struct {
	*RootOptions
	Seed       string
	Name       string
	Symbol     string
	URI        string
	Price      uint64
	Quantity   uint64
	Uses       uint64
	Attendance bool
}

// NewClassCommand creates the class command group.
func NewClassCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "class",
		Short: "Manage ticket classes",
	}
	cmd.AddCommand(newClassCreateCommand(rootOpts))
	return cmd
}

func newClassCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClassCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <event>",
		Short: "Create a ticket class (event authority only)",
		Long: `Create a ticket class under an event. Sold and used start at zero.

Examples:
  turnstile class create org/fest --as org --seed ga --price 5 --quantity 300
  turnstile class create org/fest --as org --seed vip --price 50 --quantity 20 --uses 2 --attendance`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassCreate(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Seed, "seed", "", "class seed, unique within the event (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name (default: seed)")
	cmd.Flags().StringVar(&opts.Symbol, "symbol", "", "metadata symbol")
	cmd.Flags().StringVar(&opts.URI, "uri", "", "metadata URI")
	cmd.Flags().Uint64Var(&opts.Price, "price", 0, "price per ticket")
	cmd.Flags().Uint64Var(&opts.Quantity, "quantity", 0, "tickets for sale")
	cmd.Flags().Uint64Var(&opts.Uses, "uses", 1, "check-ins per ticket")
	cmd.Flags().BoolVar(&opts.Attendance, "attendance", false, "issue proof of attendance on check-in")
	_ = cmd.MarkFlagRequired("seed")

	return cmd
}

func runClassCreate(opts *ClassCreateOptions, cmd *cobra.Command, eventRef string) error {
	event, err := ref.Event(eventRef)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid event", err)
	}
	name := opts.Name
	if name == "" {
		name = opts.Seed
	}

	return opts.withSession(cmd, func(s *session, f *OutputFormatter) error {
		class, err := s.ledger.CreateTicketClass(cmd.Context(), ledger.CreateTicketClassRequest{
			Caller:            opts.signers(),
			Event:             event,
			Seed:              opts.Seed,
			Name:              name,
			Symbol:            opts.Symbol,
			URI:               opts.URI,
			Price:             opts.Price,
			Quantity:          opts.Quantity,
			UsesPerTicket:     opts.Uses,
			ProofOfAttendance: opts.Attendance,
		})
		if err != nil {
			return f.Fail("create class", err)
		}
		return f.Success(class)
	})
}

// SellOptions holds flags for the sell command.
type SellOptions struct {
	*RootOptions
	Buyer    string
	Quantity uint64
	Seeds    []string
}

// SoldTickets is the sell command's result.
type SoldTickets struct {
	Tickets []*ledger.Ticket `json:"tickets"`
}

func (s SoldTickets) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sold %d ticket(s) to %s", len(s.Tickets), s.Tickets[0].Owner)
	for _, t := range s.Tickets {
		fmt.Fprintf(&b, "\n  #%d %s", t.Serial, t.Address)
	}
	return b.String()
}

// NewSellCommand creates the sell command.
func NewSellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sell <class>",
		Short: "Buy tickets of a class",
		Long: `Buy tickets of a class. The buyer must sign; the price is debited from
the buyer's account and credited to the event's escrow vault.

Examples:
  turnstile sell org/fest/ga --as alice --quantity 2
  turnstile sell org/fest/ga --as alice --seed front-row-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSell(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Buyer, "buyer", "", "buyer (default: first --as)")
	cmd.Flags().Uint64Var(&opts.Quantity, "quantity", 1, "tickets to buy")
	cmd.Flags().StringArrayVar(&opts.Seeds, "seed", nil, "ticket seed, one per ticket (default: generated)")

	return cmd
}

func runSell(opts *SellOptions, cmd *cobra.Command, classRef string) error {
	class, err := ref.Class(classRef)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid class", err)
	}
	buyer := identity.Principal(opts.Buyer)
	if buyer == "" {
		buyer = opts.actor()
	}

	return opts.withSession(cmd, func(s *session, f *OutputFormatter) error {
		tickets, err := s.ledger.Sell(cmd.Context(), ledger.SellRequest{
			Caller:   opts.signers(),
			Buyer:    buyer,
			Class:    class,
			Quantity: opts.Quantity,
			Seeds:    opts.Seeds,
		})
		if err != nil {
			return f.Fail("sell", err)
		}
		return f.Success(SoldTickets{Tickets: tickets})
	})
}
