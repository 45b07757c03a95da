package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/metadata"
	"github.com/roach88/turnstile/internal/state"
)

// Operation names, as journaled and logged.
const (
	OpCreateEvent           = "create_event"
	OpCreateCollaborator    = "create_collaborator"
	OpDeleteCollaborator    = "delete_collaborator"
	OpCreateTicketClass     = "create_ticket_class"
	OpSell                  = "sell"
	OpCheckIn               = "check_in"
	OpCheckInWithAttendance = "check_in_with_attendance"
	OpSetAuthority          = "set_authority"
	OpDeposit               = "deposit"
	OpWithdraw              = "withdraw"
	OpWithdrawFees          = "withdraw_fees"
	OpFund                  = "fund"
)

// Clock supplies wall time for journal entries.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Ledger applies ticketing operations to a state.Store.
//
// Each mutating method declares the addresses it touches, then performs
// every check and every write inside one Apply. A method either commits
// all of its writes or returns an error and commits none.
type Ledger struct {
	store     state.Store
	journal   state.Journal
	publisher metadata.Publisher
	seeds     SeedGenerator
	clock     Clock
	log       *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithJournal records every operation attempt.
func WithJournal(j state.Journal) Option {
	return func(l *Ledger) { l.journal = j }
}

// WithPublisher sets the metadata publisher. Defaults to metadata.Nop.
func WithPublisher(p metadata.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithSeedGenerator sets the source of ticket seeds used when a sale
// does not name its own. Defaults to UUIDv7Seeds.
func WithSeedGenerator(g SeedGenerator) Option {
	return func(l *Ledger) { l.seeds = g }
}

// WithClock sets the clock stamped on journal entries.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// New returns a ledger over store.
func New(store state.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		publisher: metadata.Nop{},
		seeds:     UUIDv7Seeds{},
		clock:     systemClock{},
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// attempt tracks one operation from entry to journal.
type attempt struct {
	op     string
	caller identity.Signers
	target address.Address
	args   ir.Object
}

func (l *Ledger) begin(op string, caller identity.Signers, target address.Address, args ir.Object) *attempt {
	return &attempt{op: op, caller: caller, target: target, args: args}
}

// finish logs and journals the attempt and returns err with Op filled in.
// Journal failures are logged and do not change the outcome: the state
// transition has already committed or been rejected by then.
func (l *Ledger) finish(ctx context.Context, a *attempt, result ir.Object, err error) error {
	entry := ir.Entry{
		Op:      a.op,
		Args:    a.args,
		Signers: a.caller.Strings(),
		Outcome: ir.OutcomeOK,
		Result:  result,
		Time:    l.clock.Now(),
	}

	var le *Error
	switch {
	case err == nil:
		l.log.DebugContext(ctx, "operation committed", "op", a.op, "address", a.target.Short(), "signers", a.caller.String())
	case errors.As(err, &le):
		if le.Op == "" {
			le.Op = a.op
		}
		entry.Outcome = string(le.Code)
		entry.Message = le.Message
		entry.Result = nil
		l.log.DebugContext(ctx, "operation rejected", "op", a.op, "address", a.target.Short(), "code", string(le.Code), "message", le.Message)
	default:
		// Infrastructure failures are not journaled: nothing was decided.
		l.log.ErrorContext(ctx, "operation failed", "op", a.op, "address", a.target.Short(), "error", err)
		return fmt.Errorf("%s: %w", a.op, err)
	}

	if l.journal != nil {
		if _, jerr := l.journal.Append(ctx, entry); jerr != nil {
			l.log.ErrorContext(ctx, "journal append failed", "op", a.op, "error", jerr)
		}
	}
	return err
}

func (l *Ledger) publish(ctx context.Context, doc metadata.Document) {
	if err := l.publisher.Publish(ctx, doc); err != nil {
		l.log.WarnContext(ctx, "metadata publish failed",
			"kind", doc.Kind.String(),
			"address", doc.Address.Short(),
			"error", err,
		)
	}
}

// load reads an entity, turning substrate misses into NOT_FOUND.
func load(tx state.Tx, addr address.Address, kind address.Kind, v any) error {
	err := state.Load(tx, addr, kind, v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, state.ErrNotFound):
		return reject(CodeNotFound, addr, "no %s at this address", kind)
	case errors.Is(err, state.ErrKindMismatch):
		return reject(CodeNotFound, addr, "address does not hold a %s", kind)
	default:
		return err
	}
}

// create inserts an entity, turning an occupied address into ALREADY_EXISTS.
// The address may be occupied by a record of any kind.
func create(tx state.Tx, addr address.Address, kind address.Kind, v any) error {
	err := state.Create(tx, addr, kind, v)
	if errors.Is(err, state.ErrAlreadyExists) {
		return reject(CodeAlreadyExists, addr, "%s already exists", kind)
	}
	return err
}

func save(tx state.Tx, addr address.Address, kind address.Kind, v any) error {
	return state.Save(tx, addr, kind, v)
}

// view runs a read-only closure.
func (l *Ledger) view(ctx context.Context, scope []address.Address, fn func(state.Tx) error) error {
	return l.store.View(ctx, scope, fn)
}

// eventFor reads an event outside any write. Only the fields fixed at
// creation (authority, currency, vault addresses) may be relied on from
// the result; mutable fields are re-read inside the transition.
func (l *Ledger) eventFor(ctx context.Context, addr address.Address) (*Event, error) {
	var ev Event
	err := l.view(ctx, []address.Address{addr}, func(tx state.Tx) error {
		return load(tx, addr, address.KindEvent, &ev)
	})
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func requireNonEmpty(addr address.Address, field, value string) error {
	if value == "" {
		return reject(CodeInvalidArgument, addr, "%s is required", field)
	}
	return nil
}
