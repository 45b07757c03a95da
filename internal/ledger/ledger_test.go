package ledger

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/metadata"
	"github.com/roach88/turnstile/internal/state"
	"github.com/roach88/turnstile/internal/store"
	"github.com/roach88/turnstile/internal/testutil"
)

const (
	organizer = identity.Principal("org")
	alice     = identity.Principal("alice")
	bob       = identity.Principal("bob")
	carol     = identity.Principal("carol")
	door      = identity.Principal("door")
	stranger  = identity.Principal("mallory")
	currency  = "USD"
)

// fixture is a ledger over a fresh substrate with a recording journal
// and publisher.
type fixture struct {
	*Ledger
	store     state.Store
	journal   state.Journal
	published *metadata.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, state.NewMemory(), state.NewMemoryJournal())
}

func newSQLiteFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return newFixtureOn(t, st, st)
}

func newFixtureOn(t *testing.T, st state.Store, j state.Journal) *fixture {
	t.Helper()
	rec := &metadata.Recorder{}
	l := New(st,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithJournal(j),
		WithPublisher(rec),
		WithSeedGenerator(testutil.NewSequenceSeeds("seed")),
		WithClock(testutil.NewDeterministicClock()),
	)
	return &fixture{Ledger: l, store: st, journal: j, published: rec}
}

func signers(ps ...identity.Principal) identity.Signers {
	return identity.NewSigners(ps...)
}

// event creates the organizer's "fest" event with a fee vault.
func (f *fixture) event(t *testing.T, policy CheckInPolicy) *Event {
	t.Helper()
	ev, err := f.CreateEvent(context.Background(), CreateEventRequest{
		Caller:        signers(organizer),
		Authority:     organizer,
		ID:            "fest",
		Title:         "Summer Fest",
		Symbol:        "FEST",
		Currency:      currency,
		FeeVault:      true,
		CheckInPolicy: policy,
	})
	require.NoError(t, err)
	return ev
}

type classSpec struct {
	seed       string
	price      uint64
	quantity   uint64
	uses       uint64
	attendance bool
}

func (f *fixture) class(t *testing.T, ev *Event, spec classSpec) *TicketClass {
	t.Helper()
	if spec.uses == 0 {
		spec.uses = 1
	}
	if spec.seed == "" {
		spec.seed = "general"
	}
	c, err := f.CreateTicketClass(context.Background(), CreateTicketClassRequest{
		Caller:            signers(ev.Authority),
		Event:             ev.Address,
		Seed:              spec.seed,
		Name:              spec.seed,
		Price:             spec.price,
		Quantity:          spec.quantity,
		UsesPerTicket:     spec.uses,
		ProofOfAttendance: spec.attendance,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) fund(t *testing.T, owner identity.Principal, amount uint64) {
	t.Helper()
	_, err := f.Fund(context.Background(), FundRequest{Currency: currency, Owner: owner, Amount: amount})
	require.NoError(t, err)
}

func (f *fixture) buy(t *testing.T, buyer identity.Principal, class address.Address, n uint64) []*Ticket {
	t.Helper()
	tickets, err := f.Sell(context.Background(), SellRequest{
		Caller:   signers(buyer),
		Buyer:    buyer,
		Class:    class,
		Quantity: n,
	})
	require.NoError(t, err)
	return tickets
}

func (f *fixture) balance(t *testing.T, owner identity.Principal) uint64 {
	t.Helper()
	b, err := f.Balance(context.Background(), currency, owner)
	require.NoError(t, err)
	return b
}

func (f *fixture) vault(t *testing.T, addr address.Address) *Vault {
	t.Helper()
	v, err := f.GetVault(context.Background(), addr)
	require.NoError(t, err)
	return v
}

// records dumps the whole substrate, for before/after comparisons.
func (f *fixture) records(t *testing.T) []state.Record {
	t.Helper()
	d, ok := f.store.(state.Dumper)
	require.True(t, ok, "substrate cannot dump records")
	recs, err := d.Records(context.Background())
	require.NoError(t, err)
	return recs
}

func requireCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, CodeOf(err), "error: %v", err)
}
