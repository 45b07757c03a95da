package snapshot

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ledger"
	"github.com/roach88/turnstile/internal/state"
	"github.com/roach88/turnstile/internal/store"
)

var taken = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestWriteRead(t *testing.T) {
	records := []state.Record{
		{Address: address.Event("org", "a"), Kind: address.KindEvent, Body: []byte{0xa1, 0x01, 0x02}},
		{Address: address.Event("org", "b"), Kind: address.KindEscrowVault, Body: bytes.Repeat([]byte{7}, 512)},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records, taken))

	hdr, got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, Format, hdr.Format)
	assert.Equal(t, 2, hdr.Count)
	assert.True(t, taken.Equal(hdr.Taken))
	assert.Equal(t, records, got)
}

func TestWriteRead_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, taken))
	hdr, got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, hdr.Count)
	assert.Empty(t, got)
}

func TestRead_RejectsForeignStreams(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte("definitely not zstd")))
	require.Error(t, err)

	// A valid zstd stream whose header is the wrong format.
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, taken))
	raw := buf.Bytes()
	_, _, err = Read(bytes.NewReader(raw[:len(raw)/2]))
	require.Error(t, err)
}

// A ledger exported from memory and imported into SQLite keeps every
// balance and counter.
func TestExportImport_AcrossSubstrates(t *testing.T) {
	ctx := context.Background()
	mem := state.NewMemory()
	l := ledger.New(mem)

	ev, err := l.CreateEvent(ctx, ledger.CreateEventRequest{
		Caller: signers("org"), Authority: "org", ID: "fest", Currency: "USD",
	})
	require.NoError(t, err)
	c, err := l.CreateTicketClass(ctx, ledger.CreateTicketClassRequest{
		Caller: signers("org"), Event: ev.Address, Seed: "ga", Price: 4, Quantity: 10, UsesPerTicket: 1,
	})
	require.NoError(t, err)
	_, err = l.Fund(ctx, ledger.FundRequest{Currency: "USD", Owner: "alice", Amount: 20})
	require.NoError(t, err)
	tickets, err := l.Sell(ctx, ledger.SellRequest{Caller: signers("alice"), Buyer: "alice", Class: c.Address, Quantity: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := Export(ctx, mem, &buf, taken)
	require.NoError(t, err)
	assert.Positive(t, n)

	db, err := store.Open(filepath.Join(t.TempDir(), "imported.db"))
	require.NoError(t, err)
	defer db.Close()
	hdr, err := Import(ctx, db, &buf)
	require.NoError(t, err)
	assert.Equal(t, n, hdr.Count)

	restored := ledger.New(db)
	bal, err := restored.Balance(ctx, "USD", "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), bal)

	got, err := restored.GetTicketClass(ctx, c.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Sold)

	tk, err := restored.GetTicket(ctx, tickets[1].Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tk.Serial)

	_, err = restored.Audit(ctx, ev.Address)
	require.NoError(t, err)

	want, err := mem.Records(ctx)
	require.NoError(t, err)
	have, err := db.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, have)
}

func signers(names ...string) identity.Signers { return identity.Of(names...) }
