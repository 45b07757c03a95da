package address

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveDeterministic(t *testing.T) {
	event := Event("alice", "fest-2026")

	assert.Equal(t, event, Event("alice", "fest-2026"))
	assert.Equal(t, TicketClass(event, []byte("ga")), TicketClass(event, []byte("ga")))
	assert.False(t, event.IsZero())
}

func TestDeriveInjectiveWithinParent(t *testing.T) {
	event := Event("alice", "fest")
	class := TicketClass(event, []byte("ga"))

	seen := make(map[Address]string)
	for i := range 2000 {
		seed := fmt.Sprintf("unit-%d", i)
		addr := Ticket(class, []byte(seed))
		if prev, ok := seen[addr]; ok {
			t.Fatalf("seeds %q and %q collide on %s", prev, seed, addr)
		}
		seen[addr] = seed
	}
}

func TestDeriveSeparatesKinds(t *testing.T) {
	event := Event("alice", "fest")
	seed := []byte("x")

	addrs := map[Address]Kind{}
	for _, k := range []Kind{KindTicketClass, KindTicket, KindCollaborator, KindAttendance, KindAccount} {
		addr := Derive(event, k, seed)
		if other, ok := addrs[addr]; ok {
			t.Fatalf("kinds %s and %s collide", other, k)
		}
		addrs[addr] = k
	}
	assert.NotEqual(t, EscrowVault(event), FeeVault(event))
}

func TestDeriveSeparatesParents(t *testing.T) {
	a := Event("alice", "fest")
	b := Event("bob", "fest")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, TicketClass(a, []byte("ga")), TicketClass(b, []byte("ga")))
}

func TestSeedLengthPrefixed(t *testing.T) {
	assert.NotEqual(t, Seed([]byte("ab"), []byte("c")), Seed([]byte("a"), []byte("bc")))
	assert.NotEqual(t, Event("ab", "c"), Event("a", "bc"))
}

func TestDeriveUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() { Derive(Root, Kind(200), nil) })
}

func TestParseRoundTrip(t *testing.T) {
	addr := Currency("USD")

	parsed, err := Parse(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	text, err := addr.MarshalText()
	require.NoError(t, err)
	var decoded Address
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, addr, decoded)
	assert.Len(t, addr.Short(), 8)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 64 hex characters")

	_, err = Parse(fmt.Sprintf("%064s", "zz"))
	require.Error(t, err)
}

func TestCompare(t *testing.T) {
	var a, b Address
	b[31] = 1

	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, 0, Compare(a, a))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "ticket_class", KindTicketClass.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestKindText(t *testing.T) {
	text, err := KindEscrowVault.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "escrow_vault", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText(text))
	assert.Equal(t, KindEscrowVault, k)
	assert.Error(t, k.UnmarshalText([]byte("nope")))
}
