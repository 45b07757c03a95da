package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
)

func TestCreateEvent_CreatesVaults(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, "")

	assert.Equal(t, EventAddress(organizer, "fest"), ev.Address)
	assert.Equal(t, organizer, ev.Authority)
	assert.Equal(t, DefaultCheckInPolicy, ev.CheckInPolicy)
	assert.Equal(t, address.EscrowVault(ev.Address), ev.EscrowVault)
	require.NotNil(t, ev.FeeVault)

	escrow := f.vault(t, ev.EscrowVault)
	assert.Equal(t, VaultEscrow, escrow.Kind)
	assert.Equal(t, currency, escrow.Currency)
	assert.Equal(t, uint64(0), escrow.Balance)

	fee := f.vault(t, *ev.FeeVault)
	assert.Equal(t, VaultFee, fee.Kind)

	got, err := f.GetEvent(context.Background(), ev.Address)
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	docs := f.published.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, address.KindEvent, docs[0].Kind)
	assert.Equal(t, "Summer Fest", docs[0].Name)
}

func TestCreateEvent_WithoutFeeVault(t *testing.T) {
	f := newFixture(t)
	ev, err := f.CreateEvent(context.Background(), CreateEventRequest{
		Caller: signers(organizer), Authority: organizer, ID: "small", Currency: currency,
		CheckInPolicy: PolicyOwner,
	})
	require.NoError(t, err)
	assert.Nil(t, ev.FeeVault)
	assert.Equal(t, PolicyOwner, ev.CheckInPolicy)

	_, err = f.GetVault(context.Background(), address.FeeVault(ev.Address))
	requireCode(t, err, CodeNotFound)
}

func TestCreateEvent_Rejections(t *testing.T) {
	f := newFixture(t)
	f.event(t, "")

	tests := []struct {
		name string
		req  CreateEventRequest
		code Code
	}{
		{"replay", CreateEventRequest{Caller: signers(organizer), Authority: organizer, ID: "fest", Currency: currency}, CodeAlreadyExists},
		{"authority did not sign", CreateEventRequest{Caller: signers(alice), Authority: organizer, ID: "other", Currency: currency}, CodeUnauthorized},
		{"no authority", CreateEventRequest{Caller: signers(alice), ID: "other", Currency: currency}, CodeInvalidArgument},
		{"no id", CreateEventRequest{Caller: signers(organizer), Authority: organizer, Currency: currency}, CodeInvalidArgument},
		{"no currency", CreateEventRequest{Caller: signers(organizer), Authority: organizer, ID: "other"}, CodeInvalidArgument},
		{"unknown policy", CreateEventRequest{Caller: signers(organizer), Authority: organizer, ID: "other", Currency: currency, CheckInPolicy: "anyone"}, CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.records(t)
			_, err := f.CreateEvent(context.Background(), tt.req)
			requireCode(t, err, tt.code)
			assert.Equal(t, before, f.records(t))
		})
	}
}

func TestCreateEvent_SameIDDifferentAuthorities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.CreateEvent(ctx, CreateEventRequest{Caller: signers(alice), Authority: alice, ID: "party", Currency: currency})
	require.NoError(t, err)
	b, err := f.CreateEvent(ctx, CreateEventRequest{Caller: signers(bob), Authority: bob, ID: "party", Currency: currency})
	require.NoError(t, err)
	assert.NotEqual(t, a.Address, b.Address)
	assert.NotEqual(t, a.EscrowVault, b.EscrowVault)
}

func TestPublisherFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.published.Err = errors.New("metadata service down")

	ev := f.event(t, "")
	c := f.class(t, ev, classSpec{quantity: 1})
	tickets := f.buy(t, alice, c.Address, 1)
	assert.Len(t, tickets, 1)
	assert.Empty(t, f.published.Documents())
}

func TestCollaborators(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, "")
	ctx := context.Background()
	add := func(caller identity.Signers, p identity.Principal) error {
		_, err := f.CreateCollaborator(ctx, CollaboratorRequest{Caller: caller, Event: ev.Address, Principal: p})
		return err
	}
	remove := func(caller identity.Signers, p identity.Principal) error {
		return f.DeleteCollaborator(ctx, CollaboratorRequest{Caller: caller, Event: ev.Address, Principal: p})
	}
	is := func(p identity.Principal) bool {
		ok, err := f.IsCollaborator(ctx, ev.Address, p)
		require.NoError(t, err)
		return ok
	}

	require.NoError(t, add(signers(organizer), door))
	assert.True(t, is(door))
	assert.False(t, is(alice))
	assert.False(t, is(organizer))

	requireCode(t, add(signers(organizer), door), CodeAlreadyExists)
	requireCode(t, add(signers(door), alice), CodeUnauthorized)
	requireCode(t, add(signers(organizer), ""), CodeInvalidArgument)
	requireCode(t, remove(signers(door), door), CodeUnauthorized)
	requireCode(t, remove(signers(organizer), alice), CodeNotFound)

	require.NoError(t, remove(signers(organizer), door))
	assert.False(t, is(door))
	requireCode(t, remove(signers(organizer), door), CodeNotFound)

	// A removed collaborator can be added back.
	require.NoError(t, add(signers(organizer), door))
	assert.True(t, is(door))
}
