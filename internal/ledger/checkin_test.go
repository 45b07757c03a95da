package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
)

func (f *fixture) collaborator(t *testing.T, ev *Event, p identity.Principal) {
	t.Helper()
	_, err := f.CreateCollaborator(context.Background(), CollaboratorRequest{
		Caller: signers(ev.Authority), Event: ev.Address, Principal: p,
	})
	require.NoError(t, err)
}

// A three-use ticket: 2 uses, then 2 more is too many, then the last
// one, then nothing left.
func TestCheckIn_MultiUse(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, "")
	c := f.class(t, ev, classSpec{quantity: 5, uses: 3})
	tk := f.buy(t, alice, c.Address, 1)[0]
	ctx := context.Background()

	got, err := f.CheckIn(ctx, CheckInRequest{Caller: signers(alice), Ticket: tk.Address, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.UsesRemaining)
	assert.False(t, got.CheckedIn)

	_, err = f.CheckIn(ctx, CheckInRequest{Caller: signers(alice), Ticket: tk.Address, Quantity: 2})
	requireCode(t, err, CodeInsufficientUses)

	got, err = f.CheckIn(ctx, CheckInRequest{Caller: signers(alice), Ticket: tk.Address})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.UsesRemaining)
	assert.True(t, got.CheckedIn)

	_, err = f.CheckIn(ctx, CheckInRequest{Caller: signers(alice), Ticket: tk.Address})
	requireCode(t, err, CodeTicketAlreadyCheckedIn)

	class, err := f.GetTicketClass(ctx, c.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), class.Used)

	stored, err := f.GetTicket(ctx, tk.Address)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestCheckIn_UsesNeverIncrease(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, "")
	c := f.class(t, ev, classSpec{quantity: 5, uses: 4})
	tk := f.buy(t, alice, c.Address, 1)[0]
	ctx := context.Background()

	prev := tk.UsesRemaining
	for _, q := range []uint64{1, 5, 2, 0, 3, 1, 1} {
		_, _ = f.CheckIn(ctx, CheckInRequest{Caller: signers(alice), Ticket: tk.Address, Quantity: q})
		cur, err := f.GetTicket(ctx, tk.Address)
		require.NoError(t, err)
		assert.LessOrEqual(t, cur.UsesRemaining, prev)
		assert.Equal(t, cur.UsesRemaining == 0, cur.CheckedIn)
		prev = cur.UsesRemaining
	}
	assert.Equal(t, uint64(0), prev)
}

func TestCheckIn_Policies(t *testing.T) {
	cases := []struct {
		policy CheckInPolicy
		allow  map[string]bool
	}{
		{PolicyOwnerOrCollaborator, map[string]bool{"owner": true, "collaborator": true, "both": true}},
		{PolicyOwner, map[string]bool{"owner": true, "both": true}},
		{PolicyCollaborator, map[string]bool{"collaborator": true, "both": true}},
		{PolicyOwnerAndCollaborator, map[string]bool{"both": true}},
	}
	callers := map[string]identity.Signers{
		"owner":        signers(alice),
		"collaborator": signers(door),
		"both":         signers(alice, door),
		"authority":    signers(organizer),
		"stranger":     signers(stranger),
		"nobody":       signers(),
	}

	for _, tc := range cases {
		for who, caller := range callers {
			t.Run(string(tc.policy)+"/"+who, func(t *testing.T) {
				f := newFixture(t)
				ev := f.event(t, tc.policy)
				f.collaborator(t, ev, door)
				c := f.class(t, ev, classSpec{quantity: 1})
				tk := f.buy(t, alice, c.Address, 1)[0]

				_, err := f.CheckIn(context.Background(), CheckInRequest{Caller: caller, Ticket: tk.Address})
				if tc.allow[who] {
					require.NoError(t, err)
					return
				}
				requireCode(t, err, CodeUnauthorized)
				got, err := f.GetTicket(context.Background(), tk.Address)
				require.NoError(t, err)
				assert.Equal(t, uint64(1), got.UsesRemaining)
			})
		}
	}
}

func TestCheckIn_RevokedCollaborator(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, PolicyCollaborator)
	f.collaborator(t, ev, door)
	c := f.class(t, ev, classSpec{quantity: 2})
	tickets := f.buy(t, alice, c.Address, 2)
	ctx := context.Background()

	_, err := f.CheckIn(ctx, CheckInRequest{Caller: signers(door), Ticket: tickets[0].Address})
	require.NoError(t, err)

	require.NoError(t, f.DeleteCollaborator(ctx, CollaboratorRequest{Caller: signers(organizer), Event: ev.Address, Principal: door}))

	_, err = f.CheckIn(ctx, CheckInRequest{Caller: signers(door), Ticket: tickets[1].Address})
	requireCode(t, err, CodeUnauthorized)
}

func TestCheckIn_AttendanceClassNeedsAttendanceFlow(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, "")
	f.collaborator(t, ev, door)
	c := f.class(t, ev, classSpec{quantity: 1, attendance: true})
	tk := f.buy(t, alice, c.Address, 1)[0]

	_, err := f.CheckIn(context.Background(), CheckInRequest{Caller: signers(alice, door), Ticket: tk.Address})
	requireCode(t, err, CodeCheckInRequiresAttendanceFlow)
}

func TestCheckInWithAttendance_IssuesCredential(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, "")
	f.collaborator(t, ev, door)
	c := f.class(t, ev, classSpec{seed: "workshop", quantity: 3, uses: 2, attendance: true})
	tickets := f.buy(t, alice, c.Address, 2)
	ctx := context.Background()

	tk, cred, err := f.CheckInWithAttendance(ctx, CheckInRequest{Caller: signers(alice, door), Ticket: tickets[0].Address})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tk.UsesRemaining)
	assert.Equal(t, address.Attendance(c.Address, string(alice)), cred.Address)
	assert.Equal(t, uint64(1), cred.Count)
	require.NotNil(t, tk.Attendance)
	assert.Equal(t, cred.Address, *tk.Attendance)

	// Each successful attended check-in counts once, whatever the quantity.
	_, cred, err = f.CheckInWithAttendance(ctx, CheckInRequest{Caller: signers(alice, door), Ticket: tickets[1].Address, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cred.Count)

	stored, err := f.GetAttendance(ctx, c.Address, alice)
	require.NoError(t, err)
	assert.Equal(t, cred, stored)

	class, err := f.GetTicketClass(ctx, c.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), class.Used)

	var attended int
	for _, doc := range f.published.Documents() {
		if doc.Kind == address.KindAttendance {
			attended++
		}
	}
	assert.Equal(t, 2, attended)
}

func TestCheckInWithAttendance_Rejections(t *testing.T) {
	f := newFixture(t)
	ev := f.event(t, "")
	f.collaborator(t, ev, door)
	f.collaborator(t, ev, alice)
	poa := f.class(t, ev, classSpec{seed: "poa", quantity: 5, attendance: true})
	plain := f.class(t, ev, classSpec{seed: "plain", quantity: 5})
	poaTicket := f.buy(t, alice, poa.Address, 1)[0]
	plainTicket := f.buy(t, alice, plain.Address, 1)[0]

	tests := []struct {
		name   string
		caller identity.Signers
		ticket address.Address
		code   Code
	}{
		{"owner alone", signers(alice), poaTicket.Address, CodeUnauthorized},
		{"collaborator alone", signers(door), poaTicket.Address, CodeUnauthorized},
		{"owner who is also a collaborator", signers(alice), poaTicket.Address, CodeUnauthorized},
		{"owner and a non-collaborator", signers(alice, stranger), poaTicket.Address, CodeUnauthorized},
		{"class without attendance", signers(alice, door), plainTicket.Address, CodeAttendanceNotEnabled},
		{"unknown ticket", signers(alice, door), address.Ticket(poa.Address, []byte("nope")), CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.records(t)
			_, _, err := f.CheckInWithAttendance(context.Background(), CheckInRequest{Caller: tt.caller, Ticket: tt.ticket})
			requireCode(t, err, tt.code)
			assert.Equal(t, before, f.records(t))
		})
	}
}

func TestCheckIn_SQLite(t *testing.T) {
	f := newSQLiteFixture(t)
	ev := f.event(t, "")
	f.collaborator(t, ev, door)
	c := f.class(t, ev, classSpec{quantity: 2, uses: 2, attendance: true})
	tk := f.buy(t, alice, c.Address, 1)[0]
	ctx := context.Background()

	got, cred, err := f.CheckInWithAttendance(ctx, CheckInRequest{Caller: signers(alice, door), Ticket: tk.Address, Quantity: 2})
	require.NoError(t, err)
	assert.True(t, got.CheckedIn)
	assert.Equal(t, uint64(1), cred.Count)

	_, _, err = f.CheckInWithAttendance(ctx, CheckInRequest{Caller: signers(alice, door), Ticket: tk.Address})
	requireCode(t, err, CodeTicketAlreadyCheckedIn)
}
