package ledger

import (
	"context"
	"fmt"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/metadata"
	"github.com/roach88/turnstile/internal/state"
)

// CheckInRequest redeems Quantity uses of Ticket.
type CheckInRequest struct {
	Caller identity.Signers
	Ticket address.Address
	// Quantity defaults to 1.
	Quantity uint64
}

// CheckIn redeems uses of a ticket whose class has no proof of
// attendance. Who may call it is the event's CheckInPolicy. Redemption
// is irreversible.
func (l *Ledger) CheckIn(ctx context.Context, req CheckInRequest) (*Ticket, error) {
	t, _, err := l.checkIn(ctx, OpCheckIn, req)
	return t, err
}

// CheckInWithAttendance redeems uses of a ticket whose class issues proof
// of attendance. Owner and a collaborator must both sign. In the same
// transition the owner's credential for the class is created or its
// count incremented by one.
//
// The credential is not idempotent across calls: two successful calls
// are two attended check-ins and count twice.
func (l *Ledger) CheckInWithAttendance(ctx context.Context, req CheckInRequest) (*Ticket, *AttendanceCredential, error) {
	return l.checkIn(ctx, OpCheckInWithAttendance, req)
}

func (l *Ledger) checkIn(ctx context.Context, op string, req CheckInRequest) (*Ticket, *AttendanceCredential, error) {
	q := req.Quantity
	if q == 0 {
		q = 1
	}
	attendance := op == OpCheckInWithAttendance
	att := l.begin(op, req.Caller, req.Ticket, ir.Object{
		"ticket":   ir.String(req.Ticket.String()),
		"quantity": ir.Uint(q),
	})

	// Class and event of a ticket never change, so they can be resolved
	// before the transition to build its scope.
	resolved, err := l.GetTicket(ctx, req.Ticket)
	if err != nil {
		return nil, nil, l.finish(ctx, att, nil, err)
	}
	scope := []address.Address{req.Ticket, resolved.Class, resolved.Event}
	scope = append(scope, collaboratorScope(resolved.Event, req.Caller)...)
	if attendance {
		// The owner must sign an attendance check-in, so the owner's
		// credential is always among the signers' credentials.
		for _, p := range req.Caller.List() {
			scope = append(scope, address.Attendance(resolved.Class, string(p)))
		}
	}

	var (
		t          Ticket
		class      TicketClass
		credential *AttendanceCredential
	)
	err = l.store.Apply(ctx, scope, func(tx state.Tx) error {
		if err := load(tx, req.Ticket, address.KindTicket, &t); err != nil {
			return err
		}
		if err := load(tx, t.Class, address.KindTicketClass, &class); err != nil {
			return err
		}
		var ev Event
		if err := load(tx, t.Event, address.KindEvent, &ev); err != nil {
			return err
		}

		collaborators, err := signingCollaborators(tx, ev.Address, req.Caller)
		if err != nil {
			return err
		}
		policy := ev.CheckInPolicy
		if attendance {
			policy = PolicyOwnerAndCollaborator
		}
		if err := authorizeCheckIn(policy, req.Caller, &t, collaborators); err != nil {
			return err
		}

		switch {
		case attendance && !class.ProofOfAttendance:
			return reject(CodeAttendanceNotEnabled, class.Address, "class %q does not issue proof of attendance", class.Name)
		case !attendance && class.ProofOfAttendance:
			return reject(CodeCheckInRequiresAttendanceFlow, class.Address, "class %q issues proof of attendance", class.Name)
		}

		if t.UsesRemaining == 0 {
			return reject(CodeTicketAlreadyCheckedIn, t.Address, "all %d uses redeemed", t.UsesPerTicket)
		}
		if t.UsesRemaining < q {
			return reject(CodeInsufficientUses, t.Address, "requested %d, %d remaining", q, t.UsesRemaining)
		}

		t.UsesRemaining -= q
		t.CheckedIn = t.UsesRemaining == 0
		class.Used += q

		if attendance {
			credential, err = issueAttendance(tx, &class, t.Owner)
			if err != nil {
				return err
			}
			t.Attendance = &credential.Address
		}

		if err := save(tx, t.Address, address.KindTicket, &t); err != nil {
			return err
		}
		return save(tx, class.Address, address.KindTicketClass, &class)
	})
	if err != nil {
		return nil, nil, l.finish(ctx, att, nil, err)
	}

	result := ir.Object{
		"uses_remaining": ir.Uint(t.UsesRemaining),
		"checked_in":     ir.Bool(t.CheckedIn),
		"class_used":     ir.Uint(class.Used),
	}
	if credential != nil {
		result["attendance"] = ir.String(credential.Address.String())
		result["attendance_count"] = ir.Uint(credential.Count)
	}
	l.finish(ctx, att, result, nil)

	if credential != nil {
		l.publish(ctx, metadata.Document{
			Kind:    address.KindAttendance,
			Address: credential.Address,
			Name:    fmt.Sprintf("Attended %s", class.Name),
			Symbol:  class.Symbol,
			URI:     class.URI,
			Owner:   string(credential.Owner),
			Attributes: map[string]string{
				"count": fmt.Sprint(credential.Count),
			},
		})
	}
	return &t, credential, nil
}

func issueAttendance(tx state.Tx, class *TicketClass, owner identity.Principal) (*AttendanceCredential, error) {
	addr := address.Attendance(class.Address, string(owner))
	cred := &AttendanceCredential{
		Address: addr,
		Class:   class.Address,
		Event:   class.Event,
		Owner:   owner,
	}
	exists, err := state.Exists(tx, addr)
	if err != nil {
		return nil, err
	}
	if exists {
		if err := load(tx, addr, address.KindAttendance, cred); err != nil {
			return nil, err
		}
	}
	cred.Count++
	if err := save(tx, addr, address.KindAttendance, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// GetAttendance reads owner's proof-of-attendance credential for class.
func (l *Ledger) GetAttendance(ctx context.Context, class address.Address, owner identity.Principal) (*AttendanceCredential, error) {
	addr := address.Attendance(class, string(owner))
	var cred AttendanceCredential
	err := l.view(ctx, []address.Address{addr}, func(tx state.Tx) error {
		return load(tx, addr, address.KindAttendance, &cred)
	})
	if err != nil {
		return nil, err
	}
	return &cred, nil
}
