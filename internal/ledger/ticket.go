package ledger

import (
	"context"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/state"
)

// GetTicket reads a ticket.
func (l *Ledger) GetTicket(ctx context.Context, addr address.Address) (*Ticket, error) {
	var t Ticket
	err := l.view(ctx, []address.Address{addr}, func(tx state.Tx) error {
		return load(tx, addr, address.KindTicket, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// VerifyOwnership fails with NOT_TICKET_OWNER unless claimed holds the
// ticket right now. Read-only; a door scanner calls it before CheckIn.
func (l *Ledger) VerifyOwnership(ctx context.Context, ticket address.Address, claimed identity.Principal) (*Ticket, error) {
	t, err := l.GetTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if t.Owner != claimed {
		return nil, &Error{
			Code:    CodeNotTicketOwner,
			Op:      "verify_ownership",
			Address: ticket,
			Message: "ticket is not held by " + string(claimed),
		}
	}
	return t, nil
}

// SetAuthorityRequest hands a ticket to NewOwner.
type SetAuthorityRequest struct {
	Caller   identity.Signers
	Ticket   address.Address
	NewOwner identity.Principal
}

// SetAuthority transfers an untouched ticket. The current owner must
// sign; once any use has been redeemed the ticket is bound to its holder.
// Only Owner changes.
func (l *Ledger) SetAuthority(ctx context.Context, req SetAuthorityRequest) (*Ticket, error) {
	att := l.begin(OpSetAuthority, req.Caller, req.Ticket, ir.Object{
		"ticket":    ir.String(req.Ticket.String()),
		"new_owner": ir.String(string(req.NewOwner)),
	})

	var t Ticket
	err := l.store.Apply(ctx, []address.Address{req.Ticket}, func(tx state.Tx) error {
		if err := load(tx, req.Ticket, address.KindTicket, &t); err != nil {
			return err
		}
		if err := authorizeTransfer(req.Caller, &t); err != nil {
			return err
		}
		if err := requireNonEmpty(req.Ticket, "new owner", string(req.NewOwner)); err != nil {
			return err
		}
		if !t.Untouched() {
			return reject(CodeCheckedInTicketsCantChangeAuthority, req.Ticket,
				"%d of %d uses redeemed", t.UsesPerTicket-t.UsesRemaining, t.UsesPerTicket)
		}
		t.Owner = req.NewOwner
		return save(tx, t.Address, address.KindTicket, &t)
	})
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	l.finish(ctx, att, ir.Object{"owner": ir.String(string(t.Owner))}, nil)
	return &t, nil
}
