package ledger

import (
	"context"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/state"
)

// CollaboratorRequest grants or revokes Principal's check-in rights on Event.
type CollaboratorRequest struct {
	Caller    identity.Signers
	Event     address.Address
	Principal identity.Principal
}

func (r CollaboratorRequest) args() ir.Object {
	return ir.Object{
		"event":     ir.String(r.Event.String()),
		"principal": ir.String(string(r.Principal)),
	}
}

// CreateCollaborator registers a collaborator. Event authority only.
func (l *Ledger) CreateCollaborator(ctx context.Context, req CollaboratorRequest) (*Collaborator, error) {
	addr := address.Collaborator(req.Event, string(req.Principal))
	att := l.begin(OpCreateCollaborator, req.Caller, addr, req.args())

	collab := &Collaborator{Address: addr, Event: req.Event, Principal: req.Principal}
	err := l.store.Apply(ctx, []address.Address{req.Event, addr}, func(tx state.Tx) error {
		var ev Event
		if err := load(tx, req.Event, address.KindEvent, &ev); err != nil {
			return err
		}
		if err := authorizeAuthority(req.Caller, &ev); err != nil {
			return err
		}
		if err := requireNonEmpty(addr, "principal", string(req.Principal)); err != nil {
			return err
		}
		return create(tx, addr, address.KindCollaborator, collab)
	})
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	l.finish(ctx, att, ir.Object{"collaborator": ir.String(addr.String())}, nil)
	return collab, nil
}

// DeleteCollaborator revokes a collaborator. Event authority only.
// Revocation takes effect for every check-in that commits after it.
func (l *Ledger) DeleteCollaborator(ctx context.Context, req CollaboratorRequest) error {
	addr := address.Collaborator(req.Event, string(req.Principal))
	att := l.begin(OpDeleteCollaborator, req.Caller, addr, req.args())

	err := l.store.Apply(ctx, []address.Address{req.Event, addr}, func(tx state.Tx) error {
		var ev Event
		if err := load(tx, req.Event, address.KindEvent, &ev); err != nil {
			return err
		}
		if err := authorizeAuthority(req.Caller, &ev); err != nil {
			return err
		}
		var collab Collaborator
		if err := load(tx, addr, address.KindCollaborator, &collab); err != nil {
			return err
		}
		return tx.Delete(addr)
	})
	return l.finish(ctx, att, nil, err)
}

// IsCollaborator reports whether principal may countersign check-ins on event.
func (l *Ledger) IsCollaborator(ctx context.Context, event address.Address, principal identity.Principal) (bool, error) {
	addr := address.Collaborator(event, string(principal))
	var ok bool
	err := l.view(ctx, []address.Address{addr}, func(tx state.Tx) error {
		var err error
		ok, err = state.Exists(tx, addr)
		return err
	})
	return ok, err
}

// collaboratorScope lists the collaborator addresses of every signer, so a
// check-in can test each signer's delegation inside its transition.
func collaboratorScope(event address.Address, caller identity.Signers) []address.Address {
	out := make([]address.Address, 0, len(caller))
	for _, p := range caller.List() {
		out = append(out, address.Collaborator(event, string(p)))
	}
	return out
}

// signingCollaborators returns the signers registered as collaborators.
func signingCollaborators(tx state.Tx, event address.Address, caller identity.Signers) (identity.Signers, error) {
	out := identity.Signers{}
	for _, p := range caller.List() {
		ok, err := state.Exists(tx, address.Collaborator(event, string(p)))
		if err != nil {
			return nil, err
		}
		if ok {
			out[p] = struct{}{}
		}
	}
	return out, nil
}
