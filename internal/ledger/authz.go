package ledger

import (
	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
)

// The predicates below are pure: they decide from the signer set and
// entity fields alone and never touch state. Each mutating operation
// calls exactly one of them before it validates anything else.

// authorizeAuthority admits the event authority. Used for event
// administration: collaborators and ticket classes.
func authorizeAuthority(caller identity.Signers, ev *Event) error {
	if !caller.Has(ev.Authority) {
		return reject(CodeUnauthorized, ev.Address, "event authority %q must sign", ev.Authority)
	}
	return nil
}

// authorizeWithdraw admits the event authority, with its own code.
func authorizeWithdraw(caller identity.Signers, ev *Event) error {
	if !caller.Has(ev.Authority) {
		return reject(CodeOnlyEventAuthorityCanWithdraw, ev.Address, "event authority %q must sign", ev.Authority)
	}
	return nil
}

// authorizeSelf admits a principal acting on its own funds or tickets.
func authorizeSelf(caller identity.Signers, p identity.Principal, addr address.Address, role string) error {
	if p == "" {
		return reject(CodeInvalidArgument, addr, "%s is required", role)
	}
	if !caller.Has(p) {
		return reject(CodeUnauthorized, addr, "%s %q must sign", role, p)
	}
	return nil
}

// authorizeTransfer admits the current ticket owner.
func authorizeTransfer(caller identity.Signers, t *Ticket) error {
	if !caller.Has(t.Owner) {
		return reject(CodeUnauthorized, t.Address, "ticket owner %q must sign", t.Owner)
	}
	return nil
}

// authorizeCheckIn evaluates a check-in policy. collaborators holds the
// signers that are registered collaborators of the ticket's event.
//
// "Independent signers" means the collaborator requirement of
// owner-and-collaborator is met only by a signer other than the owner:
// an owner who is also door staff cannot admit themself alone.
func authorizeCheckIn(policy CheckInPolicy, caller identity.Signers, t *Ticket, collaborators identity.Signers) error {
	owner := caller.Has(t.Owner)
	anyCollaborator := len(collaborators) > 0
	otherCollaborator := false
	for p := range collaborators {
		if p != t.Owner {
			otherCollaborator = true
			break
		}
	}

	var ok bool
	switch policy {
	case PolicyOwner:
		ok = owner
	case PolicyCollaborator:
		ok = anyCollaborator
	case PolicyOwnerAndCollaborator:
		ok = owner && otherCollaborator
	default:
		ok = owner || anyCollaborator
	}
	if !ok {
		return reject(CodeUnauthorized, t.Address, "check-in policy %s not satisfied by %s", policy, describe(caller))
	}
	return nil
}

func describe(caller identity.Signers) string {
	if len(caller) == 0 {
		return "no signers"
	}
	return caller.String()
}
