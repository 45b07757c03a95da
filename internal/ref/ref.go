// Package ref resolves human-readable entity references to addresses.
//
//	event       <authority>/<id>
//	class       <authority>/<id>/<class seed>
//	ticket      <authority>/<id>/<class seed>/<ticket seed>
//	vault       <authority>/<id>/escrow | <authority>/<id>/fee
//	attendance  <authority>/<id>/<class seed>/<owner>
//	account     <currency>/<owner>
//
// A 64-character hex address is accepted wherever an event, class,
// ticket, or vault reference is.
package ref

import (
	"fmt"
	"strings"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ledger"
)

// split splits a reference into exactly n non-empty parts.
func split(ref string, n int, form string) ([]string, error) {
	parts := strings.Split(ref, "/")
	if len(parts) != n {
		return nil, fmt.Errorf("reference %q: want %s", ref, form)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("reference %q: empty segment", ref)
		}
	}
	return parts, nil
}

func raw(ref string) (address.Address, bool) {
	if len(ref) != 64 {
		return address.Address{}, false
	}
	addr, err := address.Parse(ref)
	return addr, err == nil
}

func event(parts []string) address.Address {
	return ledger.EventAddress(identity.Principal(parts[0]), parts[1])
}

// Event resolves "<authority>/<id>".
func Event(ref string) (address.Address, error) {
	if addr, ok := raw(ref); ok {
		return addr, nil
	}
	parts, err := split(ref, 2, "<authority>/<id>")
	if err != nil {
		return address.Address{}, err
	}
	return event(parts), nil
}

// Class resolves "<authority>/<id>/<class>".
func Class(ref string) (address.Address, error) {
	if addr, ok := raw(ref); ok {
		return addr, nil
	}
	parts, err := split(ref, 3, "<authority>/<id>/<class>")
	if err != nil {
		return address.Address{}, err
	}
	return ledger.TicketClassAddress(event(parts), parts[2]), nil
}

func classAndLeaf(ref, form string) (address.Address, string, error) {
	parts, err := split(ref, 4, form)
	if err != nil {
		return address.Address{}, "", err
	}
	return ledger.TicketClassAddress(event(parts), parts[2]), parts[3], nil
}

// Ticket resolves "<authority>/<id>/<class>/<ticket seed>".
func Ticket(ref string) (address.Address, error) {
	if addr, ok := raw(ref); ok {
		return addr, nil
	}
	class, seed, err := classAndLeaf(ref, "<authority>/<id>/<class>/<ticket seed>")
	if err != nil {
		return address.Address{}, err
	}
	return address.Ticket(class, []byte(seed)), nil
}

// Attendance resolves "<authority>/<id>/<class>/<owner>" to the class
// and owner of a credential.
func Attendance(ref string) (address.Address, identity.Principal, error) {
	class, owner, err := classAndLeaf(ref, "<authority>/<id>/<class>/<owner>")
	if err != nil {
		return address.Address{}, "", err
	}
	return class, identity.Principal(owner), nil
}

// Vault resolves "<authority>/<id>/escrow" or "<authority>/<id>/fee".
func Vault(ref string) (address.Address, error) {
	if addr, ok := raw(ref); ok {
		return addr, nil
	}
	parts, err := split(ref, 3, "<authority>/<id>/escrow|fee")
	if err != nil {
		return address.Address{}, err
	}
	switch parts[2] {
	case "escrow":
		return address.EscrowVault(event(parts)), nil
	case "fee":
		return address.FeeVault(event(parts)), nil
	default:
		return address.Address{}, fmt.Errorf("reference %q: vault must be escrow or fee", ref)
	}
}

// Account resolves "<currency>/<owner>".
func Account(ref string) (string, identity.Principal, error) {
	parts, err := split(ref, 2, "<currency>/<owner>")
	if err != nil {
		return "", "", err
	}
	return parts[0], identity.Principal(parts[1]), nil
}
