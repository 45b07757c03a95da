// Package identity establishes "caller is principal P".
//
// The ledger never checks signatures itself: it receives a Signers set
// that some verification step has already produced. Envelope and Keyring
// are that step for callers who submit signed payloads; the CLI, a local
// operator tool, builds Signers straight from its --as flags.
package identity

import (
	"slices"
	"strings"
)

// Principal names an actor: an organizer, an attendee, door staff.
type Principal string

// Signers is the set of principals that authorized one operation.
// The zero value is an empty set.
type Signers map[Principal]struct{}

// NewSigners builds a set. Empty principals are dropped.
func NewSigners(principals ...Principal) Signers {
	s := make(Signers, len(principals))
	for _, p := range principals {
		if p != "" {
			s[p] = struct{}{}
		}
	}
	return s
}

// Of is NewSigners over plain strings.
func Of(names ...string) Signers {
	s := make(Signers, len(names))
	for _, n := range names {
		if n != "" {
			s[Principal(n)] = struct{}{}
		}
	}
	return s
}

// Has reports whether p signed.
func (s Signers) Has(p Principal) bool {
	if p == "" {
		return false
	}
	_, ok := s[p]
	return ok
}

// List returns the principals in sorted order.
func (s Signers) List() []Principal {
	out := make([]Principal, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Strings returns the principals as sorted strings, for journaling.
func (s Signers) Strings() []string {
	out := make([]string, 0, len(s))
	for _, p := range s.List() {
		out = append(out, string(p))
	}
	return out
}

func (s Signers) String() string {
	return strings.Join(s.Strings(), "+")
}
