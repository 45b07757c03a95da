// Package ledger implements the ticket-issuance and entry-control ledger:
// events, collaborators, ticket classes, sales into escrow, check-in,
// authority transfer, and vault withdrawals.
//
// Every mutating method runs as one state.Store.Apply over a declared
// scope of addresses. Authorization is a pure predicate evaluated first
// inside the transition; every other check follows, and writes happen
// only after all checks pass. A rejection is a *Error carrying a stable
// Code and leaves state untouched.
package ledger
