// Package harness runs ledger scenarios written in YAML.
//
// A scenario drives a fresh in-memory ledger through setup steps, which
// must succeed, and test steps, whose outcome codes are checked, then
// evaluates assertions over the journal and the final entity state.
//
// # Scenario Format
//
//	name: sold_out
//	description: "A second sale of a one-ticket class fails"
//	setup:
//	  - op: create_event
//	    as: [org]
//	    args: {id: fest, currency: USD}
//	  - op: create_ticket_class
//	    as: [org]
//	    args: {event: org/fest, seed: ga, price: 5, quantity: 1}
//	  - op: fund
//	    args: {currency: USD, owner: alice, amount: 10}
//	steps:
//	  - op: sell
//	    as: [alice]
//	    args: {class: org/fest/ga}
//	  - op: sell
//	    as: [alice]
//	    args: {class: org/fest/ga}
//	    expect: {code: NOT_ENOUGH_TICKETS_AVAILABLE}
//	assertions:
//	  - type: final_state
//	    entity: class
//	    ref: org/fest/ga
//	    expect: {sold: 1}
//
// # References
//
// Entities are named by path instead of address, as package ref
// resolves them: "org/fest/ga" is class ga of event fest under
// authority org. Tickets sold without explicit seeds get "ticket-1",
// "ticket-2", ... in sale order across the scenario.
//
// # Signing
//
// The principals listed under "as" each sign the step with their dev
// key (identity.DevKey), and the ledger sees the verified signer set.
//
// # Assertion Types
//
//   - trace_count: op appears N times in the journal, optionally with a
//     given outcome
//   - trace_order: ops first appear in the given order
//   - final_state: the referenced entity's fields match expect (subset)
//   - balance: an account holds exactly amount
//   - audit: the event's books balance
//
// # Determinism
//
// Journal timestamps come from testutil.DeterministicClock and ticket
// seeds from testutil.SequenceSeeds, so a scenario produces the same
// trace on every run and traces can be compared against golden files.
package harness
