package ledger

import (
	"fmt"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
)

// CheckInPolicy decides who may redeem a ticket at the door.
type CheckInPolicy string

const (
	// PolicyOwnerOrCollaborator admits the ticket owner alone or a
	// registered collaborator alone.
	PolicyOwnerOrCollaborator CheckInPolicy = "owner-or-collaborator"

	// PolicyOwner requires the ticket owner.
	PolicyOwner CheckInPolicy = "owner"

	// PolicyCollaborator requires a registered collaborator.
	PolicyCollaborator CheckInPolicy = "collaborator"

	// PolicyOwnerAndCollaborator requires the owner and a collaborator
	// as independent signers. Attendance check-ins always use it.
	PolicyOwnerAndCollaborator CheckInPolicy = "owner-and-collaborator"
)

// DefaultCheckInPolicy applies when an event is created without one.
const DefaultCheckInPolicy = PolicyOwnerOrCollaborator

// ParseCheckInPolicy validates a policy name. Empty means the default.
func ParseCheckInPolicy(s string) (CheckInPolicy, error) {
	switch p := CheckInPolicy(s); p {
	case "":
		return DefaultCheckInPolicy, nil
	case PolicyOwnerOrCollaborator, PolicyOwner, PolicyCollaborator, PolicyOwnerAndCollaborator:
		return p, nil
	default:
		return "", fmt.Errorf("unknown check-in policy %q", s)
	}
}

// Event is the top-level aggregate. Authority, Currency, and the vault
// addresses are fixed at creation.
type Event struct {
	Address        address.Address    `json:"address"`
	Authority      identity.Principal `json:"authority"`
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Symbol         string             `json:"symbol,omitempty"`
	URI            string             `json:"uri,omitempty"`
	Currency       string             `json:"currency"`
	EscrowVault    address.Address    `json:"escrow_vault"`
	FeeVault       *address.Address   `json:"fee_vault,omitempty"`
	TotalDeposited uint64             `json:"total_deposited"`
	TotalLocked    uint64             `json:"total_locked"`
	CheckInPolicy  CheckInPolicy      `json:"check_in_policy"`
	Classes        []address.Address  `json:"classes"`
}

// Collaborator delegates check-in rights on one event. Its presence is
// the grant.
type Collaborator struct {
	Address   address.Address    `json:"address"`
	Event     address.Address    `json:"event"`
	Principal identity.Principal `json:"principal"`
}

// TicketClass is a priced, bounded catalog entry ("ticket machine").
type TicketClass struct {
	Address           address.Address `json:"address"`
	Event             address.Address `json:"event"`
	Seed              string          `json:"seed"`
	Name              string          `json:"name"`
	Symbol            string          `json:"symbol,omitempty"`
	URI               string          `json:"uri,omitempty"`
	Price             uint64          `json:"price"`
	Quantity          uint64          `json:"quantity"`
	Sold              uint64          `json:"sold"`
	Used              uint64          `json:"used"`
	UsesPerTicket     uint64          `json:"uses_per_ticket"`
	ProofOfAttendance bool            `json:"proof_of_attendance"`
}

// Available is the number of units still for sale.
func (c *TicketClass) Available() uint64 {
	return c.Quantity - c.Sold
}

// Ticket is one sold unit.
type Ticket struct {
	Address       address.Address    `json:"address"`
	Class         address.Address    `json:"class"`
	Event         address.Address    `json:"event"`
	Owner         identity.Principal `json:"owner"`
	Serial        uint64             `json:"serial"`
	UsesRemaining uint64             `json:"uses_remaining"`
	UsesPerTicket uint64             `json:"uses_per_ticket"`
	CheckedIn     bool               `json:"checked_in"`
	Attendance    *address.Address   `json:"attendance,omitempty"`
}

// Untouched reports whether no use has been redeemed.
func (t *Ticket) Untouched() bool {
	return t.UsesRemaining == t.UsesPerTicket
}

// VaultKind distinguishes sale proceeds from refundable deposits.
type VaultKind string

const (
	VaultEscrow VaultKind = "escrow"
	VaultFee    VaultKind = "fee"
)

// Vault holds an event's funds in its accepted currency.
type Vault struct {
	Address        address.Address `json:"address"`
	Event          address.Address `json:"event"`
	Kind           VaultKind       `json:"kind"`
	Currency       string          `json:"currency"`
	Balance        uint64          `json:"balance"`
	TotalCredited  uint64          `json:"total_credited"`
	TotalWithdrawn uint64          `json:"total_withdrawn"`
}

// TokenAccount is one principal's holding of one currency.
type TokenAccount struct {
	Address  address.Address    `json:"address"`
	Owner    identity.Principal `json:"owner"`
	Currency string             `json:"currency"`
	Balance  uint64             `json:"balance"`
}

// AttendanceCredential is a non-transferable proof of attendance, one
// per (class, owner). Count is the number of attended check-ins.
type AttendanceCredential struct {
	Address address.Address    `json:"address"`
	Class   address.Address    `json:"class"`
	Event   address.Address    `json:"event"`
	Owner   identity.Principal `json:"owner"`
	Count   uint64             `json:"count"`
}
