package ledger

import (
	"context"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/metadata"
	"github.com/roach88/turnstile/internal/state"
)

// CreateEventRequest creates an event owned by Authority.
type CreateEventRequest struct {
	Caller    identity.Signers
	Authority identity.Principal
	// ID distinguishes events of the same authority. Together they
	// derive the event address.
	ID            string
	Title         string
	Symbol        string
	URI           string
	Currency      string
	FeeVault      bool
	CheckInPolicy CheckInPolicy
}

// EventAddress derives the address CreateEvent will use.
func EventAddress(authority identity.Principal, id string) address.Address {
	return address.Event(string(authority), id)
}

// CreateEvent creates the event, its escrow vault, and optionally its
// fee vault in one transition. The authority must sign.
func (l *Ledger) CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error) {
	addr := EventAddress(req.Authority, req.ID)
	escrow := address.EscrowVault(addr)
	fee := address.FeeVault(addr)

	att := l.begin(OpCreateEvent, req.Caller, addr, ir.Object{
		"authority":       ir.String(string(req.Authority)),
		"id":              ir.String(req.ID),
		"title":           ir.String(req.Title),
		"currency":        ir.String(req.Currency),
		"fee_vault":       ir.Bool(req.FeeVault),
		"check_in_policy": ir.String(string(req.CheckInPolicy)),
	})

	ev := &Event{
		Address:     addr,
		Authority:   req.Authority,
		ID:          req.ID,
		Title:       req.Title,
		Symbol:      req.Symbol,
		URI:         req.URI,
		Currency:    req.Currency,
		EscrowVault: escrow,
		Classes:     []address.Address{},
	}

	err := l.store.Apply(ctx, []address.Address{addr, escrow, fee}, func(tx state.Tx) error {
		if err := authorizeSelf(req.Caller, req.Authority, addr, "authority"); err != nil {
			return err
		}
		if err := requireNonEmpty(addr, "id", req.ID); err != nil {
			return err
		}
		if err := requireNonEmpty(addr, "currency", req.Currency); err != nil {
			return err
		}
		policy, err := ParseCheckInPolicy(string(req.CheckInPolicy))
		if err != nil {
			return reject(CodeInvalidArgument, addr, "%v", err)
		}
		ev.CheckInPolicy = policy
		if req.FeeVault {
			ev.FeeVault = &fee
		}

		if err := create(tx, addr, address.KindEvent, ev); err != nil {
			return err
		}
		if err := create(tx, escrow, address.KindEscrowVault, &Vault{
			Address:  escrow,
			Event:    addr,
			Kind:     VaultEscrow,
			Currency: req.Currency,
		}); err != nil {
			return err
		}
		if !req.FeeVault {
			return nil
		}
		return create(tx, fee, address.KindFeeVault, &Vault{
			Address:  fee,
			Event:    addr,
			Kind:     VaultFee,
			Currency: req.Currency,
		})
	})
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}

	l.finish(ctx, att, ir.Object{"event": ir.String(addr.String())}, nil)
	l.publish(ctx, metadata.Document{
		Kind:    address.KindEvent,
		Address: addr,
		Name:    ev.Title,
		Symbol:  ev.Symbol,
		URI:     ev.URI,
		Owner:   string(ev.Authority),
	})
	return ev, nil
}

// GetEvent reads an event.
func (l *Ledger) GetEvent(ctx context.Context, addr address.Address) (*Event, error) {
	return l.eventFor(ctx, addr)
}
