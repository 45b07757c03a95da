package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ledger"
)

// Result reports what Apply did. Entities already present are left
// unchanged and listed under Existing.
type Result struct {
	Event    address.Address `json:"event"`
	Created  []string        `json:"created"`
	Existing []string        `json:"existing"`
}

// Apply creates the declared event, collaborators, and classes, in that
// order. It is safe to re-run: ALREADY_EXISTS is recorded, not fatal.
// Any other rejection stops the run and is returned.
//
// Existing entities are not reconciled with the manifest. Changing a
// class's price in the manifest after it was applied has no effect.
func Apply(ctx context.Context, l *ledger.Ledger, m *Manifest, caller identity.Signers) (*Result, error) {
	authority := identity.Principal(m.Event.Authority)
	evAddr := ledger.EventAddress(authority, m.Event.ID)
	res := &Result{Event: evAddr, Created: []string{}, Existing: []string{}}

	record := func(label string, err error) error {
		switch {
		case err == nil:
			res.Created = append(res.Created, label)
			return nil
		case errors.Is(err, ledger.ErrAlreadyExists):
			res.Existing = append(res.Existing, label)
			return nil
		default:
			return fmt.Errorf("apply %s: %w", label, err)
		}
	}

	_, err := l.CreateEvent(ctx, ledger.CreateEventRequest{
		Caller:        caller,
		Authority:     authority,
		ID:            m.Event.ID,
		Title:         m.Event.Title,
		Symbol:        m.Event.Symbol,
		URI:           m.Event.URI,
		Currency:      m.Event.Currency,
		FeeVault:      m.Event.FeeVault,
		CheckInPolicy: ledger.CheckInPolicy(m.Event.CheckInPolicy),
	})
	if err := record("event "+m.Event.ID, err); err != nil {
		return res, err
	}

	for _, p := range m.Collaborators {
		_, err := l.CreateCollaborator(ctx, ledger.CollaboratorRequest{
			Caller:    caller,
			Event:     evAddr,
			Principal: identity.Principal(p),
		})
		if err := record("collaborator "+p, err); err != nil {
			return res, err
		}
	}

	for _, seed := range m.Seeds() {
		c := m.Classes[seed]
		name := c.Name
		if name == "" {
			name = seed
		}
		_, err := l.CreateTicketClass(ctx, ledger.CreateTicketClassRequest{
			Caller:            caller,
			Event:             evAddr,
			Seed:              seed,
			Name:              name,
			Symbol:            c.Symbol,
			URI:               c.URI,
			Price:             c.Price,
			Quantity:          c.Quantity,
			UsesPerTicket:     c.Uses,
			ProofOfAttendance: c.ProofOfAttendance,
		})
		if err := record("class "+seed, err); err != nil {
			return res, err
		}
	}
	return res, nil
}
