package ledger

import (
	"context"
	"fmt"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/metadata"
	"github.com/roach88/turnstile/internal/state"
)

// CreateTicketClassRequest defines a ticket class under Event.
type CreateTicketClassRequest struct {
	Caller identity.Signers
	Event  address.Address
	// Seed distinguishes classes within the event and derives the class
	// address.
	Seed              string
	Name              string
	Symbol            string
	URI               string
	Price             uint64
	Quantity          uint64
	UsesPerTicket     uint64
	ProofOfAttendance bool
}

// TicketClassAddress derives the address CreateTicketClass will use.
func TicketClassAddress(event address.Address, seed string) address.Address {
	return address.TicketClass(event, []byte(seed))
}

// CreateTicketClass registers a class with Sold and Used at zero.
// Event authority only.
func (l *Ledger) CreateTicketClass(ctx context.Context, req CreateTicketClassRequest) (*TicketClass, error) {
	addr := TicketClassAddress(req.Event, req.Seed)
	att := l.begin(OpCreateTicketClass, req.Caller, addr, ir.Object{
		"event":               ir.String(req.Event.String()),
		"seed":                ir.String(req.Seed),
		"name":                ir.String(req.Name),
		"price":               ir.Uint(req.Price),
		"quantity":            ir.Uint(req.Quantity),
		"uses_per_ticket":     ir.Uint(req.UsesPerTicket),
		"proof_of_attendance": ir.Bool(req.ProofOfAttendance),
	})

	class := &TicketClass{
		Address:           addr,
		Event:             req.Event,
		Seed:              req.Seed,
		Name:              req.Name,
		Symbol:            req.Symbol,
		URI:               req.URI,
		Price:             req.Price,
		Quantity:          req.Quantity,
		UsesPerTicket:     req.UsesPerTicket,
		ProofOfAttendance: req.ProofOfAttendance,
	}

	err := l.store.Apply(ctx, []address.Address{req.Event, addr}, func(tx state.Tx) error {
		var ev Event
		if err := load(tx, req.Event, address.KindEvent, &ev); err != nil {
			return err
		}
		if err := authorizeAuthority(req.Caller, &ev); err != nil {
			return err
		}
		if err := requireNonEmpty(addr, "seed", req.Seed); err != nil {
			return err
		}
		if req.UsesPerTicket < 1 {
			return reject(CodeInvalidArgument, addr, "uses per ticket must be at least 1")
		}
		if _, ok := checkedMul(req.Quantity, req.UsesPerTicket); !ok {
			return reject(CodeInvalidArgument, addr, "quantity times uses per ticket overflows")
		}
		if err := create(tx, addr, address.KindTicketClass, class); err != nil {
			return err
		}
		ev.Classes = append(ev.Classes, addr)
		return save(tx, ev.Address, address.KindEvent, &ev)
	})
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}

	l.finish(ctx, att, ir.Object{"class": ir.String(addr.String())}, nil)
	l.publish(ctx, metadata.Document{
		Kind:    address.KindTicketClass,
		Address: addr,
		Name:    class.Name,
		Symbol:  class.Symbol,
		URI:     class.URI,
		Attributes: map[string]string{
			"price":    fmt.Sprint(class.Price),
			"quantity": fmt.Sprint(class.Quantity),
			"uses":     fmt.Sprint(class.UsesPerTicket),
		},
	})
	return class, nil
}

// GetTicketClass reads a ticket class.
func (l *Ledger) GetTicketClass(ctx context.Context, addr address.Address) (*TicketClass, error) {
	var class TicketClass
	err := l.view(ctx, []address.Address{addr}, func(tx state.Tx) error {
		return load(tx, addr, address.KindTicketClass, &class)
	})
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// SellRequest buys Quantity tickets of Class for Buyer.
type SellRequest struct {
	Caller identity.Signers
	Buyer  identity.Principal
	Class  address.Address
	// Quantity defaults to 1.
	Quantity uint64
	// Seeds, when set, must hold one unique seed per unit. Otherwise the
	// ledger's SeedGenerator supplies them.
	Seeds []string
}

// Sell admits a sale only if it fits in the class's remaining quantity.
//
// The availability check, the Sold increment, the buyer debit, the
// escrow credit, and the ticket creation happen in one transition. A
// rejected sale moves no funds and creates no tickets.
func (l *Ledger) Sell(ctx context.Context, req SellRequest) ([]*Ticket, error) {
	n := req.Quantity
	if n == 0 {
		n = 1
	}
	seeds := req.Seeds
	att := l.begin(OpSell, req.Caller, req.Class, ir.Object{
		"class":    ir.String(req.Class.String()),
		"buyer":    ir.String(string(req.Buyer)),
		"quantity": ir.Uint(n),
	})

	if err := authorizeSelf(req.Caller, req.Buyer, req.Class, "buyer"); err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	if len(seeds) > 0 && uint64(len(seeds)) != n {
		return nil, l.finish(ctx, att, nil, reject(CodeInvalidArgument, req.Class,
			"%d seeds for %d tickets", len(seeds), n))
	}

	class, ev, err := l.classFor(ctx, req.Class)
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	// Cheap early rejection; the binding check is repeated inside the
	// transition against the locked counter.
	if n > class.Available() {
		return nil, l.finish(ctx, att, nil, notEnough(class, n))
	}
	if len(seeds) == 0 {
		seeds = make([]string, n)
		for i := range seeds {
			seeds[i] = l.seeds.Generate()
		}
	}
	att.args["seeds"] = ir.Strings(seeds)

	ticketAddrs := make([]address.Address, len(seeds))
	for i, seed := range seeds {
		ticketAddrs[i] = address.Ticket(req.Class, []byte(seed))
	}
	scope := append([]address.Address{
		req.Class,
		ev.EscrowVault,
		accountAddress(ev.Currency, req.Buyer),
	}, ticketAddrs...)

	var tickets []*Ticket
	err = l.store.Apply(ctx, scope, func(tx state.Tx) error {
		var c TicketClass
		if err := load(tx, req.Class, address.KindTicketClass, &c); err != nil {
			return err
		}
		if n > c.Available() {
			return notEnough(&c, n)
		}
		cost, ok := checkedMul(c.Price, n)
		if !ok {
			return reject(CodeInvalidArgument, req.Class, "price %d times %d overflows", c.Price, n)
		}

		var escrow Vault
		if err := load(tx, ev.EscrowVault, address.KindEscrowVault, &escrow); err != nil {
			return err
		}
		buyer, err := debit(tx, ev.Currency, req.Buyer, cost)
		if err != nil {
			return err
		}
		if err := creditVault(&escrow, cost); err != nil {
			return err
		}

		tickets = make([]*Ticket, 0, n)
		for i, addr := range ticketAddrs {
			t := &Ticket{
				Address:       addr,
				Class:         c.Address,
				Event:         c.Event,
				Owner:         req.Buyer,
				Serial:        c.Sold + uint64(i) + 1,
				UsesRemaining: c.UsesPerTicket,
				UsesPerTicket: c.UsesPerTicket,
			}
			if err := create(tx, addr, address.KindTicket, t); err != nil {
				return err
			}
			tickets = append(tickets, t)
		}
		c.Sold += n

		if err := save(tx, c.Address, address.KindTicketClass, &c); err != nil {
			return err
		}
		if err := save(tx, escrow.Address, address.KindEscrowVault, &escrow); err != nil {
			return err
		}
		if cost == 0 {
			return nil
		}
		return saveAccount(tx, buyer)
	})
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}

	l.finish(ctx, att, ir.Object{
		"tickets": ticketList(tickets),
		"sold":    ir.Uint(tickets[len(tickets)-1].Serial),
	}, nil)
	for _, t := range tickets {
		l.publish(ctx, metadata.Document{
			Kind:    address.KindTicket,
			Address: t.Address,
			Name:    fmt.Sprintf("%s #%d", class.Name, t.Serial),
			Symbol:  class.Symbol,
			URI:     class.URI,
			Owner:   string(t.Owner),
		})
	}
	return tickets, nil
}

// classFor reads a class and its event outside any write. Only fields
// fixed at creation may be relied on from the result.
func (l *Ledger) classFor(ctx context.Context, addr address.Address) (*TicketClass, *Event, error) {
	class, err := l.GetTicketClass(ctx, addr)
	if err != nil {
		return nil, nil, err
	}
	ev, err := l.eventFor(ctx, class.Event)
	if err != nil {
		return nil, nil, err
	}
	return class, ev, nil
}

func notEnough(c *TicketClass, n uint64) *Error {
	return reject(CodeNotEnoughTicketsAvailable, c.Address,
		"requested %d, %d of %d remaining", n, c.Available(), c.Quantity)
}

func ticketList(tickets []*Ticket) ir.Array {
	out := make(ir.Array, len(tickets))
	for i, t := range tickets {
		out[i] = ir.String(t.Address.String())
	}
	return out
}
