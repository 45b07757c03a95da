package harness

import (
	"context"

	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ledger"
	"github.com/roach88/turnstile/internal/ref"
)

// call is one step's view of the ledger: the verified signers, the
// first named principal as default actor, and the step's args.
type call struct {
	ctx     context.Context
	l       *ledger.Ledger
	signers identity.Signers
	actor   identity.Principal
	args    *argReader
}

// operation builds a ledger request from args and runs it. It returns
// the reader's error before touching the ledger if args are malformed.
type operation func(c *call) error

var operations = map[string]operation{
	ledger.OpCreateEvent: func(c *call) error {
		req := ledger.CreateEventRequest{
			Caller:        c.signers,
			Authority:     c.args.principal("authority", c.actor),
			ID:            c.args.str("id"),
			Title:         c.args.str("title"),
			Symbol:        c.args.str("symbol"),
			URI:           c.args.str("uri"),
			Currency:      c.args.str("currency"),
			FeeVault:      c.args.bool("fee_vault"),
			CheckInPolicy: ledger.CheckInPolicy(c.args.str("check_in_policy")),
		}
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.CreateEvent(c.ctx, req)
		return err
	},
	ledger.OpCreateCollaborator: func(c *call) error {
		req := collaboratorRequest(c)
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.CreateCollaborator(c.ctx, req)
		return err
	},
	ledger.OpDeleteCollaborator: func(c *call) error {
		req := collaboratorRequest(c)
		if err := c.args.done(); err != nil {
			return err
		}
		return c.l.DeleteCollaborator(c.ctx, req)
	},
	ledger.OpCreateTicketClass: func(c *call) error {
		uses := c.args.uint("uses")
		if _, given := c.args.args["uses"]; !given {
			uses = 1
		}
		req := ledger.CreateTicketClassRequest{
			Caller:            c.signers,
			Event:             c.args.ref("event", ref.Event),
			Seed:              c.args.str("seed"),
			Name:              c.args.str("name"),
			Symbol:            c.args.str("symbol"),
			URI:               c.args.str("uri"),
			Price:             c.args.uint("price"),
			Quantity:          c.args.uint("quantity"),
			UsesPerTicket:     uses,
			ProofOfAttendance: c.args.bool("proof_of_attendance"),
		}
		if req.Name == "" {
			req.Name = req.Seed
		}
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.CreateTicketClass(c.ctx, req)
		return err
	},
	ledger.OpSell: func(c *call) error {
		req := ledger.SellRequest{
			Caller:   c.signers,
			Buyer:    c.args.principal("buyer", c.actor),
			Class:    c.args.ref("class", ref.Class),
			Quantity: c.args.uint("quantity"),
			Seeds:    c.args.strings("seeds"),
		}
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.Sell(c.ctx, req)
		return err
	},
	ledger.OpCheckIn: func(c *call) error {
		req := checkInRequest(c)
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.CheckIn(c.ctx, req)
		return err
	},
	ledger.OpCheckInWithAttendance: func(c *call) error {
		req := checkInRequest(c)
		if err := c.args.done(); err != nil {
			return err
		}
		_, _, err := c.l.CheckInWithAttendance(c.ctx, req)
		return err
	},
	ledger.OpSetAuthority: func(c *call) error {
		req := ledger.SetAuthorityRequest{
			Caller:   c.signers,
			Ticket:   c.args.ref("ticket", ref.Ticket),
			NewOwner: c.args.principal("new_owner", ""),
		}
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.SetAuthority(c.ctx, req)
		return err
	},
	opVerifyOwnership: func(c *call) error {
		ticket := c.args.ref("ticket", ref.Ticket)
		owner := c.args.principal("owner", c.actor)
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.VerifyOwnership(c.ctx, ticket, owner)
		return err
	},
	ledger.OpDeposit: func(c *call) error {
		req := ledger.DepositRequest{
			Caller: c.signers,
			From:   c.args.principal("from", c.actor),
			Event:  c.args.ref("event", ref.Event),
			Amount: c.args.uint("amount"),
		}
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.Deposit(c.ctx, req)
		return err
	},
	ledger.OpWithdraw: func(c *call) error {
		req := withdrawRequest(c)
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.Withdraw(c.ctx, req)
		return err
	},
	ledger.OpWithdrawFees: func(c *call) error {
		req := withdrawRequest(c)
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.WithdrawFees(c.ctx, req)
		return err
	},
	ledger.OpFund: func(c *call) error {
		req := ledger.FundRequest{
			Currency: c.args.str("currency"),
			Owner:    c.args.principal("owner", c.actor),
			Amount:   c.args.uint("amount"),
		}
		if err := c.args.done(); err != nil {
			return err
		}
		_, err := c.l.Fund(c.ctx, req)
		return err
	},
}

// opVerifyOwnership is read-only and never journaled.
const opVerifyOwnership = "verify_ownership"

func collaboratorRequest(c *call) ledger.CollaboratorRequest {
	return ledger.CollaboratorRequest{
		Caller:    c.signers,
		Event:     c.args.ref("event", ref.Event),
		Principal: c.args.principal("principal", ""),
	}
}

func checkInRequest(c *call) ledger.CheckInRequest {
	return ledger.CheckInRequest{
		Caller:   c.signers,
		Ticket:   c.args.ref("ticket", ref.Ticket),
		Quantity: c.args.uint("quantity"),
	}
}

func withdrawRequest(c *call) ledger.WithdrawRequest {
	return ledger.WithdrawRequest{
		Caller:      c.signers,
		Event:       c.args.ref("event", ref.Event),
		Amount:      c.args.uint("amount"),
		Destination: c.args.principal("destination", ""),
	}
}
