package ledger

import (
	"context"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/state"
)

// GetVault reads an escrow or fee vault.
func (l *Ledger) GetVault(ctx context.Context, addr address.Address) (*Vault, error) {
	var v Vault
	err := l.view(ctx, []address.Address{addr}, func(tx state.Tx) error {
		kind := address.KindEscrowVault
		if rec, err := tx.Get(addr); err == nil && rec.Kind == address.KindFeeVault {
			kind = address.KindFeeVault
		}
		return load(tx, addr, kind, &v)
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DepositRequest moves From's own funds into Event's fee vault.
type DepositRequest struct {
	Caller identity.Signers
	From   identity.Principal
	Event  address.Address
	Amount uint64
}

// Deposit adds to the event's refundable deposit pool. The depositor
// must sign: they are moving their own funds. Fails NOT_FOUND when the
// event has no fee vault.
func (l *Ledger) Deposit(ctx context.Context, req DepositRequest) (*Vault, error) {
	att := l.begin(OpDeposit, req.Caller, req.Event, ir.Object{
		"event":  ir.String(req.Event.String()),
		"from":   ir.String(string(req.From)),
		"amount": ir.Uint(req.Amount),
	})

	if err := authorizeSelf(req.Caller, req.From, req.Event, "depositor"); err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	ev, err := l.eventFor(ctx, req.Event)
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	if ev.FeeVault == nil {
		return nil, l.finish(ctx, att, nil, reject(CodeNotFound, req.Event, "event has no fee vault"))
	}
	feeAddr := *ev.FeeVault

	var vault Vault
	scope := []address.Address{req.Event, feeAddr, accountAddress(ev.Currency, req.From)}
	err = l.store.Apply(ctx, scope, func(tx state.Tx) error {
		var ev Event
		if err := load(tx, req.Event, address.KindEvent, &ev); err != nil {
			return err
		}
		if req.Amount == 0 {
			return reject(CodeInvalidArgument, req.Event, "amount must be positive")
		}
		if err := load(tx, feeAddr, address.KindFeeVault, &vault); err != nil {
			return err
		}
		from, err := debit(tx, ev.Currency, req.From, req.Amount)
		if err != nil {
			return err
		}
		if err := creditVault(&vault, req.Amount); err != nil {
			return err
		}
		deposited, ok := checkedAdd(ev.TotalDeposited, req.Amount)
		if !ok {
			return reject(CodeInvalidArgument, req.Event, "total deposited would overflow")
		}
		ev.TotalDeposited = deposited
		ev.TotalLocked += req.Amount // bounded by TotalDeposited

		if err := saveAccount(tx, from); err != nil {
			return err
		}
		if err := save(tx, feeAddr, address.KindFeeVault, &vault); err != nil {
			return err
		}
		return save(tx, req.Event, address.KindEvent, &ev)
	})
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	l.finish(ctx, att, ir.Object{"balance": ir.Uint(vault.Balance)}, nil)
	return &vault, nil
}

// WithdrawRequest moves Amount out of one of Event's vaults.
type WithdrawRequest struct {
	Caller identity.Signers
	Event  address.Address
	Amount uint64
	// Destination receives the funds. Defaults to the event authority.
	Destination identity.Principal
}

// Withdraw moves sale proceeds from the escrow vault. Only the event
// authority may withdraw; the amount may not exceed the vault balance.
func (l *Ledger) Withdraw(ctx context.Context, req WithdrawRequest) (*Vault, error) {
	return l.withdraw(ctx, OpWithdraw, req)
}

// WithdrawFees moves deposits out of the fee vault under the same rules
// as Withdraw, and releases them from the event's locked total.
func (l *Ledger) WithdrawFees(ctx context.Context, req WithdrawRequest) (*Vault, error) {
	return l.withdraw(ctx, OpWithdrawFees, req)
}

func (l *Ledger) withdraw(ctx context.Context, op string, req WithdrawRequest) (*Vault, error) {
	fees := op == OpWithdrawFees
	att := l.begin(op, req.Caller, req.Event, ir.Object{
		"event":       ir.String(req.Event.String()),
		"amount":      ir.Uint(req.Amount),
		"destination": ir.String(string(req.Destination)),
	})

	ev, err := l.eventFor(ctx, req.Event)
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	if err := authorizeWithdraw(req.Caller, ev); err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	vaultAddr, vaultKind := ev.EscrowVault, address.KindEscrowVault
	if fees {
		if ev.FeeVault == nil {
			return nil, l.finish(ctx, att, nil, reject(CodeNotFound, req.Event, "event has no fee vault"))
		}
		vaultAddr, vaultKind = *ev.FeeVault, address.KindFeeVault
	}
	dest := req.Destination
	if dest == "" {
		dest = ev.Authority
	}

	var vault Vault
	scope := []address.Address{req.Event, vaultAddr, accountAddress(ev.Currency, dest)}
	err = l.store.Apply(ctx, scope, func(tx state.Tx) error {
		var ev Event
		if err := load(tx, req.Event, address.KindEvent, &ev); err != nil {
			return err
		}
		if req.Amount == 0 {
			return reject(CodeInvalidArgument, vaultAddr, "amount must be positive")
		}
		if err := load(tx, vaultAddr, vaultKind, &vault); err != nil {
			return err
		}
		if req.Amount > vault.Balance {
			return reject(CodeInsufficientBalance, vaultAddr, "vault holds %d, requested %d", vault.Balance, req.Amount)
		}

		to, err := credit(tx, ev.Currency, dest, req.Amount)
		if err != nil {
			return err
		}
		vault.Balance -= req.Amount
		vault.TotalWithdrawn += req.Amount // bounded by TotalCredited

		if fees {
			ev.TotalLocked -= req.Amount
			if err := save(tx, req.Event, address.KindEvent, &ev); err != nil {
				return err
			}
		}
		if err := saveAccount(tx, to); err != nil {
			return err
		}
		return save(tx, vaultAddr, vaultKind, &vault)
	})
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	l.finish(ctx, att, ir.Object{
		"balance":     ir.Uint(vault.Balance),
		"destination": ir.String(string(dest)),
	}, nil)
	return &vault, nil
}
