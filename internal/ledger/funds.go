package ledger

import (
	"context"
	"math/bits"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/state"
)

// The fungible transfer primitive. Token accounts live in the same
// substrate as tickets, so a sale's debit, credit, and counter update
// share one transition.

func accountAddress(currency string, owner identity.Principal) address.Address {
	return address.Account(address.Currency(currency), string(owner))
}

func checkedAdd(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

func checkedMul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// loadAccount reads an account; a missing account is an empty balance.
func loadAccount(tx state.Tx, currency string, owner identity.Principal) (*TokenAccount, error) {
	addr := accountAddress(currency, owner)
	acct := TokenAccount{Address: addr, Owner: owner, Currency: currency}
	exists, err := state.Exists(tx, addr)
	if err != nil {
		return nil, err
	}
	if exists {
		if err := load(tx, addr, address.KindAccount, &acct); err != nil {
			return nil, err
		}
	}
	return &acct, nil
}

// debit checks and subtracts amount from owner's account.
func debit(tx state.Tx, currency string, owner identity.Principal, amount uint64) (*TokenAccount, error) {
	acct, err := loadAccount(tx, currency, owner)
	if err != nil {
		return nil, err
	}
	if amount > acct.Balance {
		return nil, reject(CodeInsufficientBalance, acct.Address,
			"%s holds %d %s, needs %d", owner, acct.Balance, currency, amount)
	}
	acct.Balance -= amount
	return acct, nil
}

// credit adds amount to owner's account, creating it if needed.
func credit(tx state.Tx, currency string, owner identity.Principal, amount uint64) (*TokenAccount, error) {
	acct, err := loadAccount(tx, currency, owner)
	if err != nil {
		return nil, err
	}
	sum, ok := checkedAdd(acct.Balance, amount)
	if !ok {
		return nil, reject(CodeInvalidArgument, acct.Address, "balance would overflow")
	}
	acct.Balance = sum
	return acct, nil
}

func saveAccount(tx state.Tx, acct *TokenAccount) error {
	return save(tx, acct.Address, address.KindAccount, acct)
}

// creditVault adds amount to a vault's balance and lifetime credits.
func creditVault(v *Vault, amount uint64) error {
	balance, ok := checkedAdd(v.Balance, amount)
	if !ok {
		return reject(CodeInvalidArgument, v.Address, "vault balance would overflow")
	}
	total, ok := checkedAdd(v.TotalCredited, amount)
	if !ok {
		return reject(CodeInvalidArgument, v.Address, "vault credits would overflow")
	}
	v.Balance, v.TotalCredited = balance, total
	return nil
}

// FundRequest mints test funds into an account.
type FundRequest struct {
	Currency string
	Owner    identity.Principal
	Amount   uint64
}

// Fund is the development faucet: it credits Owner with Amount of
// Currency out of thin air. It exists so the CLI and scenarios can give
// buyers something to spend; there is no production mint.
func (l *Ledger) Fund(ctx context.Context, req FundRequest) (*TokenAccount, error) {
	addr := accountAddress(req.Currency, req.Owner)
	att := l.begin(OpFund, nil, addr, ir.Object{
		"currency": ir.String(req.Currency),
		"owner":    ir.String(string(req.Owner)),
		"amount":   ir.Uint(req.Amount),
	})

	var acct *TokenAccount
	err := l.store.Apply(ctx, []address.Address{addr}, func(tx state.Tx) error {
		if err := requireNonEmpty(addr, "currency", req.Currency); err != nil {
			return err
		}
		if err := requireNonEmpty(addr, "owner", string(req.Owner)); err != nil {
			return err
		}
		var err error
		if acct, err = credit(tx, req.Currency, req.Owner, req.Amount); err != nil {
			return err
		}
		return saveAccount(tx, acct)
	})
	if err != nil {
		return nil, l.finish(ctx, att, nil, err)
	}
	l.finish(ctx, att, ir.Object{"balance": ir.Uint(acct.Balance)}, nil)
	return acct, nil
}

// Balance returns owner's holding of currency. Unknown accounts hold 0.
func (l *Ledger) Balance(ctx context.Context, currency string, owner identity.Principal) (uint64, error) {
	addr := accountAddress(currency, owner)
	var acct *TokenAccount
	err := l.view(ctx, []address.Address{addr}, func(tx state.Tx) error {
		var err error
		acct, err = loadAccount(tx, currency, owner)
		return err
	})
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}
