package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/state"
)

// ErrImbalance is returned by Audit when an event's books do not add up.
var ErrImbalance = errors.New("ledger imbalance")

// ClassAudit is one ticket class's share of an audit.
type ClassAudit struct {
	Address  address.Address `json:"address"`
	Name     string          `json:"name"`
	Sold     uint64          `json:"sold"`
	Quantity uint64          `json:"quantity"`
	Used     uint64          `json:"used"`
	Capacity uint64          `json:"capacity"`
	Revenue  uint64          `json:"revenue"`
}

// AuditReport recomputes an event's escrow and fee totals from its
// ticket classes and compares them with the vault balances.
type AuditReport struct {
	Event          address.Address `json:"event"`
	Revenue        uint64          `json:"revenue"`
	EscrowBalance  uint64          `json:"escrow_balance"`
	EscrowExpected uint64          `json:"escrow_expected"`
	EscrowCredited uint64          `json:"escrow_credited"`
	TotalDeposited uint64          `json:"total_deposited"`
	TotalLocked    uint64          `json:"total_locked"`
	FeeBalance     *uint64         `json:"fee_balance,omitempty"`
	FeeWithdrawn   *uint64         `json:"fee_withdrawn,omitempty"`
	Classes        []ClassAudit    `json:"classes"`
	Problems       []string        `json:"problems,omitempty"`
}

// Balanced reports whether the audit found nothing wrong.
func (r *AuditReport) Balanced() bool {
	return len(r.Problems) == 0
}

// Audit reads the event, its vaults and every ticket class in one
// consistent view and checks:
//
//	escrow.Balance == Σ(sold × price) − escrow.TotalWithdrawn
//	fee.Balance == TotalLocked == TotalDeposited − fee.TotalWithdrawn
//	Sold <= Quantity and Used <= Sold × UsesPerTicket for each class
//
// The report is returned even when unbalanced; the error then wraps
// ErrImbalance.
func (l *Ledger) Audit(ctx context.Context, event address.Address) (*AuditReport, error) {
	ev, err := l.eventFor(ctx, event)
	if err != nil {
		return nil, err
	}
	scope := append([]address.Address{event, ev.EscrowVault}, ev.Classes...)
	if ev.FeeVault != nil {
		scope = append(scope, *ev.FeeVault)
	}

	report := &AuditReport{Event: event}
	err = l.view(ctx, scope, func(tx state.Tx) error {
		// Classes may have been added since the pre-read; only those in
		// scope are audited, and the event is re-read for its totals.
		var cur Event
		if err := load(tx, event, address.KindEvent, &cur); err != nil {
			return err
		}
		report.TotalDeposited = cur.TotalDeposited
		report.TotalLocked = cur.TotalLocked

		for _, addr := range ev.Classes {
			var c TicketClass
			if err := load(tx, addr, address.KindTicketClass, &c); err != nil {
				return err
			}
			ca := ClassAudit{Address: addr, Name: c.Name, Sold: c.Sold, Quantity: c.Quantity, Used: c.Used}
			var ok bool
			if ca.Revenue, ok = checkedMul(c.Sold, c.Price); !ok {
				report.problem("class %s: revenue overflows", addr.Short())
			}
			if ca.Capacity, ok = checkedMul(c.Sold, c.UsesPerTicket); !ok {
				report.problem("class %s: capacity overflows", addr.Short())
			}
			if c.Sold > c.Quantity {
				report.problem("class %s: sold %d exceeds quantity %d", addr.Short(), c.Sold, c.Quantity)
			}
			if c.Used > ca.Capacity {
				report.problem("class %s: used %d exceeds %d redeemable uses", addr.Short(), c.Used, ca.Capacity)
			}
			if report.Revenue, ok = checkedAdd(report.Revenue, ca.Revenue); !ok {
				report.problem("event revenue overflows")
			}
			report.Classes = append(report.Classes, ca)
		}

		var escrow Vault
		if err := load(tx, ev.EscrowVault, address.KindEscrowVault, &escrow); err != nil {
			return err
		}
		report.EscrowBalance = escrow.Balance
		report.EscrowCredited = escrow.TotalCredited
		if escrow.TotalWithdrawn > report.Revenue {
			report.problem("escrow withdrew %d of %d revenue", escrow.TotalWithdrawn, report.Revenue)
		} else {
			report.EscrowExpected = report.Revenue - escrow.TotalWithdrawn
		}
		if escrow.Balance != report.EscrowExpected {
			report.problem("escrow balance %d, expected %d", escrow.Balance, report.EscrowExpected)
		}
		if escrow.TotalCredited != report.Revenue {
			report.problem("escrow credited %d, revenue %d", escrow.TotalCredited, report.Revenue)
		}

		if ev.FeeVault == nil {
			if cur.TotalDeposited != 0 || cur.TotalLocked != 0 {
				report.problem("deposits recorded without a fee vault")
			}
			return nil
		}
		var fee Vault
		if err := load(tx, *ev.FeeVault, address.KindFeeVault, &fee); err != nil {
			return err
		}
		report.FeeBalance = &fee.Balance
		report.FeeWithdrawn = &fee.TotalWithdrawn
		if fee.Balance != cur.TotalLocked {
			report.problem("fee balance %d, locked %d", fee.Balance, cur.TotalLocked)
		}
		if fee.TotalWithdrawn > cur.TotalDeposited || cur.TotalLocked != cur.TotalDeposited-fee.TotalWithdrawn {
			report.problem("locked %d, deposited %d, withdrawn %d", cur.TotalLocked, cur.TotalDeposited, fee.TotalWithdrawn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.Balanced() {
		l.log.WarnContext(ctx, "audit found imbalance", "event", event.Short(), "problems", len(report.Problems))
		return report, fmt.Errorf("%w: %s", ErrImbalance, strings.Join(report.Problems, "; "))
	}
	l.log.DebugContext(ctx, "audit balanced", "event", event.Short(), "revenue", report.Revenue)
	return report, nil
}

func (r *AuditReport) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}
