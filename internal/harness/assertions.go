package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/ledger"
	"github.com/roach88/turnstile/internal/ref"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	// Ops is the journal in order, for context.
	Ops []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  actual: %s", e.Actual)
	if len(e.Ops) > 0 {
		fmt.Fprintf(&buf, "\n  journal: %s", strings.Join(e.Ops, ", "))
	}
	return buf.String()
}

// reader loads the entity a reference names.
type reader func(ctx context.Context, l *ledger.Ledger, name string) (any, error)

var readers = map[string]reader{
	"event": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		addr, err := ref.Event(name)
		if err != nil {
			return nil, err
		}
		return l.GetEvent(ctx, addr)
	},
	"class": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		addr, err := ref.Class(name)
		if err != nil {
			return nil, err
		}
		return l.GetTicketClass(ctx, addr)
	},
	"ticket": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		addr, err := ref.Ticket(name)
		if err != nil {
			return nil, err
		}
		return l.GetTicket(ctx, addr)
	},
	"vault": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		addr, err := ref.Vault(name)
		if err != nil {
			return nil, err
		}
		return l.GetVault(ctx, addr)
	},
	"account": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		currency, owner, err := ref.Account(name)
		if err != nil {
			return nil, err
		}
		balance, err := l.Balance(ctx, currency, owner)
		if err != nil {
			return nil, err
		}
		return map[string]any{"currency": currency, "owner": owner, "balance": balance}, nil
	},
	"attendance": func(ctx context.Context, l *ledger.Ledger, name string) (any, error) {
		class, owner, err := ref.Attendance(name)
		if err != nil {
			return nil, err
		}
		return l.GetAttendance(ctx, class, owner)
	},
}

// evaluate checks every assertion and returns the failure messages.
func (h *Harness) evaluate(ctx context.Context, assertions []Assertion, journal []ir.Entry) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(journal, a)
		case AssertTraceOrder:
			err = assertTraceOrder(journal, a)
		case AssertFinalState:
			err = assertFinalState(ctx, h.ledger, a)
		case AssertBalance:
			err = assertBalance(ctx, h.ledger, a)
		case AssertAudit:
			err = assertAudit(ctx, h.ledger, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func journalOps(journal []ir.Entry) []string {
	ops := make([]string, len(journal))
	for i, e := range journal {
		ops[i] = e.Op + ":" + e.Outcome
	}
	return ops
}

// assertTraceCount counts journal entries for an op, optionally only
// those with a given outcome. Read-only ops are never journaled.
func assertTraceCount(journal []ir.Entry, a Assertion) error {
	count := 0
	for _, e := range journal {
		if e.Op == a.Op && (a.Outcome == "" || e.Outcome == a.Outcome) {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	what := a.Op
	if a.Outcome != "" {
		what += " with outcome " + a.Outcome
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s appears %d time(s)", what, a.Count),
		Actual:   fmt.Sprintf("appears %d time(s)", count),
		Ops:      journalOps(journal),
	}
}

// assertTraceOrder checks that ops first appear in the given order.
// Other entries may come between them.
func assertTraceOrder(journal []ir.Entry, a Assertion) error {
	positions := make(map[string]int)
	for i, e := range journal {
		if _, seen := positions[e.Op]; !seen {
			positions[e.Op] = i
		}
	}

	prev := -1
	for _, op := range a.Ops {
		pos, ok := positions[op]
		if !ok {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("%s in journal", op),
				Actual:   "not found",
				Ops:      journalOps(journal),
			}
		}
		if pos < prev {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("order %s", strings.Join(a.Ops, " < ")),
				Actual:   fmt.Sprintf("%s first appears at %d, before its predecessor", op, pos+1),
				Ops:      journalOps(journal),
			}
		}
		prev = pos
	}
	return nil
}

// assertFinalState reads an entity and compares the expected fields
// against its JSON form. Fields not named in expect are ignored.
func assertFinalState(ctx context.Context, l *ledger.Ledger, a Assertion) error {
	read, ok := readers[a.Entity]
	if !ok {
		return fmt.Errorf("unknown entity %q", a.Entity)
	}
	entity, err := read(ctx, l, a.Ref)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", a.Entity, a.Ref, err)
	}
	fields, err := jsonFields(entity)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", a.Entity, a.Ref, err)
	}

	for _, key := range sortedKeys(a.Expect) {
		want, err := canonical(a.Expect[key])
		if err != nil {
			return fmt.Errorf("expect.%s: %w", key, err)
		}
		raw, present := fields[key]
		got := "absent"
		if present && raw != nil {
			if got, err = canonical(raw); err != nil {
				return fmt.Errorf("%s.%s: %w", a.Entity, key, err)
			}
		}
		if got != want {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s %s %s = %s", a.Entity, a.Ref, key, want),
				Actual:   got,
			}
		}
	}
	return nil
}

func assertBalance(ctx context.Context, l *ledger.Ledger, a Assertion) error {
	currency, owner, err := ref.Account(a.Ref)
	if err != nil {
		return err
	}
	balance, err := l.Balance(ctx, currency, owner)
	if err != nil {
		return err
	}
	if balance != *a.Amount {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("%s holds %d", a.Ref, *a.Amount),
			Actual:   fmt.Sprint(balance),
		}
	}
	return nil
}

func assertAudit(ctx context.Context, l *ledger.Ledger, a Assertion) error {
	addr, err := ref.Event(a.Ref)
	if err != nil {
		return err
	}
	report, err := l.Audit(ctx, addr)
	if report == nil {
		return err
	}
	if !report.Balanced() {
		return &AssertionError{
			Type:     AssertAudit,
			Expected: fmt.Sprintf("%s balanced", a.Ref),
			Actual:   strings.Join(report.Problems, "; "),
		}
	}
	return nil
}

// jsonFields returns v's JSON object form with numbers kept exact.
func jsonFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// canonical renders a YAML or JSON value as canonical JSON, so values
// from either side compare as strings.
func canonical(v any) (string, error) {
	val, err := ir.FromAny(v)
	if err != nil {
		return "", err
	}
	data, err := ir.MarshalCanonical(val)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
