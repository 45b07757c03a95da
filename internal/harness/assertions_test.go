package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/ir"
)

func entries(ops ...string) []ir.Entry {
	out := make([]ir.Entry, len(ops))
	for i, op := range ops {
		out[i] = ir.Entry{Seq: int64(i + 1), Op: op, Outcome: ir.OutcomeOK}
	}
	return out
}

func TestAssertTraceCount(t *testing.T) {
	journal := entries("fund", "sell", "sell")
	journal[2].Outcome = "NOT_ENOUGH_TICKETS_AVAILABLE"

	assert.NoError(t, assertTraceCount(journal, Assertion{Op: "sell", Count: 2}))
	assert.NoError(t, assertTraceCount(journal, Assertion{Op: "sell", Outcome: "ok", Count: 1}))
	assert.NoError(t, assertTraceCount(journal, Assertion{Op: "check_in", Count: 0}))

	err := assertTraceCount(journal, Assertion{Op: "sell", Count: 3})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceCount, ae.Type)
	assert.Equal(t, "appears 2 time(s)", ae.Actual)
	assert.Contains(t, err.Error(), "journal: fund:ok, sell:ok, sell:NOT_ENOUGH_TICKETS_AVAILABLE")
}

func TestAssertTraceOrder(t *testing.T) {
	journal := entries("create_event", "fund", "sell", "fund", "check_in")

	assert.NoError(t, assertTraceOrder(journal, Assertion{Ops: []string{"create_event", "sell", "check_in"}}))
	assert.NoError(t, assertTraceOrder(journal, Assertion{Ops: []string{"fund", "sell"}}))

	err := assertTraceOrder(journal, Assertion{Ops: []string{"sell", "fund"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before its predecessor")

	err = assertTraceOrder(journal, Assertion{Ops: []string{"withdraw"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAssertions_AgainstLedger(t *testing.T) {
	sc := mustParse(t, `
name: failing_assertions`+festSetup+`
steps:
  - op: sell
    as: [alice]
    args: {class: org/fest/ga}
assertions:
  - type: final_state
    entity: class
    ref: org/fest/ga
    expect: {sold: 2}
  - type: final_state
    entity: class
    ref: org/fest/ga
    expect: {nickname: ga}
  - type: final_state
    entity: ticket
    ref: org/fest/ga/missing
    expect: {serial: 1}
  - type: balance
    ref: USD/alice
    amount: 10
  - type: final_state
    entity: account
    ref: USD/alice
    expect: {balance: 5, owner: alice}
  - type: audit
    ref: org/fest
`)
	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], "sold = 2")
	assert.Contains(t, result.Errors[0], "actual: 1")
	assert.Contains(t, result.Errors[1], "actual: absent")
	assert.Contains(t, result.Errors[2], "NOT_FOUND")
	assert.Contains(t, result.Errors[3], "USD/alice holds 10")
}

func TestCanonical_ComparesAcrossSources(t *testing.T) {
	fields, err := jsonFields(map[string]any{"n": uint64(7), "ok": true, "list": []string{"a"}})
	require.NoError(t, err)

	for key, want := range map[string]any{"n": 7, "ok": true, "list": []any{"a"}} {
		w, err := canonical(want)
		require.NoError(t, err)
		g, err := canonical(fields[key])
		require.NoError(t, err)
		assert.Equal(t, w, g, key)
	}
}
