package harness

import (
	"github.com/roach88/turnstile/internal/ir"
)

// TraceEvent is one executed step as the scenario wrote it, with the
// outcome the ledger produced.
type TraceEvent struct {
	Seq     int64     `json:"seq"`
	Op      string    `json:"op"`
	As      []string  `json:"as"`
	Args    ir.Object `json:"args"`
	Outcome string    `json:"outcome"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step met its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace lists setup and test steps in execution order.
	Trace []TraceEvent `json:"trace"`

	// Journal is the ledger's journal at the end of the run.
	Journal []ir.Entry `json:"journal,omitempty"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace records an executed step.
func (r *Result) AddTrace(op string, as []string, args ir.Object, outcome string) {
	if as == nil {
		as = []string{}
	}
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     int64(len(r.Trace) + 1),
		Op:      op,
		As:      as,
		Args:    args,
		Outcome: outcome,
	})
}
