package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/turnstile/internal/identity"
	"github.com/roach88/turnstile/internal/ir"
	"github.com/roach88/turnstile/internal/ledger"
	"github.com/roach88/turnstile/internal/state"
	"github.com/roach88/turnstile/internal/testutil"
)

// Harness runs steps against one ledger. Each scenario gets its own.
type Harness struct {
	ledger  *ledger.Ledger
	journal *state.MemoryJournal
	keyring *identity.Keyring
	logger  *slog.Logger
}

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes ledger and harness logs to logger. Runs are silent
// by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// stepPayload is what the step's principals sign.
type stepPayload struct {
	Op   string `cbor:"1,keyasint"`
	Args []byte `cbor:"2,keyasint"`
}

// Run executes a scenario against a fresh in-memory ledger.
//
// Setup steps must succeed; a failing setup step aborts the run with an
// error. Test steps that miss their expected outcome, and assertions
// that do not hold, are reported in the result. Infrastructure errors
// abort the run.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	journal := state.NewMemoryJournal()
	h := &Harness{
		journal: journal,
		keyring: identity.NewKeyring(),
		logger:  cfg.logger.With("scenario", scenario.Name),
	}
	h.ledger = ledger.New(state.NewMemory(),
		ledger.WithLogger(cfg.logger),
		ledger.WithJournal(journal),
		ledger.WithClock(testutil.NewDeterministicClock()),
		ledger.WithSeedGenerator(testutil.NewSequenceSeeds("ticket")),
	)

	result := NewResult()
	for i, step := range scenario.Setup {
		outcome, err := h.execute(ctx, step, result)
		if err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Op, err)
		}
		if outcome != OutcomeOK {
			return nil, fmt.Errorf("setup[%d] %s: rejected with %s", i, step.Op, outcome)
		}
	}

	for i, step := range scenario.Steps {
		outcome, err := h.execute(ctx, step, result)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
		}
		want := OutcomeOK
		if step.Expect != nil {
			want = step.Expect.Code
		}
		if outcome != want {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got %s", i, step.Op, want, outcome))
		}
	}

	entries, err := journal.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	result.Journal = entries

	for _, msg := range h.evaluate(ctx, scenario.Assertions, entries) {
		result.AddError(msg)
	}
	if !result.Pass {
		h.logger.DebugContext(ctx, "scenario failed", "errors", len(result.Errors))
	}
	return result, nil
}

// execute signs, verifies, and dispatches one step and records it in the
// trace. It returns the outcome code, or an error for malformed steps and
// infrastructure failures.
func (h *Harness) execute(ctx context.Context, step Step, result *Result) (string, error) {
	op, ok := operations[step.Op]
	if !ok {
		return "", fmt.Errorf("unknown op %q", step.Op)
	}

	var args ir.Object
	if step.Args != nil {
		v, err := ir.FromAny(step.Args)
		if err != nil {
			return "", fmt.Errorf("args: %w", err)
		}
		args = v.(ir.Object)
	} else {
		args = ir.Object{}
	}

	signers, err := h.sign(step.Op, args, step.As)
	if err != nil {
		return "", err
	}

	c := &call{
		ctx:     ctx,
		l:       h.ledger,
		signers: signers,
		args:    newArgReader(step.Args),
	}
	if len(step.As) > 0 {
		c.actor = identity.Principal(step.As[0])
	}

	outcome := OutcomeOK
	if err := op(c); err != nil {
		if !ledger.IsRejection(err) {
			return "", err
		}
		outcome = string(ledger.CodeOf(err))
	}
	if outcome == OutcomeOK {
		h.logger.DebugContext(ctx, "step committed", "op", step.Op)
	} else {
		h.logger.DebugContext(ctx, "step rejected", "op", step.Op, "code", outcome)
	}

	result.AddTrace(step.Op, step.As, args, outcome)
	return outcome, nil
}

// sign has each named principal sign the step with their dev key, then
// verifies the envelope. An unsigned step runs with no signers.
func (h *Harness) sign(op string, args ir.Object, as []string) (identity.Signers, error) {
	if len(as) == 0 {
		return identity.Signers{}, nil
	}
	canonical, err := ir.MarshalCanonical(args)
	if err != nil {
		return nil, fmt.Errorf("canonicalize args: %w", err)
	}
	principals := make([]identity.Principal, len(as))
	for i, name := range as {
		principals[i] = identity.Principal(name)
	}
	env, err := h.keyring.SignAsDev(stepPayload{Op: op, Args: canonical}, principals...)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	signers, err := h.keyring.Verify(env)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	return signers, nil
}
