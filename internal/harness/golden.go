package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/turnstile/internal/ir"
)

// TraceSnapshot renders a trace as canonical JSON. Journal IDs and
// timestamps are left out so golden files stay readable and can be
// written by hand.
func TraceSnapshot(name string, trace []TraceEvent) ([]byte, error) {
	events := make(ir.Array, len(trace))
	for i, ev := range trace {
		args := ev.Args
		if args == nil {
			args = ir.Object{}
		}
		events[i] = ir.Object{
			"seq":     ir.Int(ev.Seq),
			"op":      ir.String(ev.Op),
			"as":      ir.Strings(ev.As),
			"args":    args,
			"outcome": ir.String(ev.Outcome),
		}
	}
	return ir.MarshalCanonical(ir.Object{
		"scenario": ir.String(name),
		"trace":    events,
	})
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := TraceSnapshot(name, result.Trace)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
