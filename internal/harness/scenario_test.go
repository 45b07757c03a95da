package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "test.yaml", `
name: test_scenario
description: "Test scenario for validation"
setup:
  - op: fund
    args: {currency: USD, owner: alice, amount: 10}
steps:
  - op: create_event
    as: [org]
    args:
      id: fest
      currency: USD
assertions:
  - type: trace_count
    op: create_event
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Len(t, scenario.Setup, 1)
	require.Len(t, scenario.Steps, 1)
	assert.Len(t, scenario.Assertions, 1)
	assert.Equal(t, "create_event", scenario.Steps[0].Op)
	assert.Equal(t, []string{"org"}, scenario.Steps[0].As)
	assert.Equal(t, "fest", scenario.Steps[0].Args["id"])
	assert.Equal(t, 10, scenario.Setup[0].Args["amount"])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
steps:
  - op: fund
`,
			wantErr: "name is required",
		},
		{
			name: "no steps",
			content: `
name: empty
steps: []
`,
			wantErr: "steps must contain at least one step",
		},
		{
			name: "unknown field",
			content: `
name: typo
stpes:
  - op: fund
`,
			wantErr: "failed to parse YAML",
		},
		{
			name: "unknown op",
			content: `
name: bad_op
steps:
  - op: refund
`,
			wantErr: `unknown op "refund"`,
		},
		{
			name: "expect without code",
			content: `
name: bad_expect
steps:
  - op: fund
    expect: {}
`,
			wantErr: "expect.code is required",
		},
		{
			name: "failing setup",
			content: `
name: bad_setup
setup:
  - op: fund
    expect: {code: UNAUTHORIZED}
steps:
  - op: fund
`,
			wantErr: "setup steps must succeed",
		},
		{
			name: "unknown assertion",
			content: `
name: bad_assertion
steps:
  - op: fund
assertions:
  - type: trace_contains
`,
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name: "unknown entity",
			content: `
name: bad_entity
steps:
  - op: fund
assertions:
  - type: final_state
    entity: wallet
    ref: USD/alice
    expect: {balance: 1}
`,
			wantErr: `unknown entity "wallet"`,
		},
		{
			name: "balance without amount",
			content: `
name: bad_balance
steps:
  - op: fund
assertions:
  - type: balance
    ref: USD/alice
`,
			wantErr: "ref and amount are required",
		},
		{
			name: "trace_order without ops",
			content: `
name: bad_order
steps:
  - op: fund
assertions:
  - type: trace_order
`,
			wantErr: "ops list is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDir(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	names := make([]string, len(scenarios))
	for i, sc := range scenarios {
		names[i] = sc.Name
	}
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "basic_purchase")
	assert.Contains(t, names, "sold_out")
}

func TestLoadDir_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yml", "name: broken\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yml")
}
