package workload_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/ordtree/internal/workload"
)

func decodeFile(t *testing.T, path string) *workload.Script {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)

	t.Cleanup(func() { file.Close() })

	script, err := workload.Decode(file)
	require.NoError(t, err)

	return script
}

func TestDecode_Basic(t *testing.T) {
	t.Parallel()

	script := decodeFile(t, "testdata/basic.yaml")

	assert.Equal(t, "basic", script.Name)
	assert.True(t, script.VerifyEnabled())
	require.Len(t, script.Steps, 13)

	first := script.Steps[0]
	assert.Equal(t, workload.OpInsert, first.Op)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, first.StepKeys())
	require.NotNil(t, first.Expect)
	require.NotNil(t, first.Expect.Len)
	assert.Equal(t, 7, *first.Expect.Len)

	limited := script.Steps[8]
	require.NotNil(t, limited.Limit)
	assert.Equal(t, 2, *limited.Limit)
}

func TestDecode_VerifyDisabled(t *testing.T) {
	t.Parallel()

	script, err := workload.Decode(strings.NewReader("verify: false\nsteps:\n  - op: verify\n"))
	require.NoError(t, err)
	assert.False(t, script.VerifyEnabled())
}

func TestDecode_SchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
		field  string
	}{
		{"empty", "", "empty document"},
		{"no steps", "name: x\n", "steps"},
		{"unknown op", "steps:\n  - op: rotate\n", "op"},
		{"insert without keys", "steps:\n  - op: insert\n", "keys"},
		{"non-integer key", "steps:\n  - op: find\n    keys: [a]\n", "keys"},
		{"bad range", "steps:\n  - op: erase\n    range: [1]\n", "range"},
		{"unknown field", "steps:\n  - op: min\n    colour: red\n", "colour"},
		{"unknown expectation", "steps:\n  - op: min\n    expect: {value: 1}\n", "value"},
		{"negative limit", "steps:\n  - op: export\n    limit: -1\n", "limit"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := workload.Decode(strings.NewReader(tc.script))
			require.ErrorIs(t, err, workload.ErrInvalidScript)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestDecode_MalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := workload.Decode(strings.NewReader("steps: [\n"))
	require.ErrorIs(t, err, workload.ErrInvalidScript)
}
