package workload_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/ordtree/internal/workload"
)

func TestCheck_Seeded(t *testing.T) {
	t.Parallel()

	opts := workload.CheckOptions{Seed: 7, Ops: 5000, KeySpace: 300, VerifyEvery: 1}

	report, err := (&workload.Runner{}).Check(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 5000, report.Ops)
	assert.Equal(t, report.Ops, report.Inserts+report.Erases+report.Finds)
	assert.Positive(t, report.Duplicates)
	assert.Positive(t, report.EraseMisses)
	assert.Equal(t, report.Inserts+report.Erases+1, report.Verifications)
	assert.LessOrEqual(t, report.FinalLen, 300)
	assert.Positive(t, report.BlackHeight)
	assert.LessOrEqual(t, report.Height, 2*(report.BlackHeight+1))
}

func TestCheck_Reproducible(t *testing.T) {
	t.Parallel()

	opts := workload.CheckOptions{Seed: 42, Ops: 2000, KeySpace: 100, VerifyEvery: 50}
	runner := &workload.Runner{}

	first, err := runner.Check(context.Background(), opts)
	require.NoError(t, err)

	second, err := runner.Check(context.Background(), opts)
	require.NoError(t, err)

	first.Duration, second.Duration = 0, 0
	assert.Equal(t, first, second)
}

func TestCheck_NoOps(t *testing.T) {
	t.Parallel()

	report, err := (&workload.Runner{}).Check(context.Background(), workload.CheckOptions{KeySpace: 1})
	require.NoError(t, err)
	assert.Zero(t, report.FinalLen)
	assert.Equal(t, 1, report.Verifications)
}

func TestCheck_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := (&workload.Runner{}).Check(context.Background(), workload.CheckOptions{Ops: 10})
	require.ErrorIs(t, err, workload.ErrInvalidOptions)
}
