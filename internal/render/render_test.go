package render_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/ordtree/internal/render"
	"github.com/Sumatoshi-tech/ordtree/internal/workload"
	"github.com/Sumatoshi-tech/ordtree/pkg/rbtree"
)

func TestTree_Shape(t *testing.T) {
	t.Parallel()

	tree := rbtree.New[int]()
	for key := 1; key <= 7; key++ {
		tree.Insert(key)
	}

	var buf bytes.Buffer

	depth := render.Tree(render.NewPrinter(false), &buf, tree)
	assert.Equal(t, tree.Height(), depth)

	expected := strings.Join([]string{
		"                     /------+ 7 (R)",
		"              /------+ 6 (B)",
		"              |      \\------+ 5 (R)",
		"       /------+ 4 (R)",
		"       |      \\------+ 3 (B)",
		"|------+ 2 (B)",
		"       \\------+ 1 (B)",
		"",
	}, "\n")
	assert.Equal(t, expected, buf.String())
}

func TestTree_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	assert.Zero(t, render.Tree(render.NewPrinter(false), &buf, rbtree.New[string]()))
	assert.Equal(t, "(empty)\n", buf.String())
}

func TestTree_Colorized(t *testing.T) {
	t.Parallel()

	tree := rbtree.New[string]()
	tree.Insert("b")
	tree.Insert("a")

	var buf bytes.Buffer

	render.Tree(render.NewPrinter(true), &buf, tree)
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "a (R)")
}

func TestCheckTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	render.CheckTable(&buf, &workload.CheckReport{
		Seed: 3, Ops: 12345, FinalLen: 100, Height: 8, BlackHeight: 3, Duration: time.Millisecond,
	})

	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "seed 3")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "8 (bound 13.3)")
}

func TestBenchTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	render.BenchTable(&buf, []render.BenchRow{
		{Size: 1000, InsertTime: 0.0002, EraseTime: 0.0001, Height: 12, BlackHeight: 6, HeapBefore: 2 << 20},
	})

	out := buf.String()
	assert.Contains(t, out, "1,000")
	assert.Contains(t, out, "200ns")
	assert.Contains(t, out, "2.1 MB")
}

func TestReplayReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	render.ReplayReport(&buf, &workload.Report{Name: "ok", Steps: 3, Verified: 2}, false)
	assert.Equal(t, "PASS ok: 3 steps, 2 mutations verified\n", buf.String())

	buf.Reset()
	render.ReplayReport(&buf, &workload.Report{
		Steps: 2,
		Failures: []workload.Failure{
			{Step: 1, Op: "export", Message: "differs", Diff: "  1\n- 2\n"},
		},
	}, false)

	assert.Equal(t,
		"FAIL script: 1 of 2 steps did not match\n"+
			"  - step 1 (export): differs\n"+
			"        1\n"+
			"      - 2\n",
		buf.String())
}

func TestHeightChart(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, render.WriteHeightChart(&buf, []render.BenchRow{
		{Size: 10, Height: 4, BlackHeight: 2},
		{Size: 100, Height: 8, BlackHeight: 4},
	}))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "Black-height")
	assert.InDelta(t, 13.32, render.HeightBound(100), 0.01)
}
