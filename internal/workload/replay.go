package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/ordtree/internal/observability"
	"github.com/Sumatoshi-tech/ordtree/pkg/rbtree"
)

// ErrInvariant is returned when a tree fails verification during a run.
var ErrInvariant = errors.New("tree invariant violated")

// Runner applies workloads to trees, recording spans, metrics, and logs.
// The zero value is usable and records nothing.
type Runner struct {
	Tracer  trace.Tracer
	Metrics *observability.TreeMetrics
	Logger  *slog.Logger

	// HibernationThreshold is applied to every tree the runner creates.
	HibernationThreshold int
}

// Failure describes a step whose outcome did not match its expectation.
type Failure struct {
	Step    int
	Op      string
	Message string
	// Diff is a line diff of expected and actual keys for export mismatches.
	Diff string
}

// Report summarises one replay.
type Report struct {
	Name      string
	Steps     int
	Mutations int
	Verified  int
	Failures  []Failure
	Keys      []int
	Height    int
	Duration  time.Duration
}

// Failed reports whether any expectation failed.
func (report *Report) Failed() bool {
	return len(report.Failures) > 0
}

func (runner *Runner) tracer() trace.Tracer {
	if runner.Tracer == nil {
		return nooptrace.NewTracerProvider().Tracer("")
	}

	return runner.Tracer
}

func (runner *Runner) logger() *slog.Logger {
	if runner.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return runner.Logger
}

func (runner *Runner) newTree() *rbtree.Tree[int] {
	tree := rbtree.New[int]()
	tree.Allocator().HibernationThreshold = runner.HibernationThreshold

	return tree
}

func (runner *Runner) record(ctx context.Context, op string, started time.Time, err error) {
	if runner.Metrics != nil {
		runner.Metrics.RecordOp(ctx, op, time.Since(started), err)
	}
}

func (runner *Runner) nodes(ctx context.Context, delta int) {
	if runner.Metrics != nil {
		runner.Metrics.AddNodes(ctx, int64(delta))
	}
}

// Replay applies the script to a fresh tree. Expectation mismatches are
// collected in the report; an invariant violation aborts the run with
// [ErrInvariant].
func (runner *Runner) Replay(ctx context.Context, script *Script) (*Report, error) {
	ctx, span := runner.tracer().Start(ctx, "workload.replay",
		trace.WithAttributes(
			attribute.String("workload.name", script.Name),
			attribute.Int("workload.steps", len(script.Steps)),
		))
	defer span.End()

	started := time.Now()
	tree := runner.newTree()
	report := &Report{Name: script.Name}

	for idx, step := range script.Steps {
		replaced, err := runner.applyStep(ctx, tree, idx, step, script.VerifyEnabled(), report)
		if replaced != nil {
			tree = replaced
		}

		// A tree that failed verification or boot is abandoned, not destroyed.
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invariant violated")

			return report, err
		}

		report.Steps++
	}

	report.Keys = tree.Keys()
	report.Height = tree.Height()
	report.Duration = time.Since(started)

	finalLen := tree.Len()
	runner.nodes(ctx, -tree.Destroy())

	if report.Failed() {
		span.SetStatus(codes.Error, "expectations failed")
	}

	runner.logger().InfoContext(ctx, "replay finished",
		"name", script.Name,
		"steps", report.Steps,
		"failures", len(report.Failures),
		"len", finalLen)

	return report, nil
}

// applyStep runs one step. It returns a new tree when the step destroyed the old one.
func (runner *Runner) applyStep(
	ctx context.Context, tree *rbtree.Tree[int], idx int, step Step, verify bool, report *Report,
) (*rbtree.Tree[int], error) {
	ctx, span := runner.tracer().Start(ctx, "workload.step",
		trace.WithAttributes(
			attribute.Int("step.index", idx),
			attribute.String("step.op", step.Op),
		))
	defer span.End()

	fail := func(format string, args ...any) {
		report.Failures = append(report.Failures, Failure{Step: idx, Op: step.Op, Message: fmt.Sprintf(format, args...)})
	}

	var replaced *rbtree.Tree[int]

	mutated := false

	switch step.Op {
	case OpInsert:
		for _, key := range step.StepKeys() {
			before := tree.Len()
			opStart := time.Now()
			tree.Insert(key)
			runner.record(ctx, OpInsert, opStart, nil)
			runner.nodes(ctx, tree.Len()-before)
		}

		mutated = true

	case OpErase:
		for _, key := range step.StepKeys() {
			opStart := time.Now()
			erased := tree.EraseKey(key)
			runner.record(ctx, OpErase, opStart, nil)

			if erased {
				runner.nodes(ctx, -1)
			}

			if step.Expect != nil && step.Expect.Erased != nil && erased != *step.Expect.Erased {
				fail("erase %d: erased=%t, expected %t", key, erased, *step.Expect.Erased)
			}
		}

		mutated = true

	case OpFind:
		for _, key := range step.StepKeys() {
			opStart := time.Now()
			found := !tree.Find(key).IsNil()
			runner.record(ctx, OpFind, opStart, nil)

			if step.Expect != nil && step.Expect.Found != nil && found != *step.Expect.Found {
				fail("find %d: found=%t, expected %t", key, found, *step.Expect.Found)
			}
		}

	case OpMin, OpMax:
		runner.checkExtreme(ctx, tree, step, fail)

	case OpExport:
		runner.checkExport(ctx, tree, idx, step, report)

	case OpVerify:
		// Checked below regardless of the script's verify setting.

	case OpHibernate:
		tree.Hibernate()

		err := tree.Boot()
		if err != nil {
			return nil, fmt.Errorf("step %d: boot: %w", idx, err)
		}

		mutated = true

	case OpDestroy:
		released := tree.Destroy()
		runner.nodes(ctx, -released)

		if step.Expect != nil && step.Expect.Len != nil && released != *step.Expect.Len {
			fail("destroy released %d nodes, expected %d", released, *step.Expect.Len)
		}

		replaced = runner.newTree()
		tree = replaced

	default:
		fail("unknown op %q", step.Op)
	}

	if step.Op != OpDestroy && step.Expect != nil && step.Expect.Len != nil && tree.Len() != *step.Expect.Len {
		fail("len=%d, expected %d", tree.Len(), *step.Expect.Len)
	}

	if mutated {
		report.Mutations++
	}

	if (mutated && verify) || step.Op == OpVerify {
		err := tree.Verify()
		if err != nil {
			return replaced, fmt.Errorf("%w: step %d (%s): %w", ErrInvariant, idx, step.Op, err)
		}

		report.Verified++
	}

	return replaced, nil
}

func (runner *Runner) checkExtreme(ctx context.Context, tree *rbtree.Tree[int], step Step, fail func(string, ...any)) {
	extreme := tree.MinKey
	if step.Op == OpMax {
		extreme = tree.MaxKey
	}

	opStart := time.Now()
	key, err := extreme()
	runner.record(ctx, step.Op, opStart, err)

	if step.Expect == nil {
		return
	}

	empty := errors.Is(err, rbtree.ErrEmptyTree)

	if step.Expect.Empty != nil && empty != *step.Expect.Empty {
		fail("%s: empty=%t, expected %t", step.Op, empty, *step.Expect.Empty)
	}

	if step.Expect.Key != nil {
		switch {
		case empty:
			fail("%s: tree is empty, expected %d", step.Op, *step.Expect.Key)
		case key != *step.Expect.Key:
			fail("%s: got %d, expected %d", step.Op, key, *step.Expect.Key)
		}
	}
}

func (runner *Runner) checkExport(ctx context.Context, tree *rbtree.Tree[int], idx int, step Step, report *Report) {
	capacity := tree.Len()
	if step.Limit != nil {
		capacity = *step.Limit
	}

	buf := make([]int, capacity)

	opStart := time.Now()
	written := tree.ExportSorted(buf)
	runner.record(ctx, OpExport, opStart, nil)

	actual := buf[:written]

	if step.Expect == nil || step.Expect.Keys == nil {
		return
	}

	expected := *step.Expect.Keys
	if slices.Equal(expected, actual) {
		return
	}

	report.Failures = append(report.Failures, Failure{
		Step:    idx,
		Op:      step.Op,
		Message: fmt.Sprintf("export of %d keys differs from the %d expected", len(actual), len(expected)),
		Diff:    DiffKeys(expected, actual),
	})
}
