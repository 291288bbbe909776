package workload

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/ordtree/pkg/rbtree"
)

// Check errors.
var (
	ErrMismatch       = errors.New("tree disagrees with oracle")
	ErrInvalidOptions = errors.New("invalid check options")
)

// Operation mix of a randomized run, in percent.
const (
	insertPercent = 50
	erasePercent  = 35
)

// CheckOptions configures a randomized property run.
type CheckOptions struct {
	Seed        int64
	Ops         int
	KeySpace    int
	VerifyEvery int
}

// CheckReport summarises a randomized property run.
type CheckReport struct {
	Seed          int64
	Ops           int
	Inserts       int
	Duplicates    int
	Erases        int
	EraseMisses   int
	Finds         int
	Verifications int
	FinalLen      int
	Height        int
	BlackHeight   int
	Duration      time.Duration
}

// oracle is a sorted slice of distinct keys.
type oracle struct {
	keys []int
}

func (o *oracle) insert(key int) bool {
	pos, found := slices.BinarySearch(o.keys, key)
	if found {
		return false
	}

	o.keys = slices.Insert(o.keys, pos, key)

	return true
}

func (o *oracle) erase(key int) bool {
	pos, found := slices.BinarySearch(o.keys, key)
	if !found {
		return false
	}

	o.keys = slices.Delete(o.keys, pos, pos+1)

	return true
}

func (o *oracle) contains(key int) bool {
	_, found := slices.BinarySearch(o.keys, key)

	return found
}

// Check runs a seeded sequence of random inserts, erases, and lookups against
// a tree and a sorted-slice oracle. It verifies invariants every VerifyEvery
// mutations and finishes with export, round-trip, and clone checks.
func (runner *Runner) Check(ctx context.Context, opts CheckOptions) (*CheckReport, error) {
	ctx, span := runner.tracer().Start(ctx, "workload.check",
		trace.WithAttributes(
			attribute.Int64("check.seed", opts.Seed),
			attribute.Int("check.ops", opts.Ops),
			attribute.Int("check.key_space", opts.KeySpace),
		))
	defer span.End()

	report, err := runner.check(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "check failed")

		return report, err
	}

	runner.logger().InfoContext(ctx, "check passed",
		"seed", opts.Seed,
		"ops", report.Ops,
		"len", report.FinalLen,
		"height", report.Height)

	return report, nil
}

func (runner *Runner) check(ctx context.Context, opts CheckOptions) (*CheckReport, error) {
	if opts.KeySpace <= 0 || opts.Ops < 0 {
		return nil, fmt.Errorf("%w: ops=%d key_space=%d", ErrInvalidOptions, opts.Ops, opts.KeySpace)
	}

	verifyEvery := max(opts.VerifyEvery, 1)
	started := time.Now()
	rng := rand.New(rand.NewSource(opts.Seed)) //nolint:gosec // reproducible workloads, not security.
	tree := runner.newTree()
	orc := &oracle{}
	report := &CheckReport{Seed: opts.Seed}
	mutations := 0

	for range opts.Ops {
		key := rng.Intn(opts.KeySpace)
		roll := rng.Intn(100)
		report.Ops++

		switch {
		case roll < insertPercent:
			err := runner.checkInsert(ctx, tree, orc, key, report)
			if err != nil {
				return report, err
			}

			mutations++

		case roll < insertPercent+erasePercent:
			opStart := time.Now()
			erased := tree.EraseKey(key)
			runner.record(ctx, OpErase, opStart, nil)

			if erased != orc.erase(key) {
				return report, fmt.Errorf("%w: erase %d returned %t", ErrMismatch, key, erased)
			}

			report.Erases++

			if !erased {
				report.EraseMisses++
			} else {
				runner.nodes(ctx, -1)
			}

			mutations++

		default:
			opStart := time.Now()
			found := tree.Contains(key)
			runner.record(ctx, OpFind, opStart, nil)

			if found != orc.contains(key) {
				return report, fmt.Errorf("%w: find %d returned %t", ErrMismatch, key, found)
			}

			report.Finds++

			continue
		}

		if tree.Len() != len(orc.keys) {
			return report, fmt.Errorf("%w: len %d, oracle %d", ErrMismatch, tree.Len(), len(orc.keys))
		}

		if mutations%verifyEvery == 0 {
			err := runner.verify(tree, orc)
			if err != nil {
				return report, err
			}

			report.Verifications++
		}
	}

	err := runner.verify(tree, orc)
	if err != nil {
		return report, err
	}

	report.Verifications++

	err = roundTrip(tree)
	if err != nil {
		return report, err
	}

	report.FinalLen = tree.Len()
	report.Height = tree.Height()
	report.BlackHeight = tree.BlackHeight()
	report.Duration = time.Since(started)
	runner.nodes(ctx, -tree.Destroy())

	return report, nil
}

func (runner *Runner) checkInsert(
	ctx context.Context, tree *rbtree.Tree[int], orc *oracle, key int, report *CheckReport,
) error {
	existing := tree.Find(key)

	opStart := time.Now()
	ref := tree.Insert(key)
	runner.record(ctx, OpInsert, opStart, nil)

	fresh := orc.insert(key)
	report.Inserts++

	if fresh {
		runner.nodes(ctx, 1)

		if !existing.IsNil() {
			return fmt.Errorf("%w: %d found before its first insert", ErrMismatch, key)
		}
	} else {
		report.Duplicates++

		if ref != existing {
			return fmt.Errorf("%w: duplicate insert of %d returned %v, want %v", ErrMismatch, key, ref, existing)
		}
	}

	if tree.Key(ref) != key {
		return fmt.Errorf("%w: insert %d returned node with key %d", ErrMismatch, key, tree.Key(ref))
	}

	return nil
}

func (runner *Runner) verify(tree *rbtree.Tree[int], orc *oracle) error {
	err := tree.Verify()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}

	keys := tree.Keys()
	if !slices.Equal(keys, orc.keys) {
		return fmt.Errorf("%w: export differs\n%s", ErrMismatch, DiffKeys(orc.keys, keys))
	}

	if len(keys) > 0 {
		lo, _ := tree.MinKey()
		hi, _ := tree.MaxKey()

		if lo != keys[0] || hi != keys[len(keys)-1] {
			return fmt.Errorf("%w: min/max %d/%d, export bounds %d/%d", ErrMismatch, lo, hi, keys[0], keys[len(keys)-1])
		}
	}

	return nil
}

// roundTrip rebuilds the tree from its export and from a clone and compares both.
func roundTrip(tree *rbtree.Tree[int]) error {
	keys := tree.Keys()
	rebuilt := rbtree.New[int]()

	for _, key := range keys {
		rebuilt.Insert(key)
	}

	defer rebuilt.Destroy()

	err := rebuilt.Verify()
	if err != nil {
		return fmt.Errorf("%w: rebuilt tree: %w", ErrInvariant, err)
	}

	if !slices.Equal(keys, rebuilt.Keys()) {
		return fmt.Errorf("%w: round trip\n%s", ErrMismatch, DiffKeys(keys, rebuilt.Keys()))
	}

	clone := tree.Clone()
	defer clone.Destroy()

	err = clone.Verify()
	if err != nil {
		return fmt.Errorf("%w: clone: %w", ErrInvariant, err)
	}

	if !slices.Equal(keys, clone.Keys()) {
		return fmt.Errorf("%w: clone\n%s", ErrMismatch, DiffKeys(keys, clone.Keys()))
	}

	return nil
}
