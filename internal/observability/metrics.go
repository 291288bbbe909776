package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOpsTotal        = "ordtree.ops.total"
	metricOpDuration      = "ordtree.op.duration.seconds"
	metricErrorsTotal     = "ordtree.errors.total"
	metricLiveNodes       = "ordtree.nodes.live"
	metricHibernatedBytes = "ordtree.hibernate.saved.bytes"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK marks a successful tree operation.
	StatusOK = "ok"
	// StatusError marks a failed tree operation.
	StatusError = "error"
)

// opBucketBoundaries covers 100ns to 100ms: single tree operations are
// sub-microsecond, verification and export of large trees reach milliseconds.
var opBucketBoundaries = []float64{1e-7, 5e-7, 1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 1e-3, 1e-2, 1e-1}

// TreeMetrics holds the OTel instruments recorded around tree operations.
type TreeMetrics struct {
	opsTotal     metric.Int64Counter
	opDuration   metric.Float64Histogram
	errorsTotal  metric.Int64Counter
	liveNodes    metric.Int64UpDownCounter
	savedByHiber metric.Int64Counter
}

// NewTreeMetrics creates tree metric instruments from the given meter.
func NewTreeMetrics(mt metric.Meter) (*TreeMetrics, error) {
	b := newMetricBuilder(mt)

	tm := &TreeMetrics{
		opsTotal:     b.counter(metricOpsTotal, "Total number of tree operations", "{operation}"),
		opDuration:   b.histogram(metricOpDuration, "Tree operation duration in seconds", "s", opBucketBoundaries...),
		errorsTotal:  b.counter(metricErrorsTotal, "Total number of failed tree operations", "{error}"),
		liveNodes:    b.upDownCounter(metricLiveNodes, "Number of live tree nodes", "{node}"),
		savedByHiber: b.counter(metricHibernatedBytes, "Heap bytes released by arena hibernation", "By"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return tm, nil
}

// RecordOp records a completed tree operation. A non-nil err marks it failed.
func (tm *TreeMetrics) RecordOp(ctx context.Context, op string, duration time.Duration, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	tm.opsTotal.Add(ctx, 1, attrs)
	tm.opDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		tm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// AddNodes adjusts the live node count by delta.
func (tm *TreeMetrics) AddNodes(ctx context.Context, delta int64) {
	if delta != 0 {
		tm.liveNodes.Add(ctx, delta)
	}
}

// RecordHibernation records the heap bytes released by one hibernation.
// Growth is not recorded.
func (tm *TreeMetrics) RecordHibernation(ctx context.Context, before, after uint64) {
	if after < before {
		tm.savedByHiber.Add(ctx, int64(before-after)) //nolint:gosec // heap deltas fit in int64.
	}
}
