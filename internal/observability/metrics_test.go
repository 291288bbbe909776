package observability_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/ordtree/internal/observability"
)

func setupTestMeter(t *testing.T) (*observability.TreeMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	tm, err := observability.NewTreeMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return tm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumOf(t *testing.T, metric *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, metric)

	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestTreeMetrics_RecordOp(t *testing.T) {
	t.Parallel()

	tm, reader := setupTestMeter(t)
	ctx := context.Background()

	tm.RecordOp(ctx, "insert", time.Microsecond, nil)
	tm.RecordOp(ctx, "insert", time.Microsecond, nil)
	tm.RecordOp(ctx, "erase", time.Microsecond, errors.New("stale ref"))

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(3), sumOf(t, findMetric(rm, "ordtree.ops.total")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "ordtree.errors.total")))
	require.NotNil(t, findMetric(rm, "ordtree.op.duration.seconds"))
}

func TestTreeMetrics_NodesAndHibernation(t *testing.T) {
	t.Parallel()

	tm, reader := setupTestMeter(t)
	ctx := context.Background()

	tm.AddNodes(ctx, 10)
	tm.AddNodes(ctx, -3)
	tm.RecordHibernation(ctx, 4096, 1024)
	tm.RecordHibernation(ctx, 100, 200)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(7), sumOf(t, findMetric(rm, "ordtree.nodes.live")))
	assert.Equal(t, int64(3072), sumOf(t, findMetric(rm, "ordtree.hibernate.saved.bytes")))
}

func TestPrometheusHandler_ServesTreeMetrics(t *testing.T) {
	t.Parallel()

	handler, reader, err := observability.PrometheusHandler()
	require.NoError(t, err)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	tm, err := observability.NewTreeMetrics(mp.Meter("test"))
	require.NoError(t, err)

	tm.RecordOp(context.Background(), "insert", time.Microsecond, nil)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/metrics") //nolint:noctx // test server.
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, string(body), "target_info")
	assert.Contains(t, string(body), "ordtree_ops")
}
