package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Sumatoshi-tech/ordtree/internal/config"
	"github.com/Sumatoshi-tech/ordtree/internal/observability"
	"github.com/Sumatoshi-tech/ordtree/internal/render"
	"github.com/Sumatoshi-tech/ordtree/internal/workload"
	"github.com/Sumatoshi-tech/ordtree/pkg/rbtree"
)

const readHeaderTimeout = 5 * time.Second

// NewBenchCommand creates the bench command.
func NewBenchCommand() *cobra.Command {
	return newBenchCommandWithDeps(observability.Init)
}

func newBenchCommandWithDeps(initFn observabilityInit) *cobra.Command {
	var (
		flags       commonFlags
		sizes       []int
		hibernate   bool
		plotPath    string
		profileDir  string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure insert/erase cost, depth, and hibernation savings by tree size",
		Long: `Bench builds a tree from a shuffled key range for each configured size and
reports per-operation insert and erase time, height against the 2*log2(n+1)
bound, black-height, and heap usage before and after hibernation.

With --profile-dir a heap profile is written for each size before and after
hibernation. With --metrics-addr the run's tree metrics are served at
/metrics until the command is interrupted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			err = applyBenchFlags(cmd, cfg, benchFlags{sizes, hibernate, plotPath, profileDir, metricsAddr})
			if err != nil {
				return err
			}

			var (
				readers []sdkmetric.Reader
				handler http.Handler
			)

			if cfg.Metrics.ListenAddr != "" {
				var reader sdkmetric.Reader

				handler, reader, err = observability.PrometheusHandler()
				if err != nil {
					return err
				}

				readers = append(readers, reader)
			}

			sess, err := startSessionWithConfig(cmd, cfg, observability.ModeBench, initFn, readers...)
			if err != nil {
				return err
			}
			defer sess.close()

			rows, err := runBench(cmd.Context(), sess.runner, cfg)
			if err != nil {
				return err
			}

			render.BenchTable(cmd.OutOrStdout(), rows)

			if cfg.Bench.PlotPath != "" {
				err = writePlot(cfg.Bench.PlotPath, rows)
				if err != nil {
					return err
				}

				sess.providers.Logger.Info("height chart written", "path", cfg.Bench.PlotPath)
			}

			if handler != nil {
				return serveMetrics(cmd.Context(), sess, cfg.Metrics.ListenAddr, handler)
			}

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntSliceVar(&sizes, "sizes", nil, "tree sizes to measure (default from config)")
	cmd.Flags().BoolVar(&hibernate, "hibernate", true, "measure heap after hibernating each tree")
	cmd.Flags().StringVar(&plotPath, "plot", "", "write an HTML height chart to this path")
	cmd.Flags().StringVar(&profileDir, "profile-dir", "", "write heap profiles before and after hibernation here")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics at this address after the run")

	return cmd
}

type benchFlags struct {
	sizes       []int
	hibernate   bool
	plotPath    string
	profileDir  string
	metricsAddr string
}

func applyBenchFlags(cmd *cobra.Command, cfg *config.Config, flags benchFlags) error {
	if cmd.Flags().Changed("sizes") {
		cfg.Bench.Sizes = flags.sizes
	}

	if cmd.Flags().Changed("hibernate") {
		cfg.Bench.Hibernate = flags.hibernate
	}

	if cmd.Flags().Changed("plot") {
		cfg.Bench.PlotPath = flags.plotPath
	}

	if cmd.Flags().Changed("profile-dir") {
		cfg.Bench.ProfileDir = flags.profileDir
	}

	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.ListenAddr = flags.metricsAddr
	}

	return cfg.Validate()
}

func runBench(ctx context.Context, runner *workload.Runner, cfg *config.Config) ([]render.BenchRow, error) {
	ctx, span := runner.Tracer.Start(ctx, "bench.run")
	defer span.End()

	if cfg.Bench.ProfileDir != "" {
		err := os.MkdirAll(cfg.Bench.ProfileDir, 0o755)
		if err != nil {
			return nil, fmt.Errorf("create profile dir: %w", err)
		}
	}

	rows := make([]render.BenchRow, 0, len(cfg.Bench.Sizes))

	for _, size := range cfg.Bench.Sizes {
		row, err := benchSize(ctx, runner, cfg, size)
		if err != nil {
			return nil, err
		}

		runner.Logger.DebugContext(ctx, "size measured",
			"size", size, "height", row.Height, "heap", row.HeapBefore, "hibernated", row.HeapHibernated)

		rows = append(rows, row)
	}

	return rows, nil
}

func benchSize(ctx context.Context, runner *workload.Runner, cfg *config.Config, size int) (render.BenchRow, error) {
	rng := rand.New(rand.NewSource(cfg.Check.Seed)) //nolint:gosec // reproducible workloads.
	keys := rng.Perm(size)
	row := render.BenchRow{Size: size}

	baseline := heapInUse()

	tree := rbtree.New[int]()
	tree.Allocator().HibernationThreshold = cfg.Tree.HibernationThreshold

	started := time.Now()
	for _, key := range keys {
		tree.Insert(key)
	}

	row.InsertTime = time.Since(started).Seconds()
	runner.Metrics.RecordOp(ctx, workload.OpInsert, time.Since(started), nil)
	runner.Metrics.AddNodes(ctx, int64(tree.Len()))

	err := tree.Verify()
	if err != nil {
		return row, fmt.Errorf("%w: size %d: %w", workload.ErrInvariant, size, err)
	}

	row.Height = tree.Height()
	row.BlackHeight = tree.BlackHeight()
	row.HeapBefore = saturatingSub(heapInUse(), baseline)

	err = writeHeapProfile(cfg.Bench.ProfileDir, size, "before")
	if err != nil {
		return row, err
	}

	if cfg.Bench.Hibernate {
		tree.Hibernate()

		row.Hibernated = true
		row.HeapHibernated = saturatingSub(heapInUse(), baseline)
		runner.Metrics.RecordHibernation(ctx, row.HeapBefore, row.HeapHibernated)

		err = writeHeapProfile(cfg.Bench.ProfileDir, size, "hibernated")
		if err != nil {
			return row, err
		}

		err = tree.Boot()
		if err != nil {
			return row, fmt.Errorf("boot size %d: %w", size, err)
		}
	}

	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	started = time.Now()
	for _, key := range keys {
		tree.EraseKey(key)
	}

	row.EraseTime = time.Since(started).Seconds()
	runner.Metrics.RecordOp(ctx, workload.OpErase, time.Since(started), nil)
	runner.Metrics.AddNodes(ctx, -int64(size))

	tree.Destroy()

	return row, nil
}

// heapInUse returns the live heap after a forced collection.
func heapInUse() uint64 {
	runtime.GC()

	var stats runtime.MemStats

	runtime.ReadMemStats(&stats)

	return stats.HeapAlloc
}

// writeHeapProfile writes dir/heap-<size>-<label>.prof. An empty dir disables profiling.
func writeHeapProfile(dir string, size int, label string) error {
	if dir == "" {
		return nil
	}

	path := filepath.Join(dir, fmt.Sprintf("heap-%d-%s.prof", size, label))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}

	err = pprof.WriteHeapProfile(file)
	if err != nil {
		err = fmt.Errorf("write heap profile: %w", err)
	}

	return errors.Join(err, file.Close())
}

func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}

	return a - b
}

func writePlot(path string, rows []render.BenchRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}

	err = render.WriteHeightChart(file, rows)

	return errors.Join(err, file.Close())
}

func serveMetrics(ctx context.Context, sess *session, addr string, handler http.Handler) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	sess.providers.Logger.Info("serving metrics", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()

		shutdownErr := server.Shutdown(context.Background())
		if shutdownErr != nil {
			sess.providers.Logger.Warn("metrics server shutdown failed", "error", shutdownErr)
		}
	}()

	err = server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return fmt.Errorf("serve metrics: %w", err)
}
