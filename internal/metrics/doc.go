// Package metrics provides timing statistics and pool instrumentation.
//
// Timings collects per-phase durations (one sample per benchmark run) and
// reports count, average, population standard deviation, min, max and P99.
//
// # Basic Usage
//
//	t := metrics.New()
//	t.Time(func() { sortsearch.Sort(p, data) })
//	snap := t.Snapshot()
//	fmt.Printf("avg %v ± %v\n", snap.Average, snap.StdDev)
//
// # Prometheus
//
// PoolCollector implements pool.Observer and exports task counters, queue
// depth and a task duration histogram under the "poolsort_pool_" prefix:
//
//	reg := prometheus.NewRegistry()
//	col, err := metrics.NewPoolCollector(reg)
//	p := pool.NewWithConfig(pool.Config{NumWorkers: 8, Observer: col})
//
// # Thread Safety
//
// All operations are safe for concurrent use.
package metrics
