package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "poolsort"

// PoolCollector はワーカープールのPrometheusメトリクス
// pool.Observer を実装する。
type PoolCollector struct {
	submitted  prometheus.Counter
	completed  prometheus.Counter
	failed     prometheus.Counter
	rejected   prometheus.Counter
	queueDepth prometheus.Gauge
	duration   prometheus.Histogram
}

// NewPoolCollector はコレクタを作成して reg に登録する
// reg が nil の場合は登録しない。
func NewPoolCollector(reg prometheus.Registerer) (*PoolCollector, error) {
	c := &PoolCollector{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks accepted by the pool",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks that finished without error",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks that returned an error or panicked",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_rejected_total",
			Help:      "Total number of submissions rejected after shutdown",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "queue_depth",
			Help:      "Number of tasks waiting in the queue",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "task_duration_seconds",
			Help:      "Task execution time",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{
			c.submitted, c.completed, c.failed, c.rejected, c.queueDepth, c.duration,
		} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *PoolCollector) TaskSubmitted() { c.submitted.Inc() }
func (c *PoolCollector) TaskRejected()  { c.rejected.Inc() }
func (c *PoolCollector) QueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

func (c *PoolCollector) TaskFinished(elapsed time.Duration, err error) {
	if err != nil {
		c.failed.Inc()
	} else {
		c.completed.Inc()
	}
	c.duration.Observe(elapsed.Seconds())
}
