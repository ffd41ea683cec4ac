package bench

import (
	"fmt"
	"strings"
	"time"

	"poolsort/internal/metrics"
	"poolsort/internal/pool"
)

// Result はベンチマーク実行結果
type Result struct {
	RunID     string
	Name      string
	Elements  int
	Threads   int
	Runs      int
	Target    int
	Found     bool
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// フェーズごとの所要時間
	Search         metrics.Snapshot
	Sort           metrics.Snapshot
	BaselineSearch *metrics.Snapshot // Baseline無効時はnil
	BaselineSort   *metrics.Snapshot

	// 全フェーズのプール統計の合計
	TasksSubmitted uint64
	TasksCompleted uint64
	TasksFailed    uint64
}

func (r *Result) addPoolStats(s pool.Stats) {
	r.TasksSubmitted += s.Submitted
	r.TasksCompleted += s.Completed
	r.TasksFailed += s.Failed
}

// phaseTimings は1回のRunで使うフェーズ別の計測器
type phaseTimings struct {
	search         *metrics.Timings
	sort           *metrics.Timings
	baselineSearch *metrics.Timings
	baselineSort   *metrics.Timings
}

func newPhaseTimings(baseline bool) *phaseTimings {
	t := &phaseTimings{
		search: metrics.New(),
		sort:   metrics.New(),
	}
	if baseline {
		t.baselineSearch = metrics.New()
		t.baselineSort = metrics.New()
	}
	return t
}

func (t *phaseTimings) collect(r *Result) {
	r.Search = t.search.Snapshot()
	r.Sort = t.sort.Snapshot()
	if t.baselineSearch != nil {
		s := t.baselineSearch.Snapshot()
		r.BaselineSearch = &s
	}
	if t.baselineSort != nil {
		s := t.baselineSort.Snapshot()
		r.BaselineSort = &s
	}
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, `
================================================================================
                         BENCH REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Run ID:         %s
  Start Time:     %s
  End Time:       %s
  Duration:       %v

WORKLOAD
--------
  Elements:       %d
  Workers:        %d
  Runs:           %d
  Target:         %d
  Found:          %v

POOL TASKS
----------
  Submitted:      %d
  Completed:      %d
  Failed:         %d

TIMINGS (avg ± stddev, min / max)
---------------------------------
`,
		r.Name,
		r.RunID,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		r.Elements,
		r.Threads,
		r.Runs,
		r.Target,
		r.Found,
		r.TasksSubmitted,
		r.TasksCompleted,
		r.TasksFailed,
	)

	writeTiming(&b, "Parallel search", r.Search)
	writeTiming(&b, "Parallel sort", r.Sort)
	if r.BaselineSearch != nil {
		writeTiming(&b, "slices.Contains", *r.BaselineSearch)
	}
	if r.BaselineSort != nil {
		writeTiming(&b, "slices.Sort", *r.BaselineSort)
	}

	b.WriteString("\n================================================================================")
	return b.String()
}

func writeTiming(b *strings.Builder, label string, s metrics.Snapshot) {
	fmt.Fprintf(b, "  %-18s %v ± %v  (%v / %v)\n",
		label+":",
		s.Average.Round(time.Microsecond),
		s.StdDev.Round(time.Microsecond),
		s.Min.Round(time.Microsecond),
		s.Max.Round(time.Microsecond),
	)
}
