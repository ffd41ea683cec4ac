package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"poolsort/internal/events"
	"poolsort/internal/logger"
	"poolsort/internal/metrics"
	"poolsort/internal/pool"
	"poolsort/internal/sortsearch"
)

// ErrAlreadyRunning は実行中のEngineで再度Runした場合のエラー
var ErrAlreadyRunning = errors.New("bench is already running")

// Config はベンチマークの設定
type Config struct {
	Name          string // ベンチマーク名
	Description   string // 説明
	Elements      int    // 要素数
	Threads       int    // プールのワーカー数（0以下でCPU数）
	Runs          int    // 計測の繰り返し回数
	Seed          uint64 // 入力データの乱数シード
	SortThreshold int    // 同期ソートに切り替える範囲サイズ
	Baseline      bool   // 標準ライブラリでの比較計測を行う
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:          "default",
		Description:   "One million ints on eight workers",
		Elements:      1_000_000,
		Threads:       8,
		Runs:          5,
		Seed:          1,
		SortThreshold: sortsearch.DefaultThreshold,
		Baseline:      false,
	}
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if c.Elements < 0 {
		return fmt.Errorf("elements must be non-negative")
	}
	if c.Runs <= 0 {
		return fmt.Errorf("runs must be positive")
	}
	if c.SortThreshold < 0 {
		return fmt.Errorf("sort_threshold must be non-negative")
	}
	return nil
}

// Engine はベンチマーク実行エンジン
type Engine struct {
	config   Config
	eventBus *events.Bus
	observer pool.Observer
	log      logger.Component

	mu      sync.RWMutex
	running bool
	current int
}

// New は新しいEngineを作成する
func New(config Config) *Engine {
	return &Engine{
		config: config,
		log:    logger.For("bench"),
	}
}

// Config は設定を返す
func (e *Engine) Config() Config {
	return e.config
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus *events.Bus) {
	e.eventBus = bus
}

// SetObserver は各フェーズのプールに渡すObserverを設定する
func (e *Engine) SetObserver(obs pool.Observer) {
	e.observer = obs
}

// Generate は設定のシードから入力データを生成する
// 同じシードなら同じデータになる。
func (e *Engine) Generate() []int {
	r := rand.New(rand.NewPCG(e.config.Seed, e.config.Seed^0x5851f42d4c957f2d))
	data := make([]int, e.config.Elements)
	for i := range data {
		data[i] = r.IntN(e.config.Elements + 1)
	}
	return data
}

// Run は入力データを生成してベンチマークを実行する
func (e *Engine) Run(ctx context.Context, target int) (*Result, error) {
	// Generate は要素数を検証しないので先に確認する
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bench config: %w", err)
	}
	return e.RunData(ctx, uuid.New().String(), e.Generate(), target)
}

// RunData は与えられたデータでベンチマークを実行する
// data は検索フェーズで読むだけで、ソートは各回のコピーに対して行う。
func (e *Engine) RunData(ctx context.Context, runID string, data []int, target int) (*Result, error) {
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bench config: %w", err)
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	e.running = true
	e.current = 0
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	e.log.Info("=== Bench '%s' started (run %s) ===", e.config.Name, runID)
	e.log.Info("%d elements, %d workers, %d runs", len(data), e.config.Threads, e.config.Runs)
	e.publish(events.NewRunStartedEvent(runID, e.config.Name))

	result := &Result{
		RunID:     runID,
		Name:      e.config.Name,
		Elements:  len(data),
		Threads:   e.config.Threads,
		Runs:      e.config.Runs,
		Target:    target,
		StartTime: time.Now(),
	}

	timings := newPhaseTimings(e.config.Baseline)
	if err := e.iterate(ctx, runID, data, target, result, timings); err != nil {
		e.log.Error("Bench '%s' failed: %v", e.config.Name, err)
		e.publish(events.NewRunFailedEvent(runID, err))
		return nil, err
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	timings.collect(result)

	e.log.Info("=== Bench '%s' completed in %v ===", e.config.Name, result.Duration.Round(time.Millisecond))
	e.publish(events.NewRunCompletedEvent(runID, e.config.Name, result.Duration))

	return result, nil
}

func (e *Engine) iterate(ctx context.Context, runID string, data []int, target int, result *Result, t *phaseTimings) error {
	for run := 1; run <= e.config.Runs; run++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled before run %d: %w", run, err)
		}
		e.mu.Lock()
		e.current = run
		e.mu.Unlock()

		found, err := e.searchPhase(ctx, runID, run, data, target, t.search, result)
		if err != nil {
			return err
		}
		if run == 1 {
			result.Found = found
		} else if found != result.Found {
			return fmt.Errorf("run %d: search result changed from %v to %v", run, result.Found, found)
		}

		if err := e.sortPhase(runID, run, data, t.sort, result); err != nil {
			return err
		}

		if e.config.Baseline {
			if err := e.baselinePhase(runID, run, data, target, found, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) newPool(name string) *pool.Pool {
	return pool.NewWithConfig(pool.Config{
		NumWorkers: e.config.Threads,
		Name:       name,
		Observer:   e.observer,
	})
}

func (e *Engine) searchPhase(ctx context.Context, runID string, run int, data []int, target int, t *metrics.Timings, result *Result) (bool, error) {
	e.publish(events.NewPhaseStartedEvent(runID, events.PhaseSearch, run))

	p := e.newPool("search")
	start := time.Now()
	found, err := sortsearch.Search(ctx, p, data, target)
	elapsed := time.Since(start)
	p.Shutdown()
	result.addPoolStats(p.Stats())

	if err != nil {
		return false, fmt.Errorf("run %d: search failed: %w", run, err)
	}
	t.Record(elapsed)

	e.log.Debug("run %d: search %v (found=%v)", run, elapsed, found)
	e.publish(events.NewSearchCompletedEvent(runID, run, elapsed, found))
	return found, nil
}

func (e *Engine) sortPhase(runID string, run int, data []int, t *metrics.Timings, result *Result) error {
	e.publish(events.NewPhaseStartedEvent(runID, events.PhaseSort, run))

	work := slices.Clone(data)
	p := e.newPool("sort")
	start := time.Now()
	err := sortsearch.Sort(p, work, sortsearch.WithThreshold(e.config.SortThreshold))
	elapsed := time.Since(start)
	p.Shutdown()
	result.addPoolStats(p.Stats())

	if err != nil {
		return fmt.Errorf("run %d: sort failed: %w", run, err)
	}
	if !slices.IsSorted(work) {
		return fmt.Errorf("run %d: sort produced unordered output", run)
	}
	t.Record(elapsed)

	e.log.Debug("run %d: sort %v", run, elapsed)
	e.publish(events.NewPhaseCompletedEvent(runID, events.PhaseSort, run, elapsed))
	return nil
}

func (e *Engine) baselinePhase(runID string, run int, data []int, target int, found bool, t *phaseTimings) error {
	e.publish(events.NewPhaseStartedEvent(runID, events.PhaseBaselineFind, run))
	var want bool
	elapsed := t.baselineSearch.Time(func() { want = slices.Contains(data, target) })
	if want != found {
		return fmt.Errorf("run %d: parallel search returned %v, slices.Contains returned %v", run, found, want)
	}
	e.publish(events.NewPhaseCompletedEvent(runID, events.PhaseBaselineFind, run, elapsed))

	e.publish(events.NewPhaseStartedEvent(runID, events.PhaseBaselineSort, run))
	work := slices.Clone(data)
	elapsed = t.baselineSort.Time(func() { slices.Sort(work) })
	e.publish(events.NewPhaseCompletedEvent(runID, events.PhaseBaselineSort, run, elapsed))
	return nil
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// CurrentRun は実行中の回（1始まり）を返す。実行していなければ0
func (e *Engine) CurrentRun() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.running {
		return 0
	}
	return e.current
}

func (e *Engine) publish(event events.Event) {
	if e.eventBus != nil {
		e.eventBus.Publish(event)
	}
}
