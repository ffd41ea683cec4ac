package metrics

import (
	"math"
	"slices"
	"sync"
	"time"
)

// Timings はフェーズごとの所要時間サンプルを集計する
type Timings struct {
	mu         sync.RWMutex
	samples    []time.Duration
	maxSamples int
	count      uint64
	total      time.Duration
	min        time.Duration
	max        time.Duration
}

// Config はTimingsの設定
type Config struct {
	MaxSamples int // P99/標準偏差の計算に保持するサンプル数
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{MaxSamples: 1000}
}

// New はデフォルト設定でTimingsを作成する
func New() *Timings {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定してTimingsを作成する
func NewWithConfig(config Config) *Timings {
	maxSamples := config.MaxSamples
	if maxSamples <= 0 {
		maxSamples = DefaultConfig().MaxSamples
	}
	return &Timings{
		samples:    make([]time.Duration, 0, min(maxSamples, 64)),
		maxSamples: maxSamples,
	}
}

// Record は1回分の所要時間を記録する
func (t *Timings) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	t.count++
	t.total += d
	if len(t.samples) < t.maxSamples {
		t.samples = append(t.samples, d)
	}
}

// Time は fn を実行し、その所要時間を記録して返す
func (t *Timings) Time(fn func()) time.Duration {
	start := time.Now()
	fn()
	elapsed := time.Since(start)
	t.Record(elapsed)
	return elapsed
}

// Count は記録数を返す
func (t *Timings) Count() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Average は平均所要時間を返す
func (t *Timings) Average() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.average()
}

func (t *Timings) average() time.Duration {
	if t.count == 0 {
		return 0
	}
	return t.total / time.Duration(t.count)
}

// StdDev は保持サンプルの母標準偏差を返す
func (t *Timings) StdDev() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := len(t.samples)
	if n == 0 {
		return 0
	}

	var sum float64
	for _, s := range t.samples {
		sum += float64(s)
	}
	mean := sum / float64(n)

	var variance float64
	for _, s := range t.samples {
		diff := float64(s) - mean
		variance += diff * diff
	}
	return time.Duration(math.Sqrt(variance / float64(n)))
}

// P99 はP99所要時間を返す（サンプルベース）
func (t *Timings) P99() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.samples) == 0 {
		return 0
	}

	sorted := slices.Clone(t.samples)
	slices.Sort(sorted)

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Min は最小所要時間を返す
func (t *Timings) Min() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.min
}

// Max は最大所要時間を返す
func (t *Timings) Max() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.max
}

// Reset は全ての記録を消去する
func (t *Timings) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples = t.samples[:0]
	t.count = 0
	t.total = 0
	t.min = 0
	t.max = 0
}

// Snapshot は集計値のスナップショット
type Snapshot struct {
	Count   uint64        `json:"count"`
	Average time.Duration `json:"average"`
	StdDev  time.Duration `json:"std_dev"`
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	P99     time.Duration `json:"p99"`
	Total   time.Duration `json:"total"`
}

// Snapshot は現在の集計のスナップショットを返す
func (t *Timings) Snapshot() Snapshot {
	t.mu.RLock()
	count, total, lo, hi := t.count, t.total, t.min, t.max
	avg := t.average()
	t.mu.RUnlock()

	return Snapshot{
		Count:   count,
		Average: avg,
		StdDev:  t.StdDev(),
		Min:     lo,
		Max:     hi,
		P99:     t.P99(),
		Total:   total,
	}
}
