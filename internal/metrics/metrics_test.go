package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestNewTimings(t *testing.T) {
	tm := New()
	if tm.Count() != 0 {
		t.Errorf("expected count 0, got %d", tm.Count())
	}
	if tm.Average() != 0 {
		t.Errorf("expected average 0, got %v", tm.Average())
	}
	if tm.StdDev() != 0 {
		t.Errorf("expected stddev 0, got %v", tm.StdDev())
	}
	if tm.P99() != 0 {
		t.Errorf("expected p99 0, got %v", tm.P99())
	}
}

func TestNewWithConfigInvalidSamples(t *testing.T) {
	tm := NewWithConfig(Config{MaxSamples: -1})
	if tm.maxSamples != DefaultConfig().MaxSamples {
		t.Errorf("expected maxSamples %d, got %d", DefaultConfig().MaxSamples, tm.maxSamples)
	}
}

func TestRecordAggregates(t *testing.T) {
	tm := New()
	for _, d := range []time.Duration{2, 4, 4, 4, 5, 5, 7, 9} {
		tm.Record(d * time.Millisecond)
	}

	if tm.Count() != 8 {
		t.Errorf("expected count 8, got %d", tm.Count())
	}
	if tm.Average() != 5*time.Millisecond {
		t.Errorf("expected average 5ms, got %v", tm.Average())
	}
	// 母標準偏差は 2
	if tm.StdDev() != 2*time.Millisecond {
		t.Errorf("expected stddev 2ms, got %v", tm.StdDev())
	}
	if tm.Min() != 2*time.Millisecond {
		t.Errorf("expected min 2ms, got %v", tm.Min())
	}
	if tm.Max() != 9*time.Millisecond {
		t.Errorf("expected max 9ms, got %v", tm.Max())
	}
}

func TestSingleSampleHasZeroStdDev(t *testing.T) {
	tm := New()
	tm.Record(3 * time.Second)

	if tm.StdDev() != 0 {
		t.Errorf("expected stddev 0, got %v", tm.StdDev())
	}
	if tm.Average() != 3*time.Second {
		t.Errorf("expected average 3s, got %v", tm.Average())
	}
}

func TestP99(t *testing.T) {
	tm := New()
	for i := 1; i <= 100; i++ {
		tm.Record(time.Duration(i) * time.Millisecond)
	}

	if tm.P99() != 100*time.Millisecond {
		t.Errorf("expected p99 100ms, got %v", tm.P99())
	}
}

func TestMaxSamplesLimit(t *testing.T) {
	tm := NewWithConfig(Config{MaxSamples: 10})
	for i := range 50 {
		tm.Record(time.Duration(i+1) * time.Millisecond)
	}

	if len(tm.samples) != 10 {
		t.Errorf("expected 10 samples, got %d", len(tm.samples))
	}
	if tm.Count() != 50 {
		t.Errorf("expected count 50, got %d", tm.Count())
	}
	if tm.Max() != 50*time.Millisecond {
		t.Errorf("expected max 50ms, got %v", tm.Max())
	}
}

func TestTime(t *testing.T) {
	tm := New()
	elapsed := tm.Time(func() { time.Sleep(5 * time.Millisecond) })

	if elapsed < 5*time.Millisecond {
		t.Errorf("expected elapsed >= 5ms, got %v", elapsed)
	}
	if tm.Count() != 1 {
		t.Errorf("expected count 1, got %d", tm.Count())
	}
}

func TestReset(t *testing.T) {
	tm := New()
	tm.Record(time.Millisecond)
	tm.Record(2 * time.Millisecond)
	tm.Reset()

	if tm.Count() != 0 {
		t.Errorf("expected count 0 after reset, got %d", tm.Count())
	}
	if tm.Min() != 0 || tm.Max() != 0 {
		t.Errorf("expected min/max 0 after reset, got %v/%v", tm.Min(), tm.Max())
	}

	tm.Record(7 * time.Millisecond)
	if tm.Min() != 7*time.Millisecond {
		t.Errorf("expected min 7ms, got %v", tm.Min())
	}
}

func TestSnapshot(t *testing.T) {
	tm := New()
	tm.Record(10 * time.Millisecond)
	tm.Record(30 * time.Millisecond)

	snap := tm.Snapshot()
	if snap.Count != 2 {
		t.Errorf("expected count 2, got %d", snap.Count)
	}
	if snap.Average != 20*time.Millisecond {
		t.Errorf("expected average 20ms, got %v", snap.Average)
	}
	if snap.StdDev != 10*time.Millisecond {
		t.Errorf("expected stddev 10ms, got %v", snap.StdDev)
	}
	if snap.Total != 40*time.Millisecond {
		t.Errorf("expected total 40ms, got %v", snap.Total)
	}
	if snap.Min != 10*time.Millisecond || snap.Max != 30*time.Millisecond {
		t.Errorf("expected min/max 10ms/30ms, got %v/%v", snap.Min, snap.Max)
	}
}

func TestConcurrentRecord(t *testing.T) {
	tm := New()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tm.Record(time.Millisecond)
				_ = tm.Snapshot()
			}
		}()
	}
	wg.Wait()

	if tm.Count() != 1000 {
		t.Errorf("expected count 1000, got %d", tm.Count())
	}
}
