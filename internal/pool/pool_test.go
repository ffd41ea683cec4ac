package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	p := New(4)
	defer p.Shutdown()

	assert.Equal(t, 4, p.Size())
	assert.Equal(t, StateRunning, p.State())
	assert.Equal(t, 0, p.Pending())
	assert.Equal(t, "pool", p.Name())
}

func TestNewPoolDefaultsToCPUCount(t *testing.T) {
	for _, n := range []int{0, -5} {
		p := New(n)
		assert.Equal(t, runtime.NumCPU(), p.Size(), "workers for n=%d", n)
		p.Shutdown()
	}
}

func TestSubmitReturnsValue(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	h, err := Submit(p, func() (int, error) { return 42, nil })
	require.NoError(t, err)

	v, err := h.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, h.Resolved())
}

func TestSubmitNilTask(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	_, err := Submit[int](p, nil)
	assert.ErrorIs(t, err, ErrNilTask)

	_, err = p.Go(nil)
	assert.ErrorIs(t, err, ErrNilTask)
}

func TestEveryTaskRunsExactlyOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 4, 16} {
		p := New(workers)

		const numTasks = 500
		counts := make([]atomic.Int32, numTasks)
		handles := make([]*Handle[int], 0, numTasks)

		for i := range numTasks {
			h, err := Submit(p, func() (int, error) {
				counts[i].Add(1)
				return i, nil
			})
			require.NoError(t, err)
			handles = append(handles, h)
		}

		for i, h := range handles {
			v, err := h.Get()
			require.NoError(t, err)
			assert.Equal(t, i, v)
		}
		p.Shutdown()

		for i := range counts {
			assert.Equal(t, int32(1), counts[i].Load(), "task %d with %d workers", i, workers)
		}
		stats := p.Stats()
		assert.Equal(t, uint64(numTasks), stats.Submitted)
		assert.Equal(t, uint64(numTasks), stats.Completed)
		assert.Zero(t, stats.Failed)
	}
}

func TestShutdownDrainsQueuedTasks(t *testing.T) {
	p := New(4)

	handles := make([]*Handle[struct{}], 0, 100)
	for range 100 {
		h, err := p.Go(func() error { return nil })
		require.NoError(t, err)
		handles = append(handles, h)
	}

	p.Shutdown()

	for i, h := range handles {
		assert.True(t, h.Resolved(), "handle %d should be resolved before Shutdown returns", i)
	}
	assert.Equal(t, StateStopped, p.State())
	assert.Equal(t, uint64(100), p.Stats().Completed)
}

func TestShutdownDrainsBehindBlockedWorker(t *testing.T) {
	p := New(1)
	release := make(chan struct{})
	var ran atomic.Int32

	_, err := p.Go(func() error {
		<-release
		ran.Add(1)
		return nil
	})
	require.NoError(t, err)
	for range 10 {
		_, err := p.Go(func() error {
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()

	assert.Eventually(t, func() bool { return p.State() == StateDraining }, time.Second, time.Millisecond)
	_, err = p.Go(func() error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}
	assert.Equal(t, int32(11), ran.Load())
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := New(2)
	p.Shutdown()

	var ran atomic.Bool
	h, err := Submit(p, func() (int, error) {
		ran.Store(true)
		return 1, nil
	})

	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.Nil(t, h)
	assert.False(t, ran.Load())
	assert.Equal(t, uint64(1), p.Stats().Rejected)
}

func TestShutdownIsIdempotent(t *testing.T) {
	p := New(3)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Shutdown()
			assert.Equal(t, StateStopped, p.State())
		}()
	}
	wg.Wait()

	p.Shutdown()
	select {
	case <-p.Stopped():
	default:
		t.Fatal("Stopped channel should be closed")
	}
}

func TestTaskErrorIsCaptured(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	boom := errors.New("boom")
	h, err := Submit(p, func() (string, error) { return "", boom })
	require.NoError(t, err)

	_, err = h.Get()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrTaskFailed)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.False(t, taskErr.Panicked())
}

func TestTaskPanicDoesNotKillWorker(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	h, err := p.Go(func() error { panic("worker test panic") })
	require.NoError(t, err)

	err = h.Wait()
	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.True(t, taskErr.Panicked())
	assert.Equal(t, "worker test panic", taskErr.Panic)
	assert.NotEmpty(t, taskErr.Stack)
	assert.Contains(t, err.Error(), "worker test panic")

	// 同じ唯一のワーカーが次のタスクを処理できること
	next, err := Submit(p, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	v, err := next.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	assert.Equal(t, uint64(1), p.Stats().Failed)
}

func TestDequeueOrderIsFIFO(t *testing.T) {
	p := New(1)
	started := make(chan struct{})
	release := make(chan struct{})

	_, err := p.Go(func() error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	var mu sync.Mutex
	var order []int
	for i := range 20 {
		_, err := p.Go(func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}

	assert.Equal(t, 20, p.Pending())
	close(release)
	p.Shutdown()

	expected := make([]int, 20)
	for i := range expected {
		expected[i] = i
	}
	assert.Equal(t, expected, order)
}

func TestNestedSubmission(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	inner := make(chan *Handle[int], 1)
	outer, err := p.Go(func() error {
		h, err := Submit(p, func() (int, error) { return 5, nil })
		if err != nil {
			return err
		}
		inner <- h
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, outer.Wait())

	v, err := (<-inner).Get()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestWorkersRunInParallel(t *testing.T) {
	const workers = 4
	p := New(workers)
	defer p.Shutdown()

	var running, peak atomic.Int32
	barrier := make(chan struct{})
	handles := make([]*Handle[struct{}], 0, workers)

	for range workers {
		h, err := p.Go(func() error {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-barrier
			running.Add(-1)
			return nil
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	assert.Eventually(t, func() bool { return peak.Load() == workers }, time.Second, time.Millisecond)
	close(barrier)
	for _, h := range handles {
		require.NoError(t, h.Wait())
	}
}

func TestHandleSharedByMultipleReaders(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	release := make(chan struct{})
	h, err := Submit(p, func() (int, error) {
		<-release
		return 99, nil
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := h.Get()
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	close(release)
	wg.Wait()
	for _, v := range results {
		assert.Equal(t, 99, v)
	}
}

func TestHandleGetContext(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	release := make(chan struct{})
	h, err := Submit(p, func() (int, error) {
		<-release
		return 3, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = h.GetContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, h.Resolved())

	close(release)
	v, err := h.GetContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestHandleResolvesOnce(t *testing.T) {
	h := newHandle[int]()

	assert.True(t, h.resolve(1, nil))
	assert.False(t, h.resolve(2, errors.New("late")))

	v, err := h.Get()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}

type recordingObserver struct {
	submitted atomic.Int32
	rejected  atomic.Int32
	finished  atomic.Int32
	failed    atomic.Int32
	depthSeen atomic.Int32
	lastDepth atomic.Int64
}

func (o *recordingObserver) TaskSubmitted() { o.submitted.Add(1) }
func (o *recordingObserver) TaskRejected()  { o.rejected.Add(1) }
func (o *recordingObserver) TaskFinished(_ time.Duration, err error) {
	o.finished.Add(1)
	if err != nil {
		o.failed.Add(1)
	}
}
func (o *recordingObserver) QueueDepth(n int) {
	o.depthSeen.Add(1)
	o.lastDepth.Store(int64(n))
}

func TestObserverReceivesEvents(t *testing.T) {
	obs := &recordingObserver{}
	p := NewWithConfig(Config{NumWorkers: 2, Name: "observed", Observer: obs})
	assert.Equal(t, "observed", p.Name())

	for i := range 10 {
		_, err := p.Go(func() error {
			if i%5 == 0 {
				return errors.New("fail")
			}
			return nil
		})
		require.NoError(t, err)
	}
	p.Shutdown()
	_, err := p.Go(func() error { return nil })
	require.ErrorIs(t, err, ErrPoolClosed)

	assert.Equal(t, int32(10), obs.submitted.Load())
	assert.Equal(t, int32(10), obs.finished.Load())
	assert.Equal(t, int32(2), obs.failed.Load())
	assert.Equal(t, int32(1), obs.rejected.Load())
	assert.Positive(t, obs.depthSeen.Load())
}

func TestObserverQueueDepthSettlesAtZero(t *testing.T) {
	obs := &recordingObserver{}
	p := NewWithConfig(Config{NumWorkers: 4, Observer: obs})

	for range 500 {
		_, err := p.Go(func() error {
			runtime.Gosched()
			return nil
		})
		require.NoError(t, err)
	}
	p.Shutdown()

	assert.Equal(t, int32(1000), obs.depthSeen.Load())
	assert.Equal(t, int64(0), obs.lastDepth.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Draining", StateDraining.String())
	assert.Equal(t, "Stopped", StateStopped.String())
	assert.Equal(t, "Unknown", State(42).String())
}
