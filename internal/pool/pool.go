package pool

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"poolsort/internal/logger"
)

// State はプールのライフサイクル状態
type State int32

const (
	StateRunning  State = iota // 投入を受け付けている
	StateDraining              // 投入を拒否し、残りのタスクを実行中
	StateStopped               // 全ワーカーが終了した（不可逆）
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateDraining:
		return "Draining"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Config はワーカープールの設定
type Config struct {
	NumWorkers int      // ワーカー数（0以下でCPU数）
	Name       string   // ログに出す名前
	Observer   Observer // nil ならイベントを捨てる
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		NumWorkers: 0,
		Name:       "pool",
	}
}

// Stats はプール統計のスナップショット
type Stats struct {
	Workers   int
	Pending   int
	Submitted uint64
	Completed uint64
	Failed    uint64
	Rejected  uint64
	State     State
}

// Pool は固定数のワーカーでFIFOキューを処理するプール
type Pool struct {
	name       string
	numWorkers int
	queue      *TaskQueue
	observer   Observer
	log        logger.Component

	// mu はシャットダウンフラグの遷移とワーカーの待機条件を守る
	mu       sync.Mutex
	wake     *sync.Cond
	shutdown bool

	state   atomic.Int32
	wg      sync.WaitGroup
	stopped chan struct{}

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	rejected  atomic.Uint64
}

// New は numWorkers 個のワーカーを起動したプールを返す
// numWorkers が 0 以下の場合は CPU 数を使用
func New(numWorkers int) *Pool {
	config := DefaultConfig()
	config.NumWorkers = numWorkers
	return NewWithConfig(config)
}

// NewWithConfig は設定を指定してプールを作成し、ワーカーを即座に起動する
func NewWithConfig(config Config) *Pool {
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	name := config.Name
	if name == "" {
		name = "pool"
	}
	observer := config.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	p := &Pool{
		name:       name,
		numWorkers: numWorkers,
		queue:      NewTaskQueue(),
		observer:   observer,
		log:        logger.For("pool").Named(name),
		stopped:    make(chan struct{}),
	}
	p.wake = sync.NewCond(&p.mu)
	p.state.Store(int32(StateRunning))

	p.wg.Add(numWorkers)
	for i := range numWorkers {
		go p.worker(i)
	}

	p.log.Debug("started %d workers", numWorkers)
	return p
}

// worker は個々のワーカーゴルーチン
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for !p.shutdown && p.queue.IsEmpty() {
			p.wake.Wait()
		}
		// シャットダウン済みでも残りがあれば実行する
		task, ok := p.queue.TryDequeue()
		if ok {
			// キュー操作と同じ順序で報告するためロック中に通知する
			p.observer.QueueDepth(p.queue.Len())
		}
		p.mu.Unlock()

		if !ok {
			p.log.Debug("worker %d exiting", id)
			return
		}
		task()
	}
}

// enqueue はシャットダウンを確認してからタスクを積み、ワーカーを一つ起こす
func (p *Pool) enqueue(task Task) error {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		p.rejected.Add(1)
		p.observer.TaskRejected()
		return ErrPoolClosed
	}
	p.queue.Enqueue(task)
	p.submitted.Add(1)
	p.observer.QueueDepth(p.queue.Len())
	p.mu.Unlock()

	p.observer.TaskSubmitted()
	p.wake.Signal()
	return nil
}

// finish はタスク完了時の統計を更新する
func (p *Pool) finish(elapsed time.Duration, err error) {
	if err != nil {
		p.failed.Add(1)
	} else {
		p.completed.Add(1)
	}
	p.observer.TaskFinished(elapsed, err)
}

// Submit は fn をプールに投入し、結果を受け取る Handle を即座に返す
//
// シャットダウン開始後は ErrPoolClosed を返す。fn が返したエラーや panic は
// *TaskError として Handle に捕捉され、ワーカーは処理を続ける。
func Submit[R any](p *Pool, fn func() (R, error)) (*Handle[R], error) {
	if fn == nil {
		return nil, ErrNilTask
	}

	h := newHandle[R]()
	task := func() {
		start := time.Now()
		value, err := invoke(fn)
		p.finish(time.Since(start), err)
		h.resolve(value, err)
	}

	if err := p.enqueue(task); err != nil {
		return nil, err
	}
	return h, nil
}

// Go は結果値を持たないタスクを投入する
func (p *Pool) Go(fn func() error) (*Handle[struct{}], error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	return Submit(p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

// invoke は fn を実行し、エラーと panic を TaskError に変換する
func invoke[R any](fn func() (R, error)) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskError{Panic: r, Stack: debug.Stack(), panicked: true}
		}
	}()

	value, err = fn()
	if err != nil {
		err = &TaskError{Err: err}
	}
	return value, err
}

// Shutdown は新規投入を止め、キューに残ったタスクを実行し終えるまで待つ
//
// 複数回・並行に呼んでも安全で、全ての呼び出しはプールが Stopped になるまでブロックする。
// プール内のタスクから呼ぶとそのワーカー自身を待つことになりデッドロックする。
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		<-p.stopped
		return
	}
	p.shutdown = true
	p.state.Store(int32(StateDraining))
	pending := p.queue.Len()
	p.wake.Broadcast()
	p.mu.Unlock()

	p.log.Debug("shutting down, draining %d pending tasks", pending)
	p.wg.Wait()

	p.state.Store(int32(StateStopped))
	close(p.stopped)
	p.log.Debug("stopped (completed=%d failed=%d)", p.completed.Load(), p.failed.Load())
}

// Stopped は全ワーカー終了時にクローズされるチャネルを返す
func (p *Pool) Stopped() <-chan struct{} {
	return p.stopped
}

// State は現在の状態を返す
func (p *Pool) State() State {
	return State(p.state.Load())
}

// Name は設定された名前を返す
func (p *Pool) Name() string {
	return p.name
}

// Size はワーカー数を返す
func (p *Pool) Size() int {
	return p.numWorkers
}

// Pending はキューに残っているタスク数を返す
func (p *Pool) Pending() int {
	return p.queue.Len()
}

// Stats は統計のスナップショットを返す
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.numWorkers,
		Pending:   p.queue.Len(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
		State:     p.State(),
	}
}
