package pool

import (
	"sync"

	"github.com/eapache/queue"
)

// Task はプールが実行する引数なしの作業単位
type Task func()

// TaskQueue はスレッドセーフなFIFOタスクキュー
//
// 全操作は単一のミューテックス下で実行されるため、内容と件数が食い違うことはない。
type TaskQueue struct {
	mu    sync.Mutex
	items *queue.Queue
}

// NewTaskQueue は空のタスクキューを作成する
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{items: queue.New()}
}

// Enqueue は末尾にタスクを追加する（ブロックしない）
func (q *TaskQueue) Enqueue(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.Add(task)
}

// TryDequeue は先頭のタスクを取り出す。空なら ok=false を返す
func (q *TaskQueue) TryDequeue() (task Task, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Length() == 0 {
		return nil, false
	}
	return q.items.Remove().(Task), true
}

// IsEmpty はキューが空かどうかのスナップショットを返す
func (q *TaskQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Len は未取得のタスク数を返す
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}
