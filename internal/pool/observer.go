package pool

import "time"

// Observer はプールのライフサイクルイベントを受け取る
// 実装はワーカーから並行に呼ばれるためスレッドセーフでなければならない。
type Observer interface {
	TaskSubmitted()
	TaskRejected()
	TaskFinished(elapsed time.Duration, err error)
	// QueueDepth はプールのロックを保持したまま呼ばれる。プールを呼び返してはならない。
	QueueDepth(n int)
}

type nopObserver struct{}

func (nopObserver) TaskSubmitted()                    {}
func (nopObserver) TaskRejected()                     {}
func (nopObserver) TaskFinished(time.Duration, error) {}
func (nopObserver) QueueDepth(int)                    {}
