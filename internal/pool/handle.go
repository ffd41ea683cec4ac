package pool

import (
	"context"
	"sync/atomic"
)

// Handle は投入したタスクの結果を非同期に受け取るための一回限りのチャネル
//
// 実行したワーカーが一度だけ解決し、保持者は何度でも、何人でも結果を読める。
type Handle[R any] struct {
	done     chan struct{}
	resolved atomic.Bool

	value R
	err   error
}

func newHandle[R any]() *Handle[R] {
	return &Handle[R]{done: make(chan struct{})}
}

// resolve は結果を書き込む。二度目以降の呼び出しは false を返して何もしない
func (h *Handle[R]) resolve(value R, err error) bool {
	if !h.resolved.CompareAndSwap(false, true) {
		return false
	}
	h.value = value
	h.err = err
	close(h.done)
	return true
}

// Get は解決されるまでブロックし、値または捕捉された失敗を返す
func (h *Handle[R]) Get() (R, error) {
	<-h.done
	return h.value, h.err
}

// GetContext は ctx が終了するまでの間だけ解決を待つ
// タイムアウトしてもタスク自体はキャンセルされない。
func (h *Handle[R]) GetContext(ctx context.Context) (R, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Wait は解決を待ち、エラーだけを返す
func (h *Handle[R]) Wait() error {
	<-h.done
	return h.err
}

// Done は解決時にクローズされるチャネルを返す
func (h *Handle[R]) Done() <-chan struct{} {
	return h.done
}

// Resolved はブロックせずに解決済みかを返す
func (h *Handle[R]) Resolved() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
