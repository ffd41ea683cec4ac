package sortsearch

import (
	"context"
	"fmt"
	"sync/atomic"

	"poolsort/internal/pool"
)

// hit は1回の検索呼び出しで共有される発見状態
type hit struct {
	found atomic.Bool
	index atomic.Int64
	done  chan struct{}
}

func (h *hit) mark(i int) {
	if h.found.CompareAndSwap(false, true) {
		h.index.Store(int64(i))
		close(h.done)
	}
}

// Search は a に target が含まれるかをプール上の分割線形探索で調べる
func Search[T comparable](ctx context.Context, p *pool.Pool, a []T, target T) (bool, error) {
	idx, err := SearchIndex(ctx, p, a, target)
	if err != nil {
		return false, err
	}
	return idx >= 0, nil
}

// SearchIndex は target と一致した位置を返す。見つからなければ -1
// 複数一致する場合、最初に一致を報告したセグメントの位置になる。
func SearchIndex[T comparable](ctx context.Context, p *pool.Pool, a []T, target T) (int, error) {
	return searchFunc(ctx, p, len(a), func(i int) bool { return a[i] == target })
}

// searchFunc は [0, length) をセグメントに分け、match が真になる位置を探す
func searchFunc(ctx context.Context, p *pool.Pool, length int, match func(i int) bool) (int, error) {
	if length == 0 {
		return -1, nil
	}

	n := min(p.Size(), length)
	size := length / n
	h := &hit{done: make(chan struct{})}
	handles := make([]*pool.Handle[struct{}], 0, n)

	for k := range n {
		lo := k * size
		hi := lo + size
		if k == n-1 {
			hi = length
		}

		handle, err := p.Go(func() error {
			for i := lo; i < hi; i++ {
				if h.found.Load() {
					return nil
				}
				if match(i) {
					h.mark(i)
					return nil
				}
			}
			return nil
		})
		if err != nil {
			return -1, fmt.Errorf("failed to submit search segment [%d, %d): %w", lo, hi, err)
		}
		handles = append(handles, handle)
	}

	for _, handle := range handles {
		select {
		case <-h.done:
			return int(h.index.Load()), nil
		case <-ctx.Done():
			return -1, ctx.Err()
		case <-handle.Done():
			if err := handle.Wait(); err != nil {
				if h.found.Load() {
					<-h.done
					return int(h.index.Load()), nil
				}
				return -1, fmt.Errorf("search segment failed: %w", err)
			}
		}
	}

	if h.found.Load() {
		<-h.done
		return int(h.index.Load()), nil
	}
	return -1, nil
}
