package sortsearch

import (
	"cmp"
	"fmt"
	"sync"

	"poolsort/internal/pool"
)

// DefaultThreshold はこの要素数以下の範囲をタスク化せず同期的にソートする
const DefaultThreshold = 2048

// insertionCutoff 未満の範囲は挿入ソートで片付ける
const insertionCutoff = 12

type sortOptions struct {
	threshold int
}

// SortOption はSortの動作を変更する
type SortOption func(*sortOptions)

// WithThreshold はタスクとして投入する最小範囲を設定する（0以下でデフォルト）
func WithThreshold(n int) SortOption {
	return func(o *sortOptions) {
		if n > 0 {
			o.threshold = n
		}
	}
}

// sorter は1回のSort呼び出しが投入したタスクを追跡する
type sorter[T cmp.Ordered] struct {
	p         *pool.Pool
	a         []T
	threshold int

	mu      sync.Mutex
	handles []*pool.Handle[struct{}]
}

// Sort は a をプール上の並列クイックソートでその場ソートする
// 全てのサブタスクが終わるまで戻らない。失敗したサブタスクがあれば最初のエラーを返す。
func Sort[T cmp.Ordered](p *pool.Pool, a []T, opts ...SortOption) error {
	o := sortOptions{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}

	if len(a) <= o.threshold {
		SortSequential(a)
		return nil
	}

	s := &sorter[T]{p: p, a: a, threshold: o.threshold}
	err := s.run(0, len(a)-1)
	if werr := s.wait(); err == nil {
		err = werr
	}
	return err
}

// SortSequential は a を呼び出し元のゴルーチンだけでソートする
func SortSequential[T cmp.Ordered](a []T) {
	sortRange(a, 0, len(a)-1)
}

// run は [lo, hi] を分割し、左側をタスクとして投入して右側を自分で続ける
func (s *sorter[T]) run(lo, hi int) error {
	for hi-lo+1 > s.threshold {
		j := partition(s.a, lo, hi)
		if err := s.spawn(lo, j-1); err != nil {
			return err
		}
		lo = j + 1
	}
	sortRange(s.a, lo, hi)
	return nil
}

func (s *sorter[T]) spawn(lo, hi int) error {
	if hi-lo+1 <= s.threshold {
		sortRange(s.a, lo, hi)
		return nil
	}

	h, err := s.p.Go(func() error { return s.run(lo, hi) })
	if err != nil {
		return fmt.Errorf("failed to submit sort range [%d, %d]: %w", lo, hi, err)
	}

	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
	return nil
}

// wait は記録済みのハンドルを順に待つ
// タスクは自身が解決される前に子のハンドルを追加するので、末尾に追いついた時点で全タスクが終わっている。
func (s *sorter[T]) wait() error {
	var first error
	for i := 0; ; i++ {
		s.mu.Lock()
		if i >= len(s.handles) {
			s.mu.Unlock()
			return first
		}
		h := s.handles[i]
		s.mu.Unlock()

		if err := h.Wait(); err != nil && first == nil {
			first = err
		}
	}
}

// partition は中央の要素をピボットとして [lo, hi] を分割し、ピボットの最終位置を返す
// ピボットと等しい要素でも走査を止めるため、重複が多くても分割が偏らない。
func partition[T cmp.Ordered](a []T, lo, hi int) int {
	mid := lo + (hi-lo)/2
	a[lo], a[mid] = a[mid], a[lo]
	pivot := a[lo]

	i, j := lo, hi+1
	for {
		for i++; i < hi && cmp.Less(a[i], pivot); i++ {
		}
		for j--; j > lo && cmp.Less(pivot, a[j]); j-- {
		}
		if i >= j {
			break
		}
		a[i], a[j] = a[j], a[i]
	}
	a[lo], a[j] = a[j], a[lo]
	return j
}

// sortRange は小さい側を再帰し、大きい側をループで処理する
func sortRange[T cmp.Ordered](a []T, lo, hi int) {
	for lo < hi {
		if hi-lo < insertionCutoff {
			insertionSort(a, lo, hi)
			return
		}
		j := partition(a, lo, hi)
		if j-lo < hi-j {
			sortRange(a, lo, j-1)
			lo = j + 1
		} else {
			sortRange(a, j+1, hi)
			hi = j - 1
		}
	}
}

func insertionSort[T cmp.Ordered](a []T, lo, hi int) {
	for i := lo + 1; i <= hi; i++ {
		for k := i; k > lo && cmp.Less(a[k], a[k-1]); k-- {
			a[k], a[k-1] = a[k-1], a[k]
		}
	}
}
