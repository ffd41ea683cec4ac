// Package sortsearch implements parallel quicksort and segmented linear
// search on top of a pool.Pool.
//
// Both algorithms work on index ranges of a single caller-owned slice; no
// sub-slices are copied.
//
// # Sort
//
// Sort partitions around the middle element, submits the left range to the
// pool and keeps working on the right range itself. Ranges at or below the
// threshold (DefaultThreshold, see WithThreshold) are sorted on the current
// goroutine. Sort returns only after every task it submitted has finished:
//
//	p := pool.New(8)
//	defer p.Shutdown()
//	if err := sortsearch.Sort(p, data); err != nil {
//	    return err
//	}
//
// # Search
//
// Search splits the slice into one contiguous segment per worker. Segments
// stop scanning once any of them has reported a match, and the caller
// returns as soon as a match is seen:
//
//	ok, err := sortsearch.Search(ctx, p, data, 42)
//
// Cancelling ctx ends the wait but not the segment tasks.
//
// Calling Sort or Search from inside a pool task is not supported: a worker
// blocked waiting on its own pool can starve it.
package sortsearch
