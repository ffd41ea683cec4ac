// Package pool provides a fixed-size worker pool with future-style handles.
//
// A Pool owns exactly N worker goroutines and one FIFO TaskQueue. Workers
// sleep on a condition variable until the queue is non-empty or shutdown is
// requested; each submission wakes exactly one of them.
//
// # Basic Usage
//
//	p := pool.New(8)
//	defer p.Shutdown()
//
//	h, err := pool.Submit(p, func() (int, error) {
//	    return compute(), nil
//	})
//	if err != nil {
//	    return err // pool.ErrPoolClosed
//	}
//	v, err := h.Get() // blocks until the task ran
//
// # Failures
//
// A task that returns an error or panics never takes its worker down. The
// failure is stored in the Handle as a *TaskError; errors.Is(err,
// pool.ErrTaskFailed) matches every such failure and errors.Unwrap yields the
// error the task returned.
//
// # Shutdown
//
// Shutdown moves the pool Running -> Draining -> Stopped. Once Draining,
// Submit returns ErrPoolClosed; tasks already queued still run before the
// workers exit. Shutdown blocks until every worker has returned. There is no
// way to cancel a task once it has been accepted.
//
// # Observability
//
// Config.Observer receives submit/reject/finish/queue-depth callbacks; the
// metrics package provides a Prometheus implementation.
package pool
