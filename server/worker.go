package server

import (
	"context"
	"fmt"

	"github.com/chazu/borges/vm"
)

// workRequest represents a unit of work to be executed on the worker goroutine.
type workRequest struct {
	fn   func(*vm.NativeTable) any
	done chan workResult
}

// workResult holds the return value from a worker operation.
type workResult struct {
	value any
	err   error
}

// Worker serializes codec work through a single goroutine. Decoding,
// encoding and native calls run on it; the handle table and the snapshot
// store guard themselves and are used directly by the handlers.
type Worker struct {
	natives  *vm.NativeTable
	requests chan workRequest
	quit     chan struct{}
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker(natives *vm.NativeTable) *Worker {
	w := &Worker{
		natives:  natives,
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn, recovering from panics. Contract violations from the
// vm package panic with an error value, which is kept for errors.As.
func (w *Worker) execute(fn func(*vm.NativeTable) any) workResult {
	var result workResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = &panicError{value: r}
			}
		}()
		result.value = fn(w.natives)
	}()
	return result
}

// Do submits fn for execution on the worker goroutine and blocks until it
// completes or ctx is done. A panic inside fn is returned as a *panicError.
func (w *Worker) Do(ctx context.Context, fn func(*vm.NativeTable) any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-w.quit:
		return nil, errWorkerStopped
	default:
	}
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case w.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.quit:
		return nil, errWorkerStopped
	}
	// A request queued just before Stop is never picked up.
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.quit:
		select {
		case result := <-req.done:
			return result.value, result.err
		default:
			return nil, errWorkerStopped
		}
	}
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	close(w.quit)
}

// panicError carries a value recovered on the worker goroutine.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Unwrap() error {
	err, _ := e.value.(error)
	return err
}
