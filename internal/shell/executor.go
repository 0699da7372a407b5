package shell

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/decyjphr/github-repository-analysis/internal/logger"
)

// DefaultTimeout bounds one background call.
const DefaultTimeout = 30 * time.Second

// Executor runs a request to completion or until ctx is done.
type Executor interface {
	Run(ctx context.Context, req Request) (Response, error)
}

type dispatchFunc func(Request) (Response, error)

// Inline runs the request on the calling goroutine after yielding once to the
// scheduler.
type Inline struct {
	dispatch dispatchFunc
}

func (e Inline) Run(ctx context.Context, req Request) (Response, error) {
	runtime.Gosched()
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	d := e.dispatch
	if d == nil {
		d = Dispatch
	}
	return d(req)
}

type job struct {
	ctx   context.Context
	req   Request
	reply chan result
}

type result struct {
	resp Response
	err  error
}

// Background runs requests on a fixed pool of worker goroutines. Admission is
// bounded by a weighted semaphore so callers wait under their own deadline
// instead of queueing without limit.
type Background struct {
	jobs     chan job
	sem      *semaphore.Weighted
	timeout  time.Duration
	log      *logger.Logger
	dispatch dispatchFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewBackground starts workers goroutines. A timeout <= 0 uses DefaultTimeout.
func NewBackground(workers int, timeout time.Duration, log *logger.Logger) *Background {
	return newBackground(workers, timeout, log, Dispatch)
}

func newBackground(workers int, timeout time.Duration, log *logger.Logger, d dispatchFunc) *Background {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	b := &Background{
		jobs:     make(chan job),
		sem:      semaphore.NewWeighted(int64(workers) * 2),
		timeout:  timeout,
		log:      log,
		dispatch: d,
	}
	b.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go b.worker()
	}
	b.log.Debugw("background executor started", "workers", workers, "timeout", timeout)
	return b
}

func (b *Background) worker() {
	defer b.wg.Done()
	for j := range b.jobs {
		if err := j.ctx.Err(); err != nil {
			j.reply <- result{err: err}
			continue
		}
		resp, err := b.dispatch(j.req)
		j.reply <- result{resp: resp, err: err}
	}
}

// Run submits req and waits for its result. Exceeding the timeout returns
// ErrTimeout; the worker's late result is dropped.
func (b *Background) Run(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return Response{}, b.ctxErr(ctx)
	}
	defer b.sem.Release(1)

	reply := make(chan result, 1)
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return Response{}, ErrClosed
	}
	select {
	case b.jobs <- job{ctx: ctx, req: req, reply: reply}:
		b.mu.RUnlock()
	case <-ctx.Done():
		b.mu.RUnlock()
		return Response{}, b.ctxErr(ctx)
	}

	select {
	case r := <-reply:
		return r.resp, r.err
	case <-ctx.Done():
		return Response{}, b.ctxErr(ctx)
	}
}

func (b *Background) ctxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}

// Close stops accepting work and waits for the workers to drain.
func (b *Background) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.jobs)
	b.mu.Unlock()
	b.wg.Wait()
}

// Fallback runs Primary and, when it times out or fails for a reason other
// than the request itself, retries the same request on Secondary.
type Fallback struct {
	Primary   Executor
	Secondary Executor
	Log       *logger.Logger
}

func (f Fallback) Run(ctx context.Context, req Request) (Response, error) {
	resp, err := f.Primary.Run(ctx, req)
	if err == nil {
		return resp, nil
	}
	if !retryable(ctx, err) {
		if f.Log != nil && ctx.Err() == nil {
			f.Log.WithOp(req.Op.String()).Warnw("background execution failed, inline retry skipped", "error", err)
		}
		return resp, err
	}
	if f.Log != nil {
		f.Log.WithOp(req.Op.String()).Warnw("background execution failed, running inline", "error", err)
	}
	return f.Secondary.Run(ctx, req)
}

// retryable is false for errors the request would raise on any path
// (Dispatch is deterministic, so a recovered panic recurs inline too) and for
// a caller that has already given up.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var de *DispatchError
	if errors.As(err, &de) || errors.Is(err, ErrUnknownOp) {
		return false
	}
	return true
}
