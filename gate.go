package neorm

import (
	"context"
	"sync"
)

// Task is the observable handle for a unit of deferred schema work. It
// completes exactly once; the error (if any) from the underlying callback is
// retrievable afterwards instead of being lost inside the queue.
type Task struct {
	done chan struct{}
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// Done returns a channel closed when the task has run.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task's error. It returns nil while the task is still
// pending; callers that need to distinguish should select on Done first.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task completes or ctx is cancelled.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) complete(err error) {
	t.err = err
	close(t.done)
}

type gateEntry struct {
	fn   func(context.Context, Session) error
	task *Task
}

// Gate defers work until a database session is bound. Work submitted before
// Bind is queued and delivered exactly once, in submission order, when Bind
// runs; work submitted after Bind executes immediately on the caller's
// goroutine under the context the session was bound with.
//
// The gate performs no retries, timeouts, or cancellation of its own.
type Gate struct {
	mu      sync.Mutex
	ctx     context.Context
	sess    Session
	pending []gateEntry
	closed  bool
}

// NewGate creates an unbound gate.
func NewGate() *Gate {
	return &Gate{}
}

// Do schedules fn against the gate's session. The returned Task completes
// when fn has run (immediately if a session is already bound).
func (g *Gate) Do(fn func(context.Context, Session) error) *Task {
	task := newTask()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		task.complete(ErrGateClosed)

		return task
	}

	if g.sess == nil {
		g.pending = append(g.pending, gateEntry{fn: fn, task: task})
		g.mu.Unlock()

		return task
	}

	ctx, sess := g.ctx, g.sess
	g.mu.Unlock()

	task.complete(fn(ctx, sess))

	return task
}

// Bind attaches a session and drains the queue in FIFO order. Each queued
// callback runs exactly once; its error is recorded on its Task. Binding an
// already-bound gate replaces the session for subsequent work.
func (g *Gate) Bind(ctx context.Context, sess Session) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()

		return
	}

	g.ctx = ctx
	g.sess = sess
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	for _, e := range pending {
		e.task.complete(e.fn(ctx, sess))
	}
}

// Session returns the bound session, or nil if the gate is still waiting.
func (g *Gate) Session() Session {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.sess
}

// Close rejects all pending and future work with ErrGateClosed.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()

		return
	}

	g.closed = true
	g.sess = nil
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	for _, e := range pending {
		e.task.complete(ErrGateClosed)
	}
}
