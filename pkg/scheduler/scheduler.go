// Package scheduler provides the single-threaded event loop a diagram runs on.
//
// Every mutation of a diagram (posted input events, data assignment, and the
// per-frame simulation tick) executes on the goroutine that drives the Loop, one
// handler at a time and each to completion. Frame callbacks are registered and
// cancelled explicitly; a cancelled callback never runs again, even if it was
// already part of the frame being dispatched.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// ErrQueueFull is returned by Post when the event queue has no room.
var ErrQueueFull = errors.New("scheduler: event queue full")

// DefaultInterval is the frame interval used by Run, roughly one display refresh.
const DefaultInterval = time.Second / 60

// Task is a unit of work posted to the loop.
type Task func()

// FrameFunc is called once per frame while registered.
type FrameFunc func(now time.Time)

// ErrorHandler receives panics recovered from tasks and frame callbacks.
type ErrorHandler func(err error)

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("scheduler: handler panic: %v\n%s", e.Value, e.Stack)
}

// Registration is a handle for a registered frame callback.
type Registration struct {
	id     uint32
	fn     FrameFunc
	active atomic.Bool
	loop   *Loop
}

// Cancel deregisters the callback. It is safe to call more than once, and from
// inside the callback itself.
func (r *Registration) Cancel() {
	if r == nil || !r.active.CompareAndSwap(true, false) {
		return
	}
	r.loop.remove(r)
}

// Active returns true until the registration is cancelled.
func (r *Registration) Active() bool {
	return r != nil && r.active.Load()
}

// ID returns the registration's unique id.
func (r *Registration) ID() uint32 { return r.id }

// Loop dispatches posted tasks and frame callbacks.
type Loop struct {
	mu     sync.Mutex
	frames []*Registration
	nextID uint32

	queue    chan Task
	running  atomic.Bool
	interval time.Duration

	onError    ErrorHandler
	afterBatch func()
}

// NewLoop creates a loop whose event queue holds up to queueSize pending tasks.
func NewLoop(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Loop{
		nextID:   1,
		queue:    make(chan Task, queueSize),
		interval: DefaultInterval,
	}
}

// SetErrorHandler sets the handler for recovered panics.
func (l *Loop) SetErrorHandler(h ErrorHandler) { l.onError = h }

// SetInterval sets the frame interval used by Run.
func (l *Loop) SetInterval(d time.Duration) {
	if d > 0 {
		l.interval = d
	}
}

// SetAfterBatch sets a function called on the loop goroutine after each batch of
// tasks and after each frame. Hosts use it to flush accumulated scene changes.
func (l *Loop) SetAfterBatch(fn func()) { l.afterBatch = fn }

// Post queues a task without blocking.
func (l *Loop) Post(t Task) error {
	select {
	case l.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Register adds a frame callback. It runs on every subsequent frame until cancelled.
func (l *Loop) Register(fn FrameFunc) *Registration {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := &Registration{id: l.nextID, fn: fn, loop: l}
	l.nextID++
	r.active.Store(true)
	l.frames = append(l.frames, r)
	return r
}

func (l *Loop) remove(r *Registration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, x := range l.frames {
		if x == r {
			l.frames = append(l.frames[:i], l.frames[i+1:]...)
			return
		}
	}
}

// Registered returns the number of active frame callbacks.
func (l *Loop) Registered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int { return len(l.queue) }

// Frame runs every active frame callback once and returns how many ran.
// Callbacks registered during the frame first run on the next frame.
func (l *Loop) Frame(now time.Time) int {
	l.mu.Lock()
	snapshot := append([]*Registration(nil), l.frames...)
	l.mu.Unlock()

	ran := 0
	for _, r := range snapshot {
		if !r.active.Load() {
			continue
		}
		if !l.safeCall(func() { r.fn(now) }) {
			r.Cancel()
		}
		ran++
	}
	return ran
}

// Drain runs queued tasks until the queue is empty and returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case t := <-l.queue:
			l.safeCall(t)
			n++
		default:
			return n
		}
	}
}

// Run drives the loop on the calling goroutine until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("scheduler: loop already running")
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-l.queue:
			l.safeCall(t)
			// Batch whatever else arrived before flushing.
			l.Drain()
			l.flush()
		case now := <-ticker.C:
			if l.Frame(now) > 0 {
				l.flush()
			}
		}
	}
}

// Running returns true while Run is active.
func (l *Loop) Running() bool { return l.running.Load() }

func (l *Loop) flush() {
	if l.afterBatch != nil {
		l.safeCall(l.afterBatch)
	}
}

// safeCall runs fn, recovering a panic. It returns false if fn panicked.
func (l *Loop) safeCall(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if l.onError != nil {
				l.onError(&PanicError{Value: r, Stack: debug.Stack()})
			}
		}
	}()
	fn()
	return true
}
