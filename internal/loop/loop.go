// internal/loop/loop.go
package loop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Timer is a pending callback that can be stopped.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Scheduler runs callbacks later on the goroutine that owns the state they
// touch. Every selection component takes one so that production code runs
// on a Loop while tests drive a Manual clock.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Loop is a single-goroutine event loop. Posted functions and timer
// callbacks are serialized on the goroutine that calls Run.
type Loop struct {
	queue     chan func()
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

// New creates a Loop. Call Run to start dispatching.
func New(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		queue:  make(chan func(), 64),
		done:   make(chan struct{}),
		logger: logger.Named("loop"),
	}
}

// Run dispatches posted work until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case f := <-l.queue:
			l.invoke(f)
		}
	}
}

func (l *Loop) invoke(f func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Recovered panic in loop callback", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	f()
}

// Post queues f for the loop goroutine. It returns false once the loop has stopped.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- f:
		return true
	case <-l.done:
		return false
	}
}

// Do runs f on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		f()
	}) {
		return fmt.Errorf("loop: stopped")
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return fmt.Errorf("loop: stopped")
	}
}

// Close stops the loop. Pending work is discarded.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time { return time.Now() }

// AfterFunc implements Scheduler. f runs on the loop goroutine.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.state.CompareAndSwap(timerPending, timerFired) {
				f()
			}
		})
	})
	return t
}

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

type loopTimer struct {
	timer *time.Timer
	state atomic.Int32
}

// Stop also covers a callback that has already been posted but not yet run.
func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.state.CompareAndSwap(timerPending, timerStopped)
}
