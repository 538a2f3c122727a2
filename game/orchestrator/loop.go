package orchestrator

import (
	"context"
	"errors"
)

var (
	ErrLoopStopped    = errors.New("ui loop stopped")
	ErrInvalidDisplay = errors.New("display size must be positive")
)

// Loop runs queued functions one at a time on a single goroutine. Everything
// that touches a view's grid state or surface goes through it.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

func NewLoop(buffer int) *Loop {
	if buffer < 1 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes tasks until ctx is canceled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn. It reports false if the loop has stopped. Tasks running
// on the loop must not Post when the queue may be full.
func (l *Loop) Post(fn func()) bool {
	if l.stopped() {
		return false
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it. It must not be called from the
// loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if l.stopped() {
		return ErrLoopStopped
	}
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) stopped() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}
