// Package session hosts an engine outside the desktop UI: a serial event
// loop that owns the engine, and periodic autosave of its canvas.
package session

import (
	"context"
)

// Loop runs posted functions one at a time on the goroutine that called
// Run. The engine is not safe for concurrent use; every call into it from a
// network callback goes through Post.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop creates a loop with room for queued tasks.
func NewLoop(queue int) *Loop {
	if queue <= 0 {
		queue = 256
	}
	return &Loop{tasks: make(chan func(), queue), done: make(chan struct{})}
}

// Post queues f. It blocks while the queue is full and returns false once
// the loop has stopped.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- f:
		return true
	case <-l.done:
		return false
	}
}

// Run executes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case f := <-l.tasks:
			f()
		case <-ctx.Done():
			return
		}
	}
}
