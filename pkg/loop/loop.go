// Package loop runs session work on a single goroutine so SDK callbacks, timer
// ticks and statistics results never interleave.
package loop

import (
	"errors"
	"sync"

	"github.com/frostbyte73/core"

	"github.com/qieqieplus/meeting-view/pkg/log"
)

var (
	ErrNotStarted     = errors.New("loop: not started")
	ErrAlreadyStarted = errors.New("loop: already started")
	ErrStopped        = errors.New("loop: already stopped")
)

// Dispatcher schedules fn to run on the owner's logical thread.
type Dispatcher interface {
	Post(fn func())
}

// Inline runs posted functions immediately on the caller's goroutine.
type Inline struct{}

func (Inline) Post(fn func()) { fn() }

// Loop is a FIFO executor backed by one goroutine. The queue is unbounded so
// posting from inside a running function never blocks.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	started core.Fuse
	stopped core.Fuse
	done    chan struct{}
}

// New creates a loop. Call Start before posting.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Start launches the loop goroutine
func (l *Loop) Start() error {
	if !l.started.Break() {
		return ErrAlreadyStarted
	}

	go func() {
		defer close(l.done)
		log.Debug("Session loop started")

		for {
			select {
			case <-l.wake:
				l.drain()
			case <-l.stopped.Watch():
				log.Debug("Session loop stopping")
				return
			}
		}
	}()
	return nil
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 || l.stopped.IsBroken() {
			l.queue = nil
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.run(fn)
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered panic on session loop: %v", r)
		}
	}()
	fn()
}

// Post queues fn. Work posted after Stop is dropped.
func (l *Loop) Post(fn func()) {
	if l.stopped.IsBroken() {
		return
	}

	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for it. It must not be called from the loop itself.
func (l *Loop) Do(fn func()) error {
	if !l.started.IsBroken() {
		return ErrNotStarted
	}
	if l.stopped.IsBroken() {
		return ErrStopped
	}

	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Stop ends the loop and waits for the goroutine to exit
func (l *Loop) Stop() error {
	if !l.stopped.Break() {
		return ErrStopped
	}
	if l.started.IsBroken() {
		<-l.done
	}
	return nil
}
