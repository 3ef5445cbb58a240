// Package timer provides repeating timers whose ticks run on a loop.Dispatcher.
package timer

import (
	"sort"
	"sync"
	"time"

	"github.com/frostbyte73/core"

	"github.com/qieqieplus/meeting-view/pkg/loop"
)

// Cancel releases a timer. It is safe to call more than once.
type Cancel func()

// Scheduler arms repeating timers.
type Scheduler interface {
	// Every calls fn every d until the returned Cancel is called. The first
	// call happens after d, not immediately.
	Every(d time.Duration, fn func()) Cancel
}

// LoopScheduler posts ticks onto a dispatcher. A tick queued before Cancel is
// skipped if Cancel ran first on the same dispatcher.
type LoopScheduler struct {
	dispatcher loop.Dispatcher
}

func NewLoopScheduler(d loop.Dispatcher) *LoopScheduler {
	return &LoopScheduler{dispatcher: d}
}

func (s *LoopScheduler) Every(d time.Duration, fn func()) Cancel {
	var cancelled core.Fuse
	ticker := time.NewTicker(d)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.dispatcher.Post(func() {
					if !cancelled.IsBroken() {
						fn()
					}
				})
			case <-cancelled.Watch():
				return
			}
		}
	}()

	return func() { cancelled.Break() }
}

// Manual is a deterministic Scheduler for tests and simulations. Time only
// moves when Advance is called.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int
	entries map[int]*manualEntry
	armed   int
	maxLive int
}

type manualEntry struct {
	id       int
	interval time.Duration
	due      time.Duration
	fn       func()
}

func NewManual() *Manual {
	return &Manual{entries: make(map[int]*manualEntry)}
}

func (m *Manual) Every(d time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.entries[id] = &manualEntry{id: id, interval: d, due: m.now + d, fn: fn}
	m.armed++
	if len(m.entries) > m.maxLive {
		m.maxLive = len(m.entries)
	}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.entries, id)
	}
}

// Advance moves time forward and fires due timers in due order.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		var due []*manualEntry
		for _, e := range m.entries {
			if e.due <= target {
				due = append(due, e)
			}
		}
		if len(due) == 0 {
			m.now = target
			m.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].due == due[j].due {
				return due[i].id < due[j].id
			}
			return due[i].due < due[j].due
		})
		next := due[0]
		m.now = next.due
		next.due += next.interval
		fn := next.fn
		m.mu.Unlock()

		fn()
	}
}

// Active returns the number of timers currently armed.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Armed returns how many timers were ever armed.
func (m *Manual) Armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// MaxActive returns the highest number of simultaneously armed timers seen.
func (m *Manual) MaxActive() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxLive
}
