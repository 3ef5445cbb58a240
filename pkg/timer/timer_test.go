package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/qieqieplus/meeting-view/pkg/loop"
)

func TestManual_Advance(t *testing.T) {
	m := NewManual()
	var fast, slow int
	m.Every(time.Second, func() { fast++ })
	cancelSlow := m.Every(3*time.Second, func() { slow++ })

	m.Advance(500 * time.Millisecond)
	if fast != 0 || slow != 0 {
		t.Fatalf("fired early: fast = %d, slow = %d", fast, slow)
	}

	m.Advance(3 * time.Second)
	if fast != 3 || slow != 1 {
		t.Errorf("after 3.5s: fast = %d, slow = %d, want 3 and 1", fast, slow)
	}

	cancelSlow()
	cancelSlow()
	m.Advance(3 * time.Second)
	if slow != 1 {
		t.Errorf("slow fired after cancel: %d", slow)
	}
	if got := m.Active(); got != 1 {
		t.Errorf("Active() = %d, want 1", got)
	}
	if got := m.MaxActive(); got != 2 {
		t.Errorf("MaxActive() = %d, want 2", got)
	}
}

func TestManual_CancelInsideCallback(t *testing.T) {
	m := NewManual()
	calls := 0
	var cancel Cancel
	cancel = m.Every(time.Second, func() {
		calls++
		cancel()
	})
	m.Advance(5 * time.Second)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestLoopScheduler(t *testing.T) {
	l := loop.New()
	l.Start()
	defer l.Stop()

	var ticks int32
	s := NewLoopScheduler(l)
	cancel := s.Every(5*time.Millisecond, func() { atomic.AddInt32(&ticks, 1) })

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&ticks) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	// Cancel on the loop so queued ticks observe it
	l.Do(func() { cancel() })
	seen := atomic.LoadInt32(&ticks)
	if seen < 2 {
		t.Fatalf("ticks = %d, want at least 2", seen)
	}

	time.Sleep(30 * time.Millisecond)
	l.Do(func() {})
	if got := atomic.LoadInt32(&ticks); got != seen {
		t.Errorf("ticks after cancel = %d, want %d", got, seen)
	}
}
