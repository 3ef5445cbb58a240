// Package blink pulses a control's opacity while its request is in flight.
package blink

import (
	"sync"
	"time"

	"github.com/frostbyte73/core"

	"github.com/qieqieplus/meeting-view/pkg/timer"
)

const (
	DefaultInterval = 600 * time.Millisecond

	SteadyOpacity = 1.0
	DimOpacity    = 0.4
)

// Indicator is STEADY at opacity 1 or BLINKING between 1 and 0.4.
// Start, Stop and Close must be called on the scheduler's dispatcher thread.
type Indicator struct {
	scheduler timer.Scheduler
	interval  time.Duration
	onChange  func(opacity float64)

	cancel timer.Cancel
	closed core.Fuse

	mutex   sync.RWMutex
	opacity float64
}

// NewIndicator creates a steady indicator. onChange may be nil.
func NewIndicator(scheduler timer.Scheduler, interval time.Duration, onChange func(opacity float64)) *Indicator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Indicator{
		scheduler: scheduler,
		interval:  interval,
		onChange:  onChange,
		opacity:   SteadyOpacity,
	}
}

// SetProcessing starts or stops blinking
func (i *Indicator) SetProcessing(processing bool) {
	if processing {
		i.Start()
	} else {
		i.Stop()
	}
}

// Start begins blinking. It does nothing if already blinking or closed.
func (i *Indicator) Start() {
	if i.closed.IsBroken() || i.cancel != nil {
		return
	}
	i.cancel = i.scheduler.Every(i.interval, i.toggle)
}

func (i *Indicator) toggle() {
	next := DimOpacity
	if i.Opacity() != SteadyOpacity {
		next = SteadyOpacity
	}
	i.set(next)
}

// Stop cancels the timer and snaps back to the steady opacity
func (i *Indicator) Stop() {
	if i.cancel != nil {
		i.cancel()
		i.cancel = nil
	}
	if i.Opacity() != SteadyOpacity {
		i.set(SteadyOpacity)
	}
}

// Close stops blinking for good. onChange is not called afterwards.
func (i *Indicator) Close() {
	if !i.closed.Break() {
		return
	}
	if i.cancel != nil {
		i.cancel()
		i.cancel = nil
	}
	i.mutex.Lock()
	i.opacity = SteadyOpacity
	i.mutex.Unlock()
}

// Blinking reports whether a timer is armed
func (i *Indicator) Blinking() bool {
	return i.cancel != nil
}

// Opacity returns the current opacity. Safe from any goroutine.
func (i *Indicator) Opacity() float64 {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.opacity
}

func (i *Indicator) set(opacity float64) {
	i.mutex.Lock()
	i.opacity = opacity
	i.mutex.Unlock()

	if i.onChange != nil && !i.closed.IsBroken() {
		i.onChange(opacity)
	}
}
