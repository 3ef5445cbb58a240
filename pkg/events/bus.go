package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/qieqieplus/meeting-view/pkg/log"
)

// Reserved event names
const (
	ParticipantVisible   = "participant-visible"
	ParticipantInvisible = "participant-invisible"
	ToggleFullScreen     = "toggle-full-screen"
	MeetingStateChanged  = "meeting-state-changed"
)

// VisibilityPayload is carried by ParticipantVisible and ParticipantInvisible.
type VisibilityPayload struct {
	ParticipantID string `json:"participant_id"`
}

// Handler receives a published payload. It runs on the publisher's goroutine.
type Handler func(payload interface{})

// Unsubscribe removes a handler. Calling it more than once is a no-op.
type Unsubscribe func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously to handlers in registration order
type Bus struct {
	handlers map[string][]subscription
	nextID   uint64
	mutex    sync.RWMutex
	stats    BusStats
}

// BusStats holds statistics for the event bus
type BusStats struct {
	TotalEvents   uint64
	DroppedEvents uint64
	HandlerPanics uint64
	LastEventTime time.Time
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]subscription),
	}
}

// Subscribe registers handler for name and returns its unsubscribe function
func (b *Bus) Subscribe(name string, handler Handler) Unsubscribe {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, handler: handler})

	log.Debugf("Subscribed handler %d to %s (total: %d)", id, name, len(b.handlers[name]))

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, id) })
	}
}

func (b *Bus) remove(name string, id uint64) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	subs := b.handlers[name]
	for i, sub := range subs {
		if sub.id != id {
			continue
		}
		// Copy so a Publish iterating the old slice is unaffected
		next := make([]subscription, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(b.handlers, name)
		} else {
			b.handlers[name] = next
		}
		log.Debugf("Unsubscribed handler %d from %s", id, name)
		return
	}
}

// Publish delivers payload to every handler currently registered for name.
// It returns the number of handlers that completed without panicking.
func (b *Bus) Publish(name string, payload interface{}) int {
	b.mutex.Lock()
	subs := b.handlers[name]
	b.stats.TotalEvents++
	b.stats.LastEventTime = time.Now()
	if len(subs) == 0 {
		// No subscribers, but not an error
		b.stats.DroppedEvents++
		b.mutex.Unlock()
		return 0
	}
	b.mutex.Unlock()

	delivered := 0
	for _, sub := range subs {
		if err := b.invoke(name, sub, payload); err != nil {
			log.Errorf("Handler %d for %s failed: %v", sub.id, name, err)
			b.mutex.Lock()
			b.stats.HandlerPanics++
			b.mutex.Unlock()
			continue
		}
		delivered++
	}
	return delivered
}

func (b *Bus) invoke(name string, sub subscription, payload interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling %s: %v", name, r)
		}
	}()
	sub.handler(payload)
	return nil
}

// GetStats returns bus statistics
func (b *Bus) GetStats() BusStats {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.stats
}

// GetSubscriberCount returns the number of handlers registered for name
func (b *Bus) GetSubscriberCount(name string) int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.handlers[name])
}

// Shutdown drops every registration
func (b *Bus) Shutdown() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	log.Info("Shutting down event bus")
	b.handlers = make(map[string][]subscription)
}
