package visibility

import (
	"sort"
	"sync"

	"github.com/qieqieplus/meeting-view/pkg/events"
	"github.com/qieqieplus/meeting-view/pkg/log"
)

// Observer is notified when a participant's visibility flips.
type Observer interface {
	OnVisibilityChange(participantID string, visible bool)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(participantID string, visible bool)

func (f ObserverFunc) OnVisibilityChange(participantID string, visible bool) {
	f(participantID, visible)
}

// Subscriber is the subset of events.Bus the set needs.
type Subscriber interface {
	Subscribe(name string, handler events.Handler) events.Unsubscribe
}

// Set mirrors the ids reported visible on the bus. Events from different tiles
// may arrive in any order, so consumers should treat it as eventually consistent.
type Set struct {
	mutex     sync.RWMutex
	ids       map[string]struct{}
	observers []Observer
	unsubs    []events.Unsubscribe
}

// NewSet subscribes a new set to the visibility events on bus
func NewSet(bus Subscriber) *Set {
	s := &Set{ids: make(map[string]struct{})}
	s.unsubs = []events.Unsubscribe{
		bus.Subscribe(events.ParticipantVisible, func(p interface{}) { s.handle(p, true) }),
		bus.Subscribe(events.ParticipantInvisible, func(p interface{}) { s.handle(p, false) }),
	}
	return s
}

// AddObserver attaches o. Observers are called outside the set's lock.
func (s *Set) AddObserver(o Observer) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Set) handle(payload interface{}, visible bool) {
	p, ok := payload.(events.VisibilityPayload)
	if !ok {
		log.Warnf("Ignoring visibility event with payload %T", payload)
		return
	}

	s.mutex.Lock()
	_, present := s.ids[p.ParticipantID]
	if visible {
		s.ids[p.ParticipantID] = struct{}{}
	} else {
		delete(s.ids, p.ParticipantID)
	}
	observers := s.observers
	s.mutex.Unlock()

	if present == visible {
		return
	}
	for _, o := range observers {
		o.OnVisibilityChange(p.ParticipantID, visible)
	}
}

// Contains reports whether id is currently visible
func (s *Set) Contains(id string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// IDs returns the visible ids sorted
func (s *Set) IDs() []string {
	s.mutex.RLock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mutex.RUnlock()

	sort.Strings(ids)
	return ids
}

// Len returns the number of visible ids
func (s *Set) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.ids)
}

// Close unsubscribes from the bus
func (s *Set) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
}
