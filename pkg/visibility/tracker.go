// Package visibility reports which participant tiles are in the viewport.
package visibility

import (
	"github.com/qieqieplus/meeting-view/pkg/events"
)

// Publisher is the subset of events.Bus the tracker needs.
type Publisher interface {
	Publish(name string, payload interface{}) int
}

type state int

const (
	stateUnmounted state = iota
	stateVisible
	stateInvisible
	stateRemoved
)

// Tracker is bound to one tile. It assumes the tile is visible on mount and
// always reports it invisible on unmount.
type Tracker struct {
	participantID string
	bus           Publisher
	state         state
}

func NewTracker(participantID string, bus Publisher) *Tracker {
	return &Tracker{participantID: participantID, bus: bus}
}

// ParticipantID returns the participant the tracker is bound to
func (t *Tracker) ParticipantID() string {
	return t.participantID
}

// Mount emits participant-visible. Calling it again, or after Unmount, does nothing.
func (t *Tracker) Mount() {
	if t.state != stateUnmounted {
		return
	}
	t.emit(stateVisible)
}

// SetVisible reports an intersection change. Repeats of the last state are dropped.
func (t *Tracker) SetVisible(visible bool) {
	if t.state == stateUnmounted || t.state == stateRemoved {
		return
	}
	next := stateInvisible
	if visible {
		next = stateVisible
	}
	if next == t.state {
		return
	}
	t.emit(next)
}

// Visible reports the last emitted state
func (t *Tracker) Visible() bool {
	return t.state == stateVisible
}

// Unmount emits participant-invisible regardless of the last state. Only the first call emits.
func (t *Tracker) Unmount() {
	if t.state == stateRemoved {
		return
	}
	t.emit(stateInvisible)
	t.state = stateRemoved
}

func (t *Tracker) emit(next state) {
	t.state = next
	name := events.ParticipantInvisible
	if next == stateVisible {
		name = events.ParticipantVisible
	}
	t.bus.Publish(name, events.VisibilityPayload{ParticipantID: t.participantID})
}
