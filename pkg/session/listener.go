package session

import (
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
)

// listener moves SDK callbacks onto the session loop. Callbacks that reach
// the loop after Close are dropped.
type listener struct {
	s *Session
}

func (l *listener) post(fn func()) {
	l.s.dispatcher.Post(func() {
		if l.s.status == StatusClosed {
			return
		}
		fn()
	})
}

func (l *listener) OnParticipantJoined(p mediasdk.Participant) {
	l.post(func() { l.s.addParticipant(p) })
}

func (l *listener) OnParticipantLeft(participantID string) {
	l.post(func() { l.s.removeParticipant(participantID) })
}

func (l *listener) OnParticipantUpdated(p mediasdk.Participant) {
	l.post(func() { l.s.updateParticipant(p) })
}

func (l *listener) OnStreamEnabled(participantID string, kind mediasdk.StreamKind) {
	l.streamChanged(participantID, kind, true)
}

func (l *listener) OnStreamDisabled(participantID string, kind mediasdk.StreamKind) {
	l.streamChanged(participantID, kind, false)
}

// streamChanged re-reads the participant so the tile sees every stream flag at once
func (l *listener) streamChanged(participantID string, kind mediasdk.StreamKind, enabled bool) {
	l.post(func() {
		p, ok := l.s.sdk.Participant(participantID)
		if !ok {
			return
		}
		l.s.logger.Debugf("Stream %s for %s enabled=%v", kind, participantID, enabled)
		l.s.updateParticipant(p)
	})
}
