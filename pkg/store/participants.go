package store

import (
	"time"

	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
	"github.com/qieqieplus/meeting-view/pkg/netquality"
)

// ParticipantView is the SDK participant plus what the session derived for it
type ParticipantView struct {
	mediasdk.Participant
	NetworkScore *float64        `json:"network_score,omitempty"`
	NetworkTier  netquality.Tier `json:"network_tier"`
	SampledAt    time.Time       `json:"sampled_at,omitempty"`
	Visible      bool            `json:"visible"`
}

func (v *ParticipantView) clone() ParticipantView {
	out := *v
	if v.NetworkScore != nil {
		score := *v.NetworkScore
		out.NetworkScore = &score
	}
	return out
}

// UpsertParticipant mirrors the SDK's participant. Derived fields are kept.
func (s *Store) UpsertParticipant(p mediasdk.Participant) {
	s.update(FieldParticipants, func(st *state) error {
		if v, ok := st.participants[p.ID]; ok {
			v.Participant = p
			return nil
		}
		st.participants[p.ID] = &ParticipantView{Participant: p, NetworkTier: netquality.TierUnknown}
		st.participantOrder = append(st.participantOrder, p.ID)
		return nil
	})
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// RemoveParticipant drops a participant and every list that references it
func (s *Store) RemoveParticipant(id string) {
	s.update(FieldParticipants, func(st *state) error {
		delete(st.participants, id)
		st.participantOrder = without(st.participantOrder, id)
		st.activeSorted = without(st.activeSorted, id)
		st.mainView = without(st.mainView, id)
		st.raisedHands = without(st.raisedHands, id)
		st.visibleTiles = without(st.visibleTiles, id)
		return nil
	})
}

// SetNetworkSample stores the latest sample for a participant. Unknown ids are ignored.
func (s *Store) SetNetworkSample(id string, sample netquality.Sample) {
	s.update(FieldParticipants, func(st *state) error {
		v, ok := st.participants[id]
		if !ok {
			return nil
		}
		v.NetworkScore = sample.Score
		v.NetworkTier = sample.Tier()
		v.SampledAt = sample.SampledAt
		return nil
	})
}

// SetParticipantVisible records tile visibility on the participant
func (s *Store) SetParticipantVisible(id string, visible bool) {
	s.update(FieldVisibleTiles, func(st *state) error {
		if v, ok := st.participants[id]; ok {
			v.Visible = visible
		}
		return nil
	})
}

// Participant returns one mirrored participant
func (s *Store) Participant(id string) (ParticipantView, bool) {
	var (
		out ParticipantView
		ok  bool
	)
	s.read(func(st *state) {
		var v *ParticipantView
		if v, ok = st.participants[id]; ok {
			out = v.clone()
		}
	})
	return out, ok
}

// Participants returns mirrored participants in join order
func (s *Store) Participants() []ParticipantView {
	var out []ParticipantView
	s.read(func(st *state) {
		out = participantsOf(st)
	})
	return out
}

func participantsOf(st *state) []ParticipantView {
	out := make([]ParticipantView, 0, len(st.participantOrder))
	for _, id := range st.participantOrder {
		out = append(out, st.participants[id].clone())
	}
	return out
}

// AnyPinned reports whether any mirrored participant has a pin
func (s *Store) AnyPinned() bool {
	pinned := false
	s.read(func(st *state) {
		for _, v := range st.participants {
			if v.PinState.Pinned() {
				pinned = true
				return
			}
		}
	})
	return pinned
}

// ActiveSortedParticipants returns ids sorted by recent activity
func (s *Store) ActiveSortedParticipants() []string {
	var out []string
	s.read(func(st *state) { out = append(out, st.activeSorted...) })
	return out
}

// SetActiveSortedParticipants replaces the activity order
func (s *Store) SetActiveSortedParticipants(ids []string) {
	cp := append([]string(nil), ids...)
	s.update(FieldParticipants, func(st *state) error {
		st.activeSorted = cp
		return nil
	})
}

// MainViewParticipants returns ids rendered in the main view
func (s *Store) MainViewParticipants() []string {
	var out []string
	s.read(func(st *state) { out = append(out, st.mainView...) })
	return out
}

// SetMainViewParticipants replaces the main view ids
func (s *Store) SetMainViewParticipants(ids []string) {
	cp := append([]string(nil), ids...)
	s.update(FieldParticipants, func(st *state) error {
		st.mainView = cp
		return nil
	})
}

// RaisedHands returns ids with a raised hand in raise order
func (s *Store) RaisedHands() []string {
	var out []string
	s.read(func(st *state) { out = append(out, st.raisedHands...) })
	return out
}

// RaiseHand adds id to the raised hands once
func (s *Store) RaiseHand(id string) {
	s.update(FieldRaisedHands, func(st *state) error {
		for _, v := range st.raisedHands {
			if v == id {
				return nil
			}
		}
		st.raisedHands = append(st.raisedHands, id)
		return nil
	})
}

// LowerHand removes id from the raised hands
func (s *Store) LowerHand(id string) {
	s.update(FieldRaisedHands, func(st *state) error {
		st.raisedHands = without(st.raisedHands, id)
		return nil
	})
}
