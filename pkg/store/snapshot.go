package store

import (
	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/layout"
)

// Snapshot is a consistent, serializable copy of the store taken under one read lock.
// Derived values are computed at snapshot time.
type Snapshot struct {
	Version uint64         `json:"version"`
	Session config.Session `json:"session"`

	SidebarMode SidebarMode `json:"sidebar_mode"`
	NestedMode  NestedMode  `json:"sidebar_nested_mode"`

	Layout        layout.Descriptor `json:"app_meeting_layout"`
	MeetingLayout layout.Mode       `json:"meeting_layout"`

	Polls       []Poll       `json:"polls"`
	DraftPolls  []DraftPoll  `json:"draft_polls"`
	EndedPolls  []EndedPoll  `json:"ended_polls"`
	Submissions []Submission `json:"submissions"`

	Participants             []ParticipantView `json:"participants"`
	ActiveSortedParticipants []string          `json:"active_sorted_participants"`
	MainViewParticipants     []string          `json:"main_view_participants"`
	RaisedHands              []string          `json:"raised_hands_participants"`
	VisibleTiles             []string          `json:"visible_tiles"`

	OverlaidInfoVisible bool                      `json:"overlaid_info_visible"`
	UserHasInteracted   bool                      `json:"user_has_interacted"`
	Whiteboard          WhiteboardState           `json:"whiteboard_state"`
	WhiteboardStarted   bool                      `json:"whiteboard_started"`
	LiveStreamConfig    []config.LiveStreamOutput `json:"live_stream_config"`
	MeetingMode         string                    `json:"meeting_mode"`
	DownstreamURL       string                    `json:"downstream_url,omitempty"`
	AfterJoinHLSState   string                    `json:"after_meeting_joined_hls_state,omitempty"`
	RecordingState      string                    `json:"recording_state,omitempty"`
	HLSState            string                    `json:"hls_state,omitempty"`
	MeetingLeft         bool                      `json:"meeting_left"`
	ControlOpacity      map[string]float64        `json:"control_opacity,omitempty"`
}

// Snapshot copies the whole state
func (s *Store) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	st := &s.st
	snap := Snapshot{
		Version:                  s.version,
		Session:                  s.session,
		SidebarMode:              st.sidebar,
		NestedMode:               st.nested,
		Layout:                   st.layout,
		MeetingLayout:            layout.Resolve(st.layout),
		Polls:                    derivePolls(st),
		Participants:             participantsOf(st),
		ActiveSortedParticipants: append([]string(nil), st.activeSorted...),
		MainViewParticipants:     append([]string(nil), st.mainView...),
		RaisedHands:              append([]string(nil), st.raisedHands...),
		VisibleTiles:             append([]string(nil), st.visibleTiles...),
		OverlaidInfoVisible:      st.overlaidInfo,
		UserHasInteracted:        st.userHasInteracted,
		Whiteboard:               st.whiteboard,
		WhiteboardStarted:        st.whiteboard.Started,
		LiveStreamConfig:         append([]config.LiveStreamOutput(nil), st.liveStreamConfig...),
		MeetingMode:              st.meetingMode,
		DownstreamURL:            st.downstreamURL,
		AfterJoinHLSState:        st.afterJoinHLSState,
		RecordingState:           st.recordingState,
		HLSState:                 st.hlsState,
		MeetingLeft:              st.meetingLeft,
		ControlOpacity:           make(map[string]float64, len(st.controlOpacity)),
	}
	for _, d := range st.drafts {
		d.Options = copyOptions(d.Options)
		snap.DraftPolls = append(snap.DraftPolls, d)
	}
	for _, p := range st.created {
		if at, ok := st.ended[p.ID]; ok {
			snap.EndedPolls = append(snap.EndedPolls, EndedPoll{PollID: p.ID, EndedAt: at})
		}
	}
	snap.Submissions = append(snap.Submissions, st.submissions...)
	for k, v := range st.controlOpacity {
		snap.ControlOpacity[k] = v
	}
	return snap
}
