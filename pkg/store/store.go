// Package store holds the shared meeting state. A Store is created per session
// and handed to whatever needs it; there is no package-level instance.
package store

import (
	"sync"
	"time"

	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/events"
	"github.com/qieqieplus/meeting-view/pkg/layout"
)

// SidebarMode selects the auxiliary panel. The zero value means closed.
type SidebarMode string

const (
	SidebarNone          SidebarMode = ""
	SidebarParticipants  SidebarMode = "PARTICIPANTS"
	SidebarChat          SidebarMode = "CHAT"
	SidebarActivities    SidebarMode = "ACTIVITIES"
	SidebarAddLiveStream SidebarMode = "ADD_LIVE_STREAM"
	SidebarConfiguration SidebarMode = "CONFIGURATION"
)

// Valid reports whether m is a known mode or none
func (m SidebarMode) Valid() bool {
	switch m {
	case SidebarNone, SidebarParticipants, SidebarChat, SidebarActivities, SidebarAddLiveStream, SidebarConfiguration:
		return true
	}
	return false
}

// NestedMode selects a view inside the sidebar. The zero value means none.
type NestedMode string

const (
	NestedNone       NestedMode = ""
	NestedPolls      NestedMode = "POLLS"
	NestedCreatePoll NestedMode = "CREATE_POLL"
	NestedQnA        NestedMode = "QNA"
)

// Valid reports whether m is a known nested mode or none
func (m NestedMode) Valid() bool {
	switch m {
	case NestedNone, NestedPolls, NestedCreatePoll, NestedQnA:
		return true
	}
	return false
}

// Changed field names carried by Change
const (
	FieldSidebar      = "sidebar"
	FieldLayout       = "layout"
	FieldPolls        = "polls"
	FieldParticipants = "participants"
	FieldWhiteboard   = "whiteboard"
	FieldLiveStream   = "live_stream"
	FieldRecording    = "recording"
	FieldOverlay      = "overlay"
	FieldRaisedHands  = "raised_hands"
	FieldMeeting      = "meeting"
	FieldVisibleTiles = "visible_tiles"
	FieldControls     = "controls"
)

// Change is published on events.MeetingStateChanged after every mutation
type Change struct {
	Field   string `json:"field"`
	Version uint64 `json:"version"`
}

// Publisher is the subset of events.Bus the store needs
type Publisher interface {
	Publish(name string, payload interface{}) int
}

// WhiteboardState mirrors the SDK's whiteboard status
type WhiteboardState struct {
	Started bool                   `json:"started"`
	State   map[string]interface{} `json:"state,omitempty"`
}

type state struct {
	sidebar SidebarMode
	nested  NestedMode

	layout layout.Descriptor

	drafts      []DraftPoll
	created     []Poll
	ended       map[string]time.Time
	submissions []Submission

	participants      map[string]*ParticipantView
	participantOrder  []string
	activeSorted      []string
	mainView          []string
	raisedHands       []string
	visibleTiles      []string
	overlaidInfo      bool
	userHasInteracted bool
	whiteboard        WhiteboardState
	liveStreamConfig  []config.LiveStreamOutput
	meetingMode       string
	downstreamURL     string
	afterJoinHLSState string
	recordingState    string
	hlsState          string
	meetingLeft       bool
	controlOpacity    map[string]float64
}

// Store is safe for concurrent use. All writes go through update.
type Store struct {
	session config.Session
	bus     Publisher
	now     func() time.Time
	newID   func() string

	mutex   sync.RWMutex
	st      state
	version uint64
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the poll id generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates the store for one session. bus may be nil.
func New(session config.Session, bus Publisher, opts ...Option) *Store {
	s := &Store{
		session: session,
		bus:     bus,
		now:     time.Now,
		newID:   newUUID,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.st = state{
		ended:             make(map[string]time.Time),
		participants:      make(map[string]*ParticipantView),
		overlaidInfo:      true,
		userHasInteracted: true,
		liveStreamConfig:  append([]config.LiveStreamOutput(nil), session.LiveStreamOutputs...),
		meetingMode:       session.Mode,
		controlOpacity:    make(map[string]float64),
	}
	s.st.layout = s.clampLayout(session.Layout)
	return s
}

// update is the single write path: it applies fn under the lock and, if fn
// succeeds, bumps the version and publishes the change.
func (s *Store) update(field string, fn func(st *state) error) error {
	s.mutex.Lock()
	if err := fn(&s.st); err != nil {
		s.mutex.Unlock()
		return err
	}
	s.version++
	change := Change{Field: field, Version: s.version}
	s.mutex.Unlock()

	if s.bus != nil {
		s.bus.Publish(events.MeetingStateChanged, change)
	}
	return nil
}

func (s *Store) read(fn func(st *state)) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	fn(&s.st)
}

// Session returns the immutable session configuration
func (s *Store) Session() config.Session {
	return s.session
}

// Version increases by one on every mutation
func (s *Store) Version() uint64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.version
}

// SidebarMode returns the open sidebar panel
func (s *Store) SidebarMode() SidebarMode {
	var m SidebarMode
	s.read(func(st *state) { m = st.sidebar })
	return m
}

// NestedMode returns the nested view in the sidebar
func (s *Store) NestedMode() NestedMode {
	var m NestedMode
	s.read(func(st *state) { m = st.nested })
	return m
}

// SetSidebarMode opens a panel. Switching panels clears the nested mode.
func (s *Store) SetSidebarMode(m SidebarMode) error {
	if !m.Valid() {
		return ErrInvalidMode
	}
	return s.update(FieldSidebar, func(st *state) error {
		if st.sidebar != m {
			st.nested = NestedNone
		}
		st.sidebar = m
		return nil
	})
}

// SetSidebarNestedMode selects the nested view inside the open panel
func (s *Store) SetSidebarNestedMode(m NestedMode) error {
	if !m.Valid() {
		return ErrInvalidMode
	}
	return s.update(FieldSidebar, func(st *state) error {
		st.nested = m
		return nil
	})
}

func (s *Store) clampLayout(d layout.Descriptor) layout.Descriptor {
	if s.session.IsRecorder {
		d.GridSize = layout.RecorderMaxGridSize
	}
	return d
}

// Layout returns the layout descriptor
func (s *Store) Layout() layout.Descriptor {
	var d layout.Descriptor
	s.read(func(st *state) { d = st.layout })
	return d
}

// SetLayout replaces the descriptor. GridSize is not validated here; recorder
// sessions always get RecorderMaxGridSize.
func (s *Store) SetLayout(d layout.Descriptor) {
	d = s.clampLayout(d)
	s.update(FieldLayout, func(st *state) error {
		st.layout = d
		return nil
	})
}

// UpdateLayout applies fn to the current descriptor under the store lock, so
// fields fn leaves alone keep concurrent changes. The recorder clamp applies.
func (s *Store) UpdateLayout(fn func(d *layout.Descriptor)) layout.Descriptor {
	var d layout.Descriptor
	s.update(FieldLayout, func(st *state) error {
		d = st.layout
		fn(&d)
		d = s.clampLayout(d)
		st.layout = d
		return nil
	})
	return d
}

// SetLayoutPriority changes only the priority
func (s *Store) SetLayoutPriority(p layout.Priority) {
	s.update(FieldLayout, func(st *state) error {
		st.layout.Priority = p
		return nil
	})
}

// MeetingLayout resolves the current descriptor on every call
func (s *Store) MeetingLayout() layout.Mode {
	return layout.Resolve(s.Layout())
}

// OverlaidInfoVisible reports whether tile overlays are shown
func (s *Store) OverlaidInfoVisible() bool {
	var v bool
	s.read(func(st *state) { v = st.overlaidInfo })
	return v
}

// SetOverlaidInfoVisible shows or hides tile overlays
func (s *Store) SetOverlaidInfoVisible(v bool) {
	s.update(FieldOverlay, func(st *state) error {
		st.overlaidInfo = v
		return nil
	})
}

// ToggleOverlaidInfo flips overlay visibility, as a click on a tile does
func (s *Store) ToggleOverlaidInfo() {
	s.update(FieldOverlay, func(st *state) error {
		st.overlaidInfo = !st.overlaidInfo
		return nil
	})
}

// SetUserHasInteracted records whether the viewer interacted with the page
func (s *Store) SetUserHasInteracted(v bool) {
	s.update(FieldMeeting, func(st *state) error {
		st.userHasInteracted = v
		return nil
	})
}

// Whiteboard returns the whiteboard state
func (s *Store) Whiteboard() WhiteboardState {
	var w WhiteboardState
	s.read(func(st *state) { w = st.whiteboard })
	return w
}

// WhiteboardStarted is derived from the whiteboard state
func (s *Store) WhiteboardStarted() bool {
	return s.Whiteboard().Started
}

// SetWhiteboardState replaces the whiteboard state
func (s *Store) SetWhiteboardState(w WhiteboardState) {
	s.update(FieldWhiteboard, func(st *state) error {
		st.whiteboard = w
		return nil
	})
}

// LiveStreamConfig returns the configured RTMP outputs
func (s *Store) LiveStreamConfig() []config.LiveStreamOutput {
	var out []config.LiveStreamOutput
	s.read(func(st *state) { out = append(out, st.liveStreamConfig...) })
	return out
}

// SetLiveStreamConfig replaces the RTMP outputs
func (s *Store) SetLiveStreamConfig(outputs []config.LiveStreamOutput) {
	cp := append([]config.LiveStreamOutput(nil), outputs...)
	s.update(FieldLiveStream, func(st *state) error {
		st.liveStreamConfig = cp
		return nil
	})
}

// SetRecordingState stores the SDK's recording status string
func (s *Store) SetRecordingState(v string) {
	s.update(FieldRecording, func(st *state) error {
		st.recordingState = v
		return nil
	})
}

// SetHLSState stores the SDK's HLS status string
func (s *Store) SetHLSState(v string) {
	s.update(FieldRecording, func(st *state) error {
		st.hlsState = v
		return nil
	})
}

// SetAfterMeetingJoinedHLSState stores the HLS state seen right after joining
func (s *Store) SetAfterMeetingJoinedHLSState(v string) {
	s.update(FieldRecording, func(st *state) error {
		st.afterJoinHLSState = v
		return nil
	})
}

// SetDownstreamURL stores the HLS playback URL
func (s *Store) SetDownstreamURL(u string) {
	s.update(FieldLiveStream, func(st *state) error {
		st.downstreamURL = u
		return nil
	})
}

// MeetingMode returns the current meeting mode
func (s *Store) MeetingMode() string {
	var m string
	s.read(func(st *state) { m = st.meetingMode })
	return m
}

// SetMeetingMode changes the meeting mode
func (s *Store) SetMeetingMode(m string) {
	s.update(FieldMeeting, func(st *state) error {
		st.meetingMode = m
		return nil
	})
}

// MeetingLeft reports whether the local participant has left
func (s *Store) MeetingLeft() bool {
	var v bool
	s.read(func(st *state) { v = st.meetingLeft })
	return v
}

// SetMeetingLeft marks the meeting as left
func (s *Store) SetMeetingLeft(v bool) {
	s.update(FieldMeeting, func(st *state) error {
		st.meetingLeft = v
		return nil
	})
}

// SetVisibleTiles mirrors the visibility set for consumers of snapshots
func (s *Store) SetVisibleTiles(ids []string) {
	cp := append([]string(nil), ids...)
	s.update(FieldVisibleTiles, func(st *state) error {
		st.visibleTiles = cp
		return nil
	})
}

// SetControlOpacity records a control's blink opacity
func (s *Store) SetControlOpacity(controlID string, opacity float64) {
	s.update(FieldControls, func(st *state) error {
		st.controlOpacity[controlID] = opacity
		return nil
	})
}

// RemoveControl forgets a control
func (s *Store) RemoveControl(controlID string) {
	s.update(FieldControls, func(st *state) error {
		delete(st.controlOpacity, controlID)
		return nil
	})
}
