package config

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/qieqieplus/meeting-view/pkg/layout"
)

// Features are the toggles fixed for a session's lifetime
type Features struct {
	Chat        bool `toml:"chat" json:"chat"`
	ScreenShare bool `toml:"screen_share" json:"screen_share"`
	Poll        bool `toml:"poll" json:"poll"`
	Whiteboard  bool `toml:"whiteboard" json:"whiteboard"`
	RaiseHand   bool `toml:"raise_hand" json:"raise_hand"`
	Recording   bool `toml:"recording" json:"recording"`
	LiveStream  bool `toml:"live_stream" json:"live_stream"`
	HLS         bool `toml:"hls" json:"hls"`
}

// Permissions say what a participant may do to others and to the session
type Permissions struct {
	ToggleSelfMic          bool `toml:"toggle_self_mic" json:"toggle_self_mic"`
	ToggleSelfWebcam       bool `toml:"toggle_self_webcam" json:"toggle_self_webcam"`
	ToggleOtherMic         bool `toml:"toggle_other_mic" json:"toggle_other_mic"`
	ToggleOtherWebcam      bool `toml:"toggle_other_webcam" json:"toggle_other_webcam"`
	ToggleOtherScreenShare bool `toml:"toggle_other_screen_share" json:"toggle_other_screen_share"`
	ToggleOtherMode        bool `toml:"toggle_other_mode" json:"toggle_other_mode"`
	RemoveOtherParticipant bool `toml:"remove_other_participant" json:"remove_other_participant"`
	Pin                    bool `toml:"pin" json:"pin"`
	CreatePoll             bool `toml:"create_poll" json:"create_poll"`
	ToggleWhiteboard       bool `toml:"toggle_whiteboard" json:"toggle_whiteboard"`
	DrawOnWhiteboard       bool `toml:"draw_on_whiteboard" json:"draw_on_whiteboard"`
	ChangeLayout           bool `toml:"change_layout" json:"change_layout"`
	ToggleRecording        bool `toml:"toggle_recording" json:"toggle_recording"`
	ToggleHLS              bool `toml:"toggle_hls" json:"toggle_hls"`
	ToggleLivestream       bool `toml:"toggle_livestream" json:"toggle_livestream"`
	Leave                  bool `toml:"leave" json:"leave"`
	EndMeeting             bool `toml:"end_meeting" json:"end_meeting"`
}

// LiveStreamOutput is one RTMP destination
type LiveStreamOutput struct {
	URL       string `toml:"url" json:"url"`
	StreamKey string `toml:"stream_key" json:"stream_key"`
}

// Session is the per-meeting configuration, immutable once the session starts
type Session struct {
	MeetingID       string `toml:"meeting_id" json:"meeting_id"`
	RedirectOnLeave string `toml:"redirect_on_leave" json:"redirect_on_leave"`
	Mode            string `toml:"mode" json:"mode"`

	Features    Features    `toml:"features" json:"features"`
	Permissions Permissions `toml:"permissions" json:"permissions"`

	Layout      layout.Descriptor `toml:"layout" json:"layout"`
	LayoutTopic layout.Topic      `toml:"layout_topic" json:"layout_topic"`

	// IsRecorder marks an unattended recorder: grid size is pinned to the
	// maximum and the per-tile quality toggle is disabled.
	IsRecorder           bool `toml:"is_recorder" json:"is_recorder"`
	NetworkBarEnabled    bool `toml:"network_bar_enabled" json:"network_bar_enabled"`
	HideLocalParticipant bool `toml:"hide_local_participant" json:"hide_local_participant"`
	AlwaysShowOverlay    bool `toml:"always_show_overlay" json:"always_show_overlay"`
	SideStackSize        int  `toml:"side_stack_size" json:"side_stack_size"`

	LiveStreamOutputs []LiveStreamOutput `toml:"live_stream_outputs" json:"live_stream_outputs"`
}

// DefaultSession returns the defaults applied before the config file
func DefaultSession() Session {
	return Session{
		Mode: "CONFERENCE",
		Features: Features{
			Chat:        true,
			ScreenShare: true,
			Poll:        true,
			RaiseHand:   true,
		},
		Permissions: Permissions{
			ToggleSelfMic:    true,
			ToggleSelfWebcam: true,
			Pin:              true,
			CreatePoll:       true,
			ChangeLayout:     true,
			Leave:            true,
		},
		Layout: layout.Descriptor{
			Type:     layout.TypeGrid,
			Priority: layout.PrioritySpeaker,
			GridSize: 16,
		},
		LayoutTopic:       layout.TopicMeeting,
		NetworkBarEnabled: true,
		SideStackSize:     5,
	}
}

// Validate fails fast on anything that would otherwise break the session later
func (s *Session) Validate() error {
	if s.MeetingID == "" {
		return ErrMissingMeetingID
	}
	if !ValidURL(s.RedirectOnLeave) {
		return errors.Wrapf(ErrInvalidRedirect, "got %q", s.RedirectOnLeave)
	}
	if s.Layout.GridSize < 0 {
		return errors.Wrapf(ErrInvalidGridSize, "got %d", s.Layout.GridSize)
	}
	return nil
}

// ValidURL accepts absolute http and https URLs with a host
func ValidURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	return host == "localhost" || strings.Contains(host, ".") || strings.Contains(host, ":")
}
