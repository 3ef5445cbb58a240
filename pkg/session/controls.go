package session

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
	"github.com/qieqieplus/meeting-view/pkg/store"
)

// Meeting modes
const (
	ModeConference = "CONFERENCE"
	ModeViewer     = "VIEWER"
)

// Recording and HLS states mirrored into the store
const (
	RecordingStarted = "RECORDING_STARTED"
	RecordingStopped = "RECORDING_STOPPED"
	HLSStarted       = "HLS_STARTED"
	HLSStopped       = "HLS_STOPPED"
)

// mediaController is implemented by SDKs that can switch a participant's streams
type mediaController interface {
	SetStream(id string, kind mediasdk.StreamKind, enabled bool) error
}

// participantRemover is implemented by SDKs that can drop a participant
type participantRemover interface {
	Leave(id string) error
}

func permit(allowed bool, action string) error {
	if !allowed {
		return errors.Wrap(ErrNotPermitted, action)
	}
	return nil
}

func enabled(on bool, feature string) error {
	if !on {
		return errors.Wrap(ErrFeatureDisabled, feature)
	}
	return nil
}

// streamPermission picks the self or other permission for a stream kind
func streamPermission(sc config.Session, local bool, kind mediasdk.StreamKind) (bool, error) {
	p := sc.Permissions
	switch kind {
	case mediasdk.StreamAudio:
		if local {
			return p.ToggleSelfMic, nil
		}
		return p.ToggleOtherMic, nil
	case mediasdk.StreamVideo:
		if local {
			return p.ToggleSelfWebcam, nil
		}
		return p.ToggleOtherWebcam, nil
	case mediasdk.StreamShare:
		if local {
			return sc.Features.ScreenShare, nil
		}
		return p.ToggleOtherScreenShare, nil
	default:
		return false, errors.Wrapf(ErrInvalidStream, "%q", kind)
	}
}

// SetParticipantMedia turns a participant's mic, webcam or screen share on or off.
// The local participant is checked against the self permissions, everyone else
// against the other permissions.
func (s *Session) SetParticipantMedia(participantID string, kind mediasdk.StreamKind, on bool) error {
	ctrl, ok := s.sdk.(mediaController)
	if !ok {
		return ErrUnsupported
	}
	var err error
	if derr := s.do(func() {
		p, found := s.sdk.Participant(participantID)
		if !found {
			err = errors.Wrapf(mediasdk.ErrParticipantNotFound, "participant %s", participantID)
			return
		}
		var allowed bool
		if allowed, err = streamPermission(s.cfg.Session, p.IsLocal, kind); err != nil {
			return
		}
		if err = permit(allowed, "toggle "+string(kind)); err != nil {
			return
		}
		err = ctrl.SetStream(participantID, kind, on)
	}); derr != nil {
		return derr
	}
	return err
}

// RemoveParticipant drops another participant from the meeting
func (s *Session) RemoveParticipant(participantID string) error {
	if err := permit(s.cfg.Session.Permissions.RemoveOtherParticipant, "remove participant"); err != nil {
		return err
	}
	remover, ok := s.sdk.(participantRemover)
	if !ok {
		return ErrUnsupported
	}
	var err error
	if derr := s.do(func() {
		p, found := s.sdk.Participant(participantID)
		if !found {
			err = errors.Wrapf(mediasdk.ErrParticipantNotFound, "participant %s", participantID)
			return
		}
		if p.IsLocal {
			err = errors.Wrap(ErrNotPermitted, "remove the local participant")
			return
		}
		err = remover.Leave(participantID)
	}); derr != nil {
		return derr
	}
	return err
}

// SetMeetingMode switches the meeting between CONFERENCE and VIEWER
func (s *Session) SetMeetingMode(mode string) error {
	if err := permit(s.cfg.Session.Permissions.ToggleOtherMode, "change mode"); err != nil {
		return err
	}
	mode = strings.ToUpper(strings.TrimSpace(mode))
	if mode != ModeConference && mode != ModeViewer {
		return errors.Wrapf(ErrInvalidMode, "got %q", mode)
	}
	return s.do(func() {
		if s.store.MeetingMode() != mode {
			s.store.SetMeetingMode(mode)
		}
	})
}

// ToggleWhiteboard starts or stops the whiteboard. Stopping clears the drawing.
func (s *Session) ToggleWhiteboard(started bool) error {
	sc := s.cfg.Session
	if err := enabled(sc.Features.Whiteboard, "whiteboard"); err != nil {
		return err
	}
	if err := permit(sc.Permissions.ToggleWhiteboard, "toggle whiteboard"); err != nil {
		return err
	}
	return s.do(func() {
		w := s.store.Whiteboard()
		if w.Started == started {
			return
		}
		if !started {
			w.State = nil
		}
		w.Started = started
		s.store.SetWhiteboardState(w)
	})
}

// DrawOnWhiteboard replaces the drawing of a started whiteboard
func (s *Session) DrawOnWhiteboard(drawing map[string]interface{}) error {
	sc := s.cfg.Session
	if err := enabled(sc.Features.Whiteboard, "whiteboard"); err != nil {
		return err
	}
	if err := permit(sc.Permissions.DrawOnWhiteboard, "draw on whiteboard"); err != nil {
		return err
	}
	var err error
	if derr := s.do(func() {
		if !s.store.WhiteboardStarted() {
			err = ErrNoWhiteboard
			return
		}
		s.store.SetWhiteboardState(store.WhiteboardState{Started: true, State: drawing})
	}); derr != nil {
		return derr
	}
	return err
}

// SetRecording starts or stops the recording
func (s *Session) SetRecording(active bool) error {
	sc := s.cfg.Session
	if err := enabled(sc.Features.Recording, "recording"); err != nil {
		return err
	}
	if err := permit(sc.Permissions.ToggleRecording, "toggle recording"); err != nil {
		return err
	}
	state := RecordingStopped
	if active {
		state = RecordingStarted
	}
	return s.do(func() { s.store.SetRecordingState(state) })
}

// SetHLS starts HLS with its playback URL, or stops it and clears the URL
func (s *Session) SetHLS(active bool, downstreamURL string) error {
	sc := s.cfg.Session
	if err := enabled(sc.Features.HLS, "hls"); err != nil {
		return err
	}
	if err := permit(sc.Permissions.ToggleHLS, "toggle hls"); err != nil {
		return err
	}
	state := HLSStopped
	if active {
		state = HLSStarted
	} else {
		downstreamURL = ""
	}
	return s.do(func() {
		s.store.SetHLSState(state)
		s.store.SetDownstreamURL(downstreamURL)
	})
}

// SetLiveStreamOutputs replaces the RTMP outputs. An empty list stops the live stream.
func (s *Session) SetLiveStreamOutputs(outputs []config.LiveStreamOutput) error {
	sc := s.cfg.Session
	if err := enabled(sc.Features.LiveStream, "live stream"); err != nil {
		return err
	}
	if err := permit(sc.Permissions.ToggleLivestream, "toggle live stream"); err != nil {
		return err
	}
	return s.do(func() { s.store.SetLiveStreamConfig(outputs) })
}

// Leave marks the meeting as left by the local viewer and returns where to go next.
// The caller closes the session.
func (s *Session) Leave() (string, error) {
	if err := permit(s.cfg.Session.Permissions.Leave, "leave"); err != nil {
		return "", err
	}
	if err := s.do(func() { s.store.SetMeetingLeft(true) }); err != nil {
		return "", err
	}
	return s.cfg.Session.RedirectOnLeave, nil
}

// CanEndMeeting reports whether the session may end the meeting for everyone
func (s *Session) CanEndMeeting() error {
	return permit(s.cfg.Session.Permissions.EndMeeting, "end meeting")
}
