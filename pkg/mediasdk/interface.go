// Package mediasdk describes the external media SDK the session mirrors.
// Signaling, capture and transport all live behind these interfaces.
package mediasdk

import "context"

// PinMode selects what is pinned for a participant
type PinMode string

const (
	PinCam         PinMode = "CAM"
	PinShare       PinMode = "SHARE"
	PinShareAndCam PinMode = "SHARE_AND_CAM"
)

// PinState is the participant's current pin flags
type PinState struct {
	Cam   bool `json:"cam"`
	Share bool `json:"share"`
}

// Pinned reports whether anything is pinned
func (p PinState) Pinned() bool {
	return p.Cam || p.Share
}

// Participant is the SDK's view of one attendee. The session only mirrors it.
type Participant struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"display_name"`
	MicOn           bool     `json:"mic_on"`
	WebcamOn        bool     `json:"webcam_on"`
	IsLocal         bool     `json:"is_local"`
	IsActiveSpeaker bool     `json:"is_active_speaker"`
	IsPresenting    bool     `json:"is_presenting"`
	PinState        PinState `json:"pin_state"`
	HasAudioStream  bool     `json:"has_audio_stream"`
	HasVideoStream  bool     `json:"has_video_stream"`
}

// StreamKind identifies a media stream
type StreamKind string

const (
	StreamAudio StreamKind = "audio"
	StreamVideo StreamKind = "video"
	StreamShare StreamKind = "share"
)

// Stats is what the per-stream statistics accessor returns. Score is 0-10, nil when unknown.
type Stats struct {
	Score *float64 `json:"score,omitempty"`
}

// StatsAccessor queries per-stream statistics
type StatsAccessor interface {
	VideoStats(ctx context.Context, participantID string) (*Stats, error)
	AudioStats(ctx context.Context, participantID string) (*Stats, error)
}

// Listener receives SDK notifications. Implementations must return quickly.
type Listener interface {
	OnParticipantJoined(p Participant)
	OnParticipantLeft(participantID string)
	OnParticipantUpdated(p Participant)
	OnStreamEnabled(participantID string, kind StreamKind)
	OnStreamDisabled(participantID string, kind StreamKind)
}

// SDK is the media SDK surface consumed by a session
type SDK interface {
	StatsAccessor

	Participants() []Participant
	Participant(id string) (Participant, bool)
	Pin(participantID string, mode PinMode) error
	Unpin(participantID string, mode PinMode) error
	SetListener(l Listener)
}
