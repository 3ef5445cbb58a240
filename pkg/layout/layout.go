// Package layout turns the session's layout descriptor into the single mode a renderer uses.
package layout

import "strings"

// Type is the layout family chosen by the host or the configuration.
type Type string

const (
	TypeSpotlight Type = "SPOTLIGHT"
	TypeSidebar   Type = "SIDEBAR"
	TypeGrid      Type = "GRID"
)

// Priority selects which signal drives emphasis: active speaker or an explicit pin.
type Priority string

const (
	PrioritySpeaker Priority = "SPEAKER"
	PriorityPin     Priority = "PIN"
)

// Mode is the resolved layout. It is always recomputed from a Descriptor.
type Mode string

const (
	ModeSpotlight         Mode = "SPOTLIGHT"
	ModeSidebar           Mode = "SIDEBAR"
	ModeGrid              Mode = "GRID"
	ModeUnpinnedSidebar   Mode = "UNPINNED_SIDEBAR"
	ModeUnpinnedSpotlight Mode = "UNPINNED_SPOTLIGHT"
)

// Topic names the output a layout applies to.
type Topic string

const (
	TopicMeeting    Topic = "MEETING_LAYOUT"
	TopicRecording  Topic = "RECORDING_LAYOUT"
	TopicLiveStream Topic = "LIVE_STREAM_LAYOUT"
	TopicHLS        Topic = "HLS_LAYOUT"
)

// RecorderMaxGridSize is the grid size enforced for unattended recorder sessions.
const RecorderMaxGridSize = 25

// Descriptor is the raw layout state held by the store.
type Descriptor struct {
	Type     Type     `json:"type" toml:"type"`
	Priority Priority `json:"priority" toml:"priority"`
	GridSize int      `json:"grid_size" toml:"grid_size"`
}

// Resolve maps a descriptor to its mode. Unknown types fall through to GRID.
func Resolve(d Descriptor) Mode {
	if d.Priority == PriorityPin {
		switch d.Type {
		case TypeSpotlight:
			return ModeSpotlight
		case TypeSidebar:
			return ModeSidebar
		default:
			return ModeGrid
		}
	}

	switch d.Type {
	case TypeSpotlight:
		return ModeUnpinnedSpotlight
	case TypeSidebar:
		return ModeUnpinnedSidebar
	default:
		return ModeGrid
	}
}

// Pinned reports whether the mode is one of the pin-driven variants.
func (m Mode) Pinned() bool {
	return m == ModeSpotlight || m == ModeSidebar
}

// ParseType is case-insensitive and keeps unknown values as-is so Resolve can still fall back.
func ParseType(s string) Type {
	return Type(strings.ToUpper(strings.TrimSpace(s)))
}

// ParsePriority is case-insensitive. Anything other than PIN is treated as SPEAKER by Resolve.
func ParsePriority(s string) Priority {
	return Priority(strings.ToUpper(strings.TrimSpace(s)))
}
