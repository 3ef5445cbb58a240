package tile

import (
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
	"github.com/qieqieplus/meeting-view/pkg/netquality"
)

const (
	presenterNameLength = 15
	nameLength          = 26
)

// Overlay is what a renderer draws on top of a tile
type Overlay struct {
	Show             bool            `json:"show"`
	ShowPin          bool            `json:"show_pin"`
	CanPin           bool            `json:"can_pin"`
	Pinned           bool            `json:"pinned"`
	Label            string          `json:"label"`
	ShowMicBadge     bool            `json:"show_mic_badge"`
	SpeakerAnimation bool            `json:"speaker_animation"`
	ShowNetworkBar   bool            `json:"show_network_bar"`
	NetworkTier      netquality.Tier `json:"network_tier"`
	NetworkBars      netquality.Bars `json:"network_bars"`
}

// ShowOverlay reports whether the name plate and badges are visible
func ShowOverlay(alwaysShow, mouseOver, activeSpeaker, overlaidInfoVisible bool) bool {
	return alwaysShow || mouseOver || activeSpeaker || overlaidInfoVisible
}

// ShowPin reports whether the pin button is visible. With an always-on
// overlay only pinned tiles show it.
func ShowPin(alwaysShow, pinned, mouseOver bool) bool {
	if alwaysShow {
		return pinned
	}
	return pinned || mouseOver
}

// ShowMicBadge is true when the mic is off or the speaker animation plays
func ShowMicBadge(p mediasdk.Participant) bool {
	return !p.MicOn || (p.WebcamOn && p.IsActiveSpeaker)
}

// TruncateName shortens name to n runes followed by "..."
func TruncateName(name string, n int) string {
	runes := []rune(name)
	if len(runes) <= n {
		return name
	}
	return string(runes[:n]) + "..."
}

// DisplayLabel is the name plate text
func DisplayLabel(p mediasdk.Participant) string {
	switch {
	case p.IsPresenting && p.IsLocal:
		return "You are presenting"
	case p.IsPresenting:
		return TruncateName(p.DisplayName, presenterNameLength) + " is presenting"
	case p.IsLocal:
		return "You"
	default:
		return TruncateName(p.DisplayName, nameLength)
	}
}
