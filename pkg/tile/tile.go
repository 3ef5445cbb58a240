// Package tile binds one participant's rendering surface to its visibility
// tracker and network sampler.
package tile

import (
	"time"

	"github.com/frostbyte73/core"

	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/log"
	"github.com/qieqieplus/meeting-view/pkg/loop"
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
	"github.com/qieqieplus/meeting-view/pkg/netquality"
	"github.com/qieqieplus/meeting-view/pkg/timer"
	"github.com/qieqieplus/meeting-view/pkg/visibility"
)

// Config wires a tile to the session
type Config struct {
	Participant mediasdk.Participant
	Session     config.Session
	Bus         visibility.Publisher
	Stats       mediasdk.StatsAccessor
	Scheduler   timer.Scheduler
	Dispatcher  loop.Dispatcher

	StatsInterval time.Duration
	// Async is passed to the sampler. nil runs queries on new goroutines.
	Async func(fn func())
	// OnSample is called on the dispatcher with every stored sample.
	OnSample func(participantID string, sample netquality.Sample)
}

// Tile must only be used from the session loop
type Tile struct {
	cfg         Config
	participant mediasdk.Participant
	tracker     *visibility.Tracker
	sampler     *netquality.Sampler
	mouseOver   bool
	mounted     bool
	closed      core.Fuse
	logger      log.Entry
}

// New creates an unmounted tile. The sampler exists only when the network bar is enabled.
func New(cfg Config) *Tile {
	t := &Tile{
		cfg:         cfg,
		participant: cfg.Participant,
		tracker:     visibility.NewTracker(cfg.Participant.ID, cfg.Bus),
		logger:      log.WithFields(log.Fields{"participant_id": cfg.Participant.ID}),
	}
	if cfg.Session.NetworkBarEnabled {
		id := cfg.Participant.ID
		t.sampler = netquality.NewSampler(netquality.Config{
			ParticipantID: id,
			Stats:         cfg.Stats,
			Scheduler:     cfg.Scheduler,
			Dispatcher:    cfg.Dispatcher,
			Interval:      cfg.StatsInterval,
			Async:         cfg.Async,
			OnSample: func(s netquality.Sample) {
				if cfg.OnSample != nil {
					cfg.OnSample(id, s)
				}
			},
		})
	}
	return t
}

// ParticipantID returns the bound participant id
func (t *Tile) ParticipantID() string {
	return t.participant.ID
}

// Participant returns the last participant state seen by the tile
func (t *Tile) Participant() mediasdk.Participant {
	return t.participant
}

// Mount reports the tile visible and starts sampling if a stream is active
func (t *Tile) Mount() {
	if t.closed.IsBroken() || t.mounted {
		return
	}
	t.mounted = true
	t.tracker.Mount()
	t.syncStreams()
	t.logger.Debugf("Tile mounted")
}

// Update applies a new participant state. Stream changes restart sampling.
func (t *Tile) Update(p mediasdk.Participant) {
	if t.closed.IsBroken() {
		return
	}
	streamsChanged := p.HasAudioStream != t.participant.HasAudioStream ||
		p.HasVideoStream != t.participant.HasVideoStream
	t.participant = p
	if t.mounted && streamsChanged {
		t.syncStreams()
	}
}

func (t *Tile) syncStreams() {
	if t.sampler != nil {
		t.sampler.SetStreams(t.participant.HasAudioStream, t.participant.HasVideoStream)
	}
}

// SetVisible forwards an intersection change to the tracker
func (t *Tile) SetVisible(visible bool) {
	if t.closed.IsBroken() {
		return
	}
	t.tracker.SetVisible(visible)
}

// Visible reports the last visibility emitted for this tile
func (t *Tile) Visible() bool {
	return t.tracker.Visible()
}

// SetMouseOver records pointer hover
func (t *Tile) SetMouseOver(v bool) {
	t.mouseOver = v
}

// Sampling reports whether the network sampler is polling
func (t *Tile) Sampling() bool {
	return t.sampler != nil && t.sampler.State() == netquality.StatePolling
}

// Sample returns the latest network sample, or an unknown one when the bar is disabled
func (t *Tile) Sample() netquality.Sample {
	if t.sampler == nil {
		return netquality.Sample{}
	}
	return t.sampler.Latest()
}

// QualityToggleEnabled is false for recorder sessions, which always receive high quality
func (t *Tile) QualityToggleEnabled() bool {
	return !t.cfg.Session.IsRecorder
}

// Overlay computes the overlay for the current state
func (t *Tile) Overlay(overlaidInfoVisible bool) Overlay {
	p := t.participant
	always := t.cfg.Session.AlwaysShowOverlay
	sample := t.Sample()
	tier := sample.Tier()

	return Overlay{
		Show:             ShowOverlay(always, t.mouseOver, p.IsActiveSpeaker, overlaidInfoVisible),
		ShowPin:          ShowPin(always, p.PinState.Pinned(), t.mouseOver),
		CanPin:           t.cfg.Session.Permissions.Pin,
		Pinned:           p.PinState.Pinned(),
		Label:            DisplayLabel(p),
		ShowMicBadge:     ShowMicBadge(p),
		SpeakerAnimation: p.WebcamOn && p.IsActiveSpeaker,
		ShowNetworkBar:   t.cfg.Session.NetworkBarEnabled && (p.HasAudioStream || p.HasVideoStream),
		NetworkTier:      tier,
		NetworkBars:      netquality.BarsFor(tier),
	}
}

// Close unmounts the tile: it reports invisible and releases the sampler timer
func (t *Tile) Close() {
	if !t.closed.Break() {
		return
	}
	if t.sampler != nil {
		t.sampler.Close()
	}
	if t.mounted {
		t.tracker.Unmount()
	}
	t.logger.Debugf("Tile closed")
}
