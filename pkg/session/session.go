// Package session mirrors one media SDK session into tiles and the shared
// meeting state. All tile, timer and SDK callback work runs on a single loop.
package session

import (
	"sort"
	"time"

	"github.com/frostbyte73/core"
	"github.com/pkg/errors"

	"github.com/qieqieplus/meeting-view/pkg/blink"
	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/events"
	"github.com/qieqieplus/meeting-view/pkg/layout"
	"github.com/qieqieplus/meeting-view/pkg/log"
	"github.com/qieqieplus/meeting-view/pkg/loop"
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
	"github.com/qieqieplus/meeting-view/pkg/netquality"
	"github.com/qieqieplus/meeting-view/pkg/store"
	"github.com/qieqieplus/meeting-view/pkg/tile"
	"github.com/qieqieplus/meeting-view/pkg/timer"
	"github.com/qieqieplus/meeting-view/pkg/visibility"
)

// Status of a session
type Status int

const (
	StatusIdle Status = iota
	StatusActive
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options override the session's execution environment. The zero value runs
// the session on its own loop with real timers.
type Options struct {
	// Dispatcher replaces the session loop, e.g. loop.Inline in tests.
	Dispatcher loop.Dispatcher
	Scheduler  timer.Scheduler
	// Async runs statistics queries. nil uses a goroutine per query.
	Async func(fn func())
	Now   func() time.Time
	// StoreOptions are passed to store.New.
	StoreOptions []store.Option
}

// Info summarizes a session for listings
type Info struct {
	MeetingID    string    `json:"meeting_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	Participants int       `json:"participants"`
	VisibleTiles int       `json:"visible_tiles"`
	Version      uint64    `json:"version"`
	Layout       string    `json:"meeting_layout"`
}

// TileView is a tile as a renderer would draw it
type TileView struct {
	Participant          store.ParticipantView `json:"participant"`
	Overlay              tile.Overlay          `json:"overlay"`
	QualityToggleEnabled bool                  `json:"quality_toggle_enabled"`
}

// Session owns the loop, bus, store and tiles of one meeting
type Session struct {
	cfg       config.Config
	sdk       mediasdk.SDK
	bus       *events.Bus
	store     *store.Store
	visible   *visibility.Set
	createdAt time.Time
	logger    log.Entry

	loop       *loop.Loop
	dispatcher loop.Dispatcher
	scheduler  timer.Scheduler
	async      func(fn func())

	// loop-only
	status   Status
	tiles    map[string]*tile.Tile
	blinkers map[string]*blink.Indicator

	closing core.Fuse
	closed  core.Fuse
}

// New validates the configuration and builds an idle session. Nothing runs until Start.
func New(cfg config.Config, sdk mediasdk.SDK, opts Options) (*Session, error) {
	if err := cfg.Session.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid session configuration")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		cfg:       cfg,
		sdk:       sdk,
		bus:       events.NewBus(),
		createdAt: opts.Now(),
		logger:    log.WithFields(log.Fields{"meeting_id": cfg.Session.MeetingID}),
		async:     opts.Async,
		tiles:     make(map[string]*tile.Tile),
		blinkers:  make(map[string]*blink.Indicator),
	}
	s.store = store.New(cfg.Session, s.bus, opts.StoreOptions...)
	s.visible = visibility.NewSet(s.bus)
	s.visible.AddObserver(visibility.ObserverFunc(s.onVisibilityChange))

	s.dispatcher = opts.Dispatcher
	if s.dispatcher == nil {
		s.loop = loop.New()
		s.dispatcher = s.loop
	}
	s.scheduler = opts.Scheduler
	if s.scheduler == nil {
		s.scheduler = timer.NewLoopScheduler(s.dispatcher)
	}
	return s, nil
}

// Start runs the loop, registers with the SDK and mounts a tile per participant
func (s *Session) Start() error {
	if s.loop != nil {
		if err := s.loop.Start(); err != nil {
			return err
		}
	}
	err := s.do(func() {
		s.sdk.SetListener(&listener{s: s})
		for _, p := range s.sdk.Participants() {
			s.addParticipant(p)
		}
		s.status = StatusActive
	})
	if err != nil {
		return err
	}
	s.logger.Infof("Session started with %d participants", len(s.sdk.Participants()))
	return nil
}

// do runs fn on the session's thread and waits for it. Work that reaches the
// thread after teardown is skipped.
func (s *Session) do(fn func()) error {
	if s.closing.IsBroken() {
		return ErrSessionClosed
	}
	var err error
	if rerr := s.run(func() {
		if s.status == StatusClosed {
			err = ErrSessionClosed
			return
		}
		fn()
	}); rerr != nil {
		return rerr
	}
	return err
}

func (s *Session) run(fn func()) error {
	if s.loop != nil {
		return s.loop.Do(fn)
	}
	fn()
	return nil
}

// MeetingID returns the session key
func (s *Session) MeetingID() string {
	return s.cfg.Session.MeetingID
}

// Bus returns the session's event bus
func (s *Session) Bus() *events.Bus {
	return s.bus
}

// Store returns the shared meeting state
func (s *Session) Store() *store.Store {
	return s.store
}

// SDK returns the media SDK the session mirrors
func (s *Session) SDK() mediasdk.SDK {
	return s.sdk
}

// Done is closed once the session is closed
func (s *Session) Done() <-chan struct{} {
	return s.closed.Watch()
}

// Visible returns the ids currently reported visible
func (s *Session) Visible() []string {
	return s.visible.IDs()
}

func (s *Session) addParticipant(p mediasdk.Participant) {
	s.store.UpsertParticipant(p)
	if p.IsLocal && s.cfg.Session.HideLocalParticipant {
		return
	}
	if _, ok := s.tiles[p.ID]; ok {
		return
	}

	t := tile.New(tile.Config{
		Participant:   p,
		Session:       s.cfg.Session,
		Bus:           s.bus,
		Stats:         s.sdk,
		Scheduler:     s.scheduler,
		Dispatcher:    s.dispatcher,
		StatsInterval: s.cfg.StatsInterval,
		Async:         s.async,
		OnSample:      s.store.SetNetworkSample,
	})
	s.tiles[p.ID] = t
	t.Mount()
}

func (s *Session) updateParticipant(p mediasdk.Participant) {
	s.store.UpsertParticipant(p)
	if t, ok := s.tiles[p.ID]; ok {
		t.Update(p)
	}
	if p.PinState.Pinned() {
		s.setPriority(layout.PriorityPin)
		return
	}
	s.restoreSpeakerPriority()
}

func (s *Session) setPriority(p layout.Priority) {
	if s.store.Layout().Priority != p {
		s.store.SetLayoutPriority(p)
	}
}

func (s *Session) removeParticipant(id string) {
	if t, ok := s.tiles[id]; ok {
		t.Close()
		delete(s.tiles, id)
	}
	s.store.RemoveParticipant(id)
	s.restoreSpeakerPriority()
}

// restoreSpeakerPriority drops back to SPEAKER once nobody is pinned
func (s *Session) restoreSpeakerPriority() {
	if s.store.Layout().Priority != layout.PriorityPin {
		return
	}
	for _, p := range s.sdk.Participants() {
		if p.PinState.Pinned() {
			return
		}
	}
	s.setPriority(layout.PrioritySpeaker)
}

func (s *Session) onVisibilityChange(participantID string, visible bool) {
	s.store.SetParticipantVisible(participantID, visible)
	s.store.SetVisibleTiles(s.visible.IDs())
}

// Pin pins a participant through the SDK and switches the layout to PIN priority
func (s *Session) Pin(participantID string, mode mediasdk.PinMode) error {
	if !s.cfg.Session.Permissions.Pin {
		return ErrPinNotAllowed
	}
	var err error
	if derr := s.do(func() {
		if err = s.sdk.Pin(participantID, mode); err != nil {
			return
		}
		s.setPriority(layout.PriorityPin)
	}); derr != nil {
		return derr
	}
	return err
}

// Unpin clears a pin. The layout returns to SPEAKER when it was the last one.
func (s *Session) Unpin(participantID string, mode mediasdk.PinMode) error {
	if !s.cfg.Session.Permissions.Pin {
		return ErrPinNotAllowed
	}
	var err error
	if derr := s.do(func() {
		if err = s.sdk.Unpin(participantID, mode); err != nil {
			return
		}
		s.restoreSpeakerPriority()
	}); derr != nil {
		return derr
	}
	return err
}

// SetTileVisible reports a viewport intersection change for a tile
func (s *Session) SetTileVisible(participantID string, visible bool) error {
	var err error
	if derr := s.do(func() {
		t, ok := s.tiles[participantID]
		if !ok {
			err = errors.Wrapf(ErrTileNotFound, "participant %s", participantID)
			return
		}
		t.SetVisible(visible)
	}); derr != nil {
		return derr
	}
	return err
}

// SetTileHover records pointer hover, which affects the overlay
func (s *Session) SetTileHover(participantID string, hover bool) error {
	var err error
	if derr := s.do(func() {
		t, ok := s.tiles[participantID]
		if !ok {
			err = errors.Wrapf(ErrTileNotFound, "participant %s", participantID)
			return
		}
		t.SetMouseOver(hover)
	}); derr != nil {
		return derr
	}
	return err
}

// ToggleFullScreen publishes the full screen toggle and returns how many handlers received it
func (s *Session) ToggleFullScreen() (int, error) {
	if s.closing.IsBroken() {
		return 0, ErrSessionClosed
	}
	return s.bus.Publish(events.ToggleFullScreen, nil), nil
}

// SetRequestProcessing blinks the control while a request is in flight.
// The control's opacity is mirrored into the store until processing stops.
func (s *Session) SetRequestProcessing(controlID string, processing bool) error {
	if controlID == "" {
		return ErrInvalidControl
	}
	return s.do(func() {
		ind, ok := s.blinkers[controlID]
		if !ok {
			if !processing {
				return
			}
			ind = blink.NewIndicator(s.scheduler, s.cfg.BlinkInterval, func(opacity float64) {
				s.store.SetControlOpacity(controlID, opacity)
			})
			s.blinkers[controlID] = ind
			s.store.SetControlOpacity(controlID, ind.Opacity())
		}
		ind.SetProcessing(processing)
		if !processing {
			ind.Close()
			delete(s.blinkers, controlID)
			s.store.RemoveControl(controlID)
		}
	})
}

// Tiles returns the mounted tiles in participant join order
func (s *Session) Tiles() ([]TileView, error) {
	var views []TileView
	err := s.do(func() {
		overlaid := s.store.OverlaidInfoVisible()
		for _, p := range s.store.Participants() {
			t, ok := s.tiles[p.ID]
			if !ok {
				continue
			}
			views = append(views, TileView{
				Participant:          p,
				Overlay:              t.Overlay(overlaid),
				QualityToggleEnabled: t.QualityToggleEnabled(),
			})
		}
	})
	return views, err
}

// Sample returns the latest network sample for a participant's tile
func (s *Session) Sample(participantID string) (netquality.Sample, error) {
	var (
		sample netquality.Sample
		err    error
	)
	if derr := s.do(func() {
		t, ok := s.tiles[participantID]
		if !ok {
			err = errors.Wrapf(ErrTileNotFound, "participant %s", participantID)
			return
		}
		sample = t.Sample()
	}); derr != nil {
		return sample, derr
	}
	return sample, err
}

// Snapshot returns a consistent copy of the meeting state
func (s *Session) Snapshot() store.Snapshot {
	return s.store.Snapshot()
}

// Info summarizes the session
func (s *Session) Info() Info {
	status := StatusActive
	if s.closing.IsBroken() {
		status = StatusClosed
	}
	snap := s.store.Snapshot()
	return Info{
		MeetingID:    s.MeetingID(),
		Status:       status.String(),
		CreatedAt:    s.createdAt,
		Participants: len(snap.Participants),
		VisibleTiles: len(snap.VisibleTiles),
		Version:      snap.Version,
		Layout:       string(snap.MeetingLayout),
	}
}

// Close unmounts every tile, stops the blinkers and the loop. Calling it again is a no-op.
func (s *Session) Close() error {
	if !s.closing.Break() {
		return nil
	}
	s.sdk.SetListener(nil)

	teardown := func() {
		ids := make([]string, 0, len(s.tiles))
		for id := range s.tiles {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			s.tiles[id].Close()
			delete(s.tiles, id)
		}
		// Stop first so the store is left at the steady opacity
		for id, ind := range s.blinkers {
			ind.Stop()
			ind.Close()
			delete(s.blinkers, id)
		}
		s.status = StatusClosed
	}
	if err := s.run(teardown); err != nil {
		// The loop never started or already stopped, nothing else runs
		teardown()
	}
	s.closed.Break()

	s.store.SetMeetingLeft(true)
	s.visible.Close()
	if s.loop != nil {
		if err := s.loop.Stop(); err != nil && err != loop.ErrStopped {
			return err
		}
	}
	s.bus.Shutdown()
	s.logger.Infof("Session closed")
	return nil
}
