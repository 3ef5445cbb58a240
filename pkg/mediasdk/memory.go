package mediasdk

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrParticipantExists   = errors.New("participant already joined")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrNoStream            = errors.New("participant has no such stream")
)

var _ SDK = (*Memory)(nil)

// StatsSource produces statistics for one participant's stream
type StatsSource interface {
	Stats(ctx context.Context, participantID string, kind StreamKind) (*Stats, error)
}

// Memory is an in-process SDK. Participants and streams are driven through its
// methods, and listener callbacks run on the caller's goroutine after the lock is released.
type Memory struct {
	mutex        sync.RWMutex
	participants map[string]*Participant
	order        []string
	scores       map[string]*float64
	failures     map[string]error
	source       StatsSource
	listener     Listener
}

// NewMemory creates an empty SDK. A nil source serves the scores set with SetScore.
func NewMemory(source StatsSource) *Memory {
	return &Memory{
		participants: make(map[string]*Participant),
		scores:       make(map[string]*float64),
		failures:     make(map[string]error),
		source:       source,
	}
}

// SetListener replaces the listener. nil disables notifications.
func (m *Memory) SetListener(l Listener) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.listener = l
}

func (m *Memory) currentListener() Listener {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.listener
}

// Join adds a participant and reports it joined
func (m *Memory) Join(p Participant) error {
	if p.ID == "" {
		return ErrParticipantNotFound
	}

	m.mutex.Lock()
	if _, ok := m.participants[p.ID]; ok {
		m.mutex.Unlock()
		return ErrParticipantExists
	}
	cp := p
	m.participants[p.ID] = &cp
	m.order = append(m.order, p.ID)
	l := m.listener
	m.mutex.Unlock()

	if l != nil {
		l.OnParticipantJoined(p)
	}
	return nil
}

// Leave removes a participant and reports it left
func (m *Memory) Leave(id string) error {
	m.mutex.Lock()
	if _, ok := m.participants[id]; !ok {
		m.mutex.Unlock()
		return ErrParticipantNotFound
	}
	delete(m.participants, id)
	delete(m.scores, id)
	delete(m.failures, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	l := m.listener
	m.mutex.Unlock()

	if l != nil {
		l.OnParticipantLeft(id)
	}
	return nil
}

// Update replaces the mutable fields of a participant. Stream flags are kept;
// use SetStream to change them.
func (m *Memory) Update(p Participant) error {
	m.mutex.Lock()
	cur, ok := m.participants[p.ID]
	if !ok {
		m.mutex.Unlock()
		return ErrParticipantNotFound
	}
	p.HasAudioStream, p.HasVideoStream = cur.HasAudioStream, cur.HasVideoStream
	*cur = p
	l := m.listener
	m.mutex.Unlock()

	if l != nil {
		l.OnParticipantUpdated(p)
	}
	return nil
}

// SetStream enables or disables a stream. Setting the current value is a no-op.
func (m *Memory) SetStream(id string, kind StreamKind, enabled bool) error {
	m.mutex.Lock()
	p, ok := m.participants[id]
	if !ok {
		m.mutex.Unlock()
		return ErrParticipantNotFound
	}

	var flag *bool
	switch kind {
	case StreamAudio:
		flag = &p.HasAudioStream
	case StreamVideo:
		flag = &p.HasVideoStream
	case StreamShare:
		flag = &p.IsPresenting
	default:
		m.mutex.Unlock()
		return ErrNoStream
	}
	changed := *flag != enabled
	*flag = enabled
	l := m.listener
	m.mutex.Unlock()

	if l == nil || !changed {
		return nil
	}
	if enabled {
		l.OnStreamEnabled(id, kind)
	} else {
		l.OnStreamDisabled(id, kind)
	}
	return nil
}

// SetScore sets a static score for id that takes precedence over the StatsSource.
// nil clears it.
func (m *Memory) SetScore(id string, score *float64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.participants[id]; !ok {
		return ErrParticipantNotFound
	}
	if score == nil {
		delete(m.scores, id)
		return nil
	}
	v := *score
	m.scores[id] = &v
	return nil
}

// SetStatsError makes statistics queries for id fail with err until cleared with nil
func (m *Memory) SetStatsError(id string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err == nil {
		delete(m.failures, id)
		return
	}
	m.failures[id] = err
}

// Participants returns the joined participants in join order
func (m *Memory) Participants() []Participant {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]Participant, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.participants[id])
	}
	return out
}

// Participant returns one participant
func (m *Memory) Participant(id string) (Participant, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	p, ok := m.participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Pin sets the pin flags selected by mode and reports the update
func (m *Memory) Pin(id string, mode PinMode) error {
	return m.setPin(id, mode, true)
}

// Unpin clears the pin flags selected by mode and reports the update
func (m *Memory) Unpin(id string, mode PinMode) error {
	return m.setPin(id, mode, false)
}

func (m *Memory) setPin(id string, mode PinMode, pinned bool) error {
	m.mutex.Lock()
	p, ok := m.participants[id]
	if !ok {
		m.mutex.Unlock()
		return ErrParticipantNotFound
	}
	switch mode {
	case PinCam:
		p.PinState.Cam = pinned
	case PinShare:
		p.PinState.Share = pinned
	default:
		p.PinState.Cam = pinned
		p.PinState.Share = pinned
	}
	updated := *p
	l := m.listener
	m.mutex.Unlock()

	if l != nil {
		l.OnParticipantUpdated(updated)
	}
	return nil
}

// VideoStats returns statistics for the participant's video stream
func (m *Memory) VideoStats(ctx context.Context, id string) (*Stats, error) {
	return m.stats(ctx, id, StreamVideo)
}

// AudioStats returns statistics for the participant's audio stream
func (m *Memory) AudioStats(ctx context.Context, id string) (*Stats, error) {
	return m.stats(ctx, id, StreamAudio)
}

func (m *Memory) stats(ctx context.Context, id string, kind StreamKind) (*Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mutex.RLock()
	p, ok := m.participants[id]
	if !ok {
		m.mutex.RUnlock()
		return nil, ErrParticipantNotFound
	}
	has := p.HasAudioStream
	if kind == StreamVideo {
		has = p.HasVideoStream
	}
	err := m.failures[id]
	var score *float64
	if s, ok := m.scores[id]; ok {
		v := *s
		score = &v
	}
	source := m.source
	m.mutex.RUnlock()

	switch {
	case !has:
		return nil, ErrNoStream
	case err != nil:
		return nil, err
	case score == nil && source != nil:
		return source.Stats(ctx, id, kind)
	default:
		return &Stats{Score: score}, nil
	}
}
