// Package netquality polls the SDK's per-stream statistics for one tile.
package netquality

import (
	"context"
	"sync"
	"time"

	"github.com/frostbyte73/core"

	"github.com/qieqieplus/meeting-view/pkg/log"
	"github.com/qieqieplus/meeting-view/pkg/loop"
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
	"github.com/qieqieplus/meeting-view/pkg/timer"
)

const (
	DefaultInterval     = 10 * time.Second
	DefaultQueryTimeout = 5 * time.Second
)

// State of a sampler
type State int

const (
	StateIdle State = iota
	StatePolling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	default:
		return "unknown"
	}
}

// Sample is the latest score for a participant
type Sample struct {
	Score     *float64  `json:"score,omitempty"`
	SampledAt time.Time `json:"sampled_at"`
}

// Tier returns the sample's presentation tier
func (s Sample) Tier() Tier {
	return TierFor(s.Score)
}

// Config wires a sampler to its collaborators
type Config struct {
	ParticipantID string
	Stats         mediasdk.StatsAccessor
	Scheduler     timer.Scheduler
	Dispatcher    loop.Dispatcher

	Interval     time.Duration // defaults to DefaultInterval
	QueryTimeout time.Duration // defaults to DefaultQueryTimeout

	// Async runs a statistics query off the loop. Defaults to a new goroutine.
	Async func(fn func())
	// OnSample is called on the dispatcher whenever a new score is stored.
	OnSample func(Sample)
	Now      func() time.Time
}

// Sampler is IDLE while the tile has no stream and POLLING otherwise. All
// methods except Latest must be called on the dispatcher's thread.
type Sampler struct {
	cfg      Config
	logger   log.Entry
	state    State
	hasAudio bool
	hasVideo bool
	cancel   timer.Cancel
	closed   core.Fuse

	// generation drops results of queries issued before the last SetStreams
	generation uint64

	mutex  sync.RWMutex
	latest Sample
}

// NewSampler creates an idle sampler
func NewSampler(cfg Config) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if cfg.Async == nil {
		cfg.Async = func(fn func()) { go fn() }
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = loop.Inline{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sampler{
		cfg:    cfg,
		logger: log.WithFields(log.Fields{"participant_id": cfg.ParticipantID}),
	}
}

// State returns the current state
func (s *Sampler) State() State {
	return s.state
}

// SetStreams updates the tile's streams. Any active stream (re)enters POLLING
// with an immediate sample; no stream returns to IDLE.
func (s *Sampler) SetStreams(hasAudio, hasVideo bool) {
	if s.closed.IsBroken() {
		return
	}
	s.hasAudio, s.hasVideo = hasAudio, hasVideo
	s.generation++

	s.stopTimer()
	if !hasAudio && !hasVideo {
		s.state = StateIdle
		return
	}

	s.state = StatePolling
	s.sample()
	s.cancel = s.cfg.Scheduler.Every(s.cfg.Interval, s.sample)
}

func (s *Sampler) stopTimer() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Sampler) sample() {
	if s.closed.IsBroken() {
		return
	}

	video := s.hasVideo
	id := s.cfg.ParticipantID
	generation := s.generation
	s.cfg.Async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.QueryTimeout)
		defer cancel()

		var (
			stats *mediasdk.Stats
			err   error
		)
		if video {
			stats, err = s.cfg.Stats.VideoStats(ctx, id)
		} else {
			stats, err = s.cfg.Stats.AudioStats(ctx, id)
		}
		s.cfg.Dispatcher.Post(func() { s.apply(generation, stats, err) })
	})
}

// apply keeps the previous score on failure so the indicator doesn't flicker.
func (s *Sampler) apply(generation uint64, stats *mediasdk.Stats, err error) {
	if s.closed.IsBroken() || generation != s.generation {
		return
	}
	if err != nil {
		s.logger.Debugf("Statistics query failed, keeping previous score: %v", err)
		return
	}
	if stats == nil || stats.Score == nil {
		return
	}

	score := *stats.Score
	sample := Sample{Score: &score, SampledAt: s.cfg.Now()}

	s.mutex.Lock()
	s.latest = sample
	s.mutex.Unlock()

	if s.cfg.OnSample != nil {
		s.cfg.OnSample(sample)
	}
}

// Latest returns the most recent stored sample. Safe from any goroutine.
func (s *Sampler) Latest() Sample {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.latest
}

// Close cancels the timer. Results still in flight are discarded.
func (s *Sampler) Close() {
	if !s.closed.Break() {
		return
	}
	s.stopTimer()
	s.state = StateIdle
}
