// Package pionstats derives network scores from pion WebRTC statistics.
package pionstats

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
)

var ErrUnknownPeer = errors.New("no peer connection for participant")

// Getter is satisfied by *webrtc.PeerConnection
type Getter interface {
	GetStats() webrtc.StatsReport
}

// Source serves mediasdk.Stats from the inbound RTP statistics of each
// participant's peer connection.
type Source struct {
	mutex sync.RWMutex
	peers map[string]Getter
}

var _ mediasdk.StatsSource = (*Source)(nil)

func NewSource() *Source {
	return &Source{peers: make(map[string]Getter)}
}

// Add binds a participant to its peer connection, replacing any previous one
func (s *Source) Add(participantID string, g Getter) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.peers[participantID] = g
}

// Remove forgets a participant
func (s *Source) Remove(participantID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.peers, participantID)
}

// Stats scores the participant's inbound stream of the given kind. A report
// without such a stream yields an unknown score.
func (s *Source) Stats(ctx context.Context, participantID string, kind mediasdk.StreamKind) (*mediasdk.Stats, error) {
	s.mutex.RLock()
	g, ok := s.peers[participantID]
	s.mutex.RUnlock()
	if !ok {
		return nil, ErrUnknownPeer
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &mediasdk.Stats{Score: ScoreReport(g.GetStats(), kind)}, nil
}

// ScoreReport aggregates every inbound RTP stream of kind in the report.
// Screen share is carried as video.
func ScoreReport(report webrtc.StatsReport, kind mediasdk.StreamKind) *float64 {
	want := string(kind)
	if kind == mediasdk.StreamShare {
		want = string(mediasdk.StreamVideo)
	}

	var (
		received, lost uint64
		jitter         float64
		streams        int
	)
	for _, stat := range report {
		var in webrtc.InboundRTPStreamStats
		switch v := stat.(type) {
		case webrtc.InboundRTPStreamStats:
			in = v
		case *webrtc.InboundRTPStreamStats:
			in = *v
		default:
			continue
		}
		if in.Kind != want {
			continue
		}
		received += uint64(in.PacketsReceived)
		if in.PacketsLost > 0 {
			lost += uint64(in.PacketsLost)
		}
		if in.Jitter > jitter {
			jitter = in.Jitter
		}
		streams++
	}
	if streams == 0 || received+lost == 0 {
		return nil
	}

	score := Score(float64(lost)/float64(received+lost), jitter)
	return &score
}

// Score maps a loss fraction (0-1) and jitter in seconds to 0-10.
// Each percent of loss costs half a point and every 20ms of jitter costs one.
func Score(lossFraction, jitterSeconds float64) float64 {
	score := 10 - lossFraction*100/2 - jitterSeconds*1000/20
	switch {
	case score < 0:
		return 0
	case score > 10:
		return 10
	default:
		return score
	}
}
