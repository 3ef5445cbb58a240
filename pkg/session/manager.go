package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/log"
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
)

// SDKFactory creates the media SDK for a new session
type SDKFactory func(meetingID string) mediasdk.SDK

// Manager manages multiple sessions keyed by meeting id
type Manager struct {
	sessions sync.Map // map[string]*Session
	defaults config.Config
	newSDK   SDKFactory
	opts     Options
}

// NewManager creates a manager. Sessions inherit defaults for everything but
// their session block. A nil factory gives every session an in-memory SDK.
func NewManager(defaults config.Config, newSDK SDKFactory, opts Options) *Manager {
	if newSDK == nil {
		newSDK = func(string) mediasdk.SDK { return mediasdk.NewMemory(nil) }
	}
	return &Manager{
		defaults: defaults,
		newSDK:   newSDK,
		opts:     opts,
	}
}

// Create validates the session configuration and starts the session
func (m *Manager) Create(sc config.Session) (*Session, error) {
	if _, exists := m.sessions.Load(sc.MeetingID); exists {
		return nil, errors.Wrapf(ErrSessionExists, "meeting %s", sc.MeetingID)
	}

	cfg := m.defaults
	cfg.Session = sc
	s, err := New(cfg, m.newSDK(sc.MeetingID), m.opts)
	if err != nil {
		return nil, err
	}

	// Only started sessions are visible to Get
	if err := s.Start(); err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "failed to start session %s", sc.MeetingID)
	}

	// Add to sessions map (check again for race)
	if _, loaded := m.sessions.LoadOrStore(sc.MeetingID, s); loaded {
		s.Close()
		return nil, errors.Wrapf(ErrSessionExists, "meeting %s", sc.MeetingID)
	}

	log.Infof("Created session: %s", sc.MeetingID)
	return s, nil
}

// Get returns a session by meeting id
func (m *Manager) Get(meetingID string) (*Session, bool) {
	value, exists := m.sessions.Load(meetingID)
	if !exists {
		return nil, false
	}
	return value.(*Session), true
}

// Close closes and removes a session
func (m *Manager) Close(meetingID string) error {
	value, exists := m.sessions.LoadAndDelete(meetingID)
	if !exists {
		return errors.Wrapf(ErrSessionNotFound, "meeting %s", meetingID)
	}

	if err := value.(*Session).Close(); err != nil {
		log.Errorf("Error closing session %s: %v", meetingID, err)
		return err
	}

	log.Infof("Closed session: %s", meetingID)
	return nil
}

// Leave marks the meeting as left, closes the session and returns the redirect target
func (m *Manager) Leave(meetingID string) (string, error) {
	s, ok := m.Get(meetingID)
	if !ok {
		return "", errors.Wrapf(ErrSessionNotFound, "meeting %s", meetingID)
	}
	redirect, err := s.Leave()
	if err != nil {
		return "", err
	}
	if err := m.Close(meetingID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return "", err
	}
	return redirect, nil
}

// End ends the meeting for everyone when the session is allowed to
func (m *Manager) End(meetingID string) error {
	s, ok := m.Get(meetingID)
	if !ok {
		return errors.Wrapf(ErrSessionNotFound, "meeting %s", meetingID)
	}
	if err := s.CanEndMeeting(); err != nil {
		return err
	}
	return m.Close(meetingID)
}

// List returns every session's summary sorted by meeting id
func (m *Manager) List() []Info {
	var result []Info
	m.sessions.Range(func(_, value interface{}) bool {
		result = append(result, value.(*Session).Info())
		return true
	})
	sort.Slice(result, func(i, j int) bool { return result[i].MeetingID < result[j].MeetingID })
	return result
}

// Count returns the number of open sessions
func (m *Manager) Count() int {
	count := 0
	m.sessions.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// Shutdown closes every session
func (m *Manager) Shutdown() error {
	log.Info("Shutting down session manager")

	var errs []error
	m.sessions.Range(func(key, value interface{}) bool {
		id := key.(string)
		log.Infof("Closing session: %s", id)
		if err := value.(*Session).Close(); err != nil {
			log.Errorf("Error closing session %s: %v", id, err)
			errs = append(errs, errors.Wrapf(err, "session %s", id))
		}
		m.sessions.Delete(id)
		return true
	})

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	log.Info("Session manager shutdown complete")
	return nil
}
