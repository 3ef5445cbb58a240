package server

import (
	"encoding/json"
	"strconv"

	"github.com/qieqieplus/meeting-view/pkg/store"
)

// WebSocket message types
const (
	MessageTypeSnapshot     = "snapshot"
	MessageTypeStateChanged = "state_changed"
	MessageTypeVisibility   = "visibility"
	MessageTypeFullScreen   = "toggle_full_screen"
	MessageTypeError        = "error"
	MessageTypeHeartbeat    = "heartbeat"
)

// SnapshotMessage is sent first on every connection
type SnapshotMessage struct {
	Type  string         `json:"type"`
	State store.Snapshot `json:"state"`
}

// StateChangedMessage is sent after every store mutation. State is set only
// when the client asked for full snapshots.
type StateChangedMessage struct {
	Type    string          `json:"type"`
	Field   string          `json:"field"`
	Version uint64          `json:"version"`
	State   *store.Snapshot `json:"state,omitempty"`
}

// VisibilityMessage mirrors participant-visible and participant-invisible
type VisibilityMessage struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participant_id"`
	Visible       bool   `json:"visible"`
}

// FullScreenMessage mirrors toggle-full-screen
type FullScreenMessage struct {
	Type string `json:"type"`
}

// ErrorMessage is sent when an error occurs
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// HeartbeatMessage is sent periodically to keep connection alive
type HeartbeatMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// CreateSnapshotMessage creates the initial state message
func CreateSnapshotMessage(snap store.Snapshot) ([]byte, error) {
	return json.Marshal(SnapshotMessage{Type: MessageTypeSnapshot, State: snap})
}

// CreateStateChangedMessage creates a change notification
func CreateStateChangedMessage(change store.Change, snap *store.Snapshot) ([]byte, error) {
	return json.Marshal(StateChangedMessage{
		Type:    MessageTypeStateChanged,
		Field:   change.Field,
		Version: change.Version,
		State:   snap,
	})
}

// CreateVisibilityMessage creates a visibility notification
func CreateVisibilityMessage(participantID string, visible bool) ([]byte, error) {
	return json.Marshal(VisibilityMessage{
		Type:          MessageTypeVisibility,
		ParticipantID: participantID,
		Visible:       visible,
	})
}

// CreateFullScreenMessage creates a full screen toggle notification
func CreateFullScreenMessage() ([]byte, error) {
	return json.Marshal(FullScreenMessage{Type: MessageTypeFullScreen})
}

// CreateErrorMessage creates an error message
func CreateErrorMessage(errMsg string, code int) ([]byte, error) {
	msg := ErrorMessage{
		Type:  MessageTypeError,
		Error: errMsg,
		Code:  code,
	}

	return json.Marshal(msg)
}

// CreateHeartbeatMessage creates a heartbeat message
func CreateHeartbeatMessage(timestamp int64) ([]byte, error) {
	msg := HeartbeatMessage{
		Type:      MessageTypeHeartbeat,
		Timestamp: timestamp,
	}

	return json.Marshal(msg)
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	MeetingID       string
	Fields          []string // only forward changes to these store fields; empty forwards all
	FullState       bool     // attach a snapshot to every state_changed message
	Visibility      bool     // forward visibility events
	QueueSize       int
	EnableHeartbeat bool
}

// ParseConnectionConfig parses connection configuration from query parameters
func ParseConnectionConfig(params map[string][]string, queueSize int) *ConnectionConfig {
	config := &ConnectionConfig{
		QueueSize:       queueSize,
		Visibility:      true,
		EnableHeartbeat: true,
	}

	if fields, ok := params["field"]; ok {
		for _, f := range fields {
			if f != "" {
				config.Fields = append(config.Fields, f)
			}
		}
	}
	config.FullState = boolParam(params, "full", config.FullState)
	config.Visibility = boolParam(params, "visibility", config.Visibility)
	config.EnableHeartbeat = boolParam(params, "heartbeat", config.EnableHeartbeat)

	if sizes, ok := params["queue_size"]; ok && len(sizes) > 0 {
		if n, err := strconv.Atoi(sizes[0]); err == nil && n > 0 {
			config.QueueSize = n
		}
	}
	return config
}

func boolParam(params map[string][]string, name string, def bool) bool {
	values, ok := params[name]
	if !ok || len(values) == 0 {
		return def
	}
	v, err := strconv.ParseBool(values[0])
	if err != nil {
		return def
	}
	return v
}

// wants reports whether changes to field should be forwarded
func (c *ConnectionConfig) wants(field string) bool {
	if len(c.Fields) == 0 {
		return true
	}
	for _, f := range c.Fields {
		if f == field {
			return true
		}
	}
	return false
}
