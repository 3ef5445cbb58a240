package session

import "errors"

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is closed")
	ErrTileNotFound    = errors.New("no tile for participant")
	ErrPinNotAllowed   = errors.New("pinning is not permitted in this session")
	ErrInvalidControl  = errors.New("control id is required")
	ErrNotPermitted    = errors.New("action is not permitted in this session")
	ErrFeatureDisabled = errors.New("feature is disabled for this session")
	ErrUnsupported     = errors.New("media SDK does not support this action")
	ErrInvalidMode     = errors.New("meeting mode must be CONFERENCE or VIEWER")
	ErrInvalidStream   = errors.New("unknown stream kind")
	ErrNoWhiteboard    = errors.New("whiteboard is not started")
)
