package config

import "errors"

var (
	ErrInvalidRedirect   = errors.New("redirect_on_leave must be an absolute http(s) URL")
	ErrMissingMeetingID  = errors.New("meeting_id is required")
	ErrInvalidGridSize   = errors.New("layout grid_size must not be negative")
	ErrInvalidDuration   = errors.New("invalid duration")
	ErrInvalidConfigFile = errors.New("invalid config file")
)
