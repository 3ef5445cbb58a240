package store

import "errors"

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrDraftNotFound    = errors.New("draft poll not found")
	ErrInvalidPoll      = errors.New("poll needs a question and at least two options")
	ErrInvalidOption    = errors.New("option not found in poll")
	ErrPollEnded        = errors.New("poll has ended")
	ErrAlreadySubmitted = errors.New("participant already answered this poll")
	ErrPollsDisabled    = errors.New("polls are disabled for this session")
	ErrPollNotPermitted = errors.New("creating polls is not permitted in this session")
	ErrInvalidMode      = errors.New("unknown sidebar mode")
)
