package reconnect

import "errors"

var (
	// ErrNilChannel is returned by New when no channel is provided.
	ErrNilChannel = errors.New("reconnect: channel is nil")

	// ErrAlreadyRunning is returned by Start when the supervisor is running.
	ErrAlreadyRunning = errors.New("reconnect: supervisor already running")
)
