package notisync

import "errors"

var (
	// ErrNilBackend is returned by New when no API backend is provided.
	ErrNilBackend = errors.New("notisync: backend is nil")

	// ErrNilChannel is returned by New when no transport channel is provided.
	ErrNilChannel = errors.New("notisync: channel is nil")

	// ErrInvalidIdentity is returned by Start for an absent or non-positive
	// user identifier. Fatal: the caller must fix the input, not retry.
	ErrInvalidIdentity = errors.New("notisync: invalid user identity")

	// ErrAlreadyStarted is returned by Start when the client is running.
	ErrAlreadyStarted = errors.New("notisync: client already started")

	// ErrNotStarted is returned by operations that need a running client.
	ErrNotStarted = errors.New("notisync: client not started")

	// ErrMutationFailed wraps a failed mark-read or resync request. The
	// unread counter is left untouched; a later resync self-heals any
	// resulting overcount.
	ErrMutationFailed = errors.New("notisync: mutation failed")
)
