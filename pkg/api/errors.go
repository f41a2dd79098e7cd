package api

import "errors"

var (
	// ErrInvalidBaseURL is returned by New when the base URL cannot be parsed
	// or misses a scheme/host.
	ErrInvalidBaseURL = errors.New("api: invalid base url")

	// ErrRequestFailed wraps transport failures and non-success responses
	// other than session rejection. Callers treat it as transient.
	ErrRequestFailed = errors.New("api: request failed")

	// ErrEmptyNotificationID is returned by MarkRead for a blank identifier.
	ErrEmptyNotificationID = errors.New("api: empty notification id")
)
