package client

import "errors"

// Failure taxonomy for the engine's outward-facing operations. All of
// these are recoverable by retrying the triggering user action; none is
// fatal to the session.
var (
	// ErrInvalidRequest: nothing selected and no free text. Raised
	// before any network activity.
	ErrInvalidRequest = errors.New("nothing selected or typed")

	// ErrUploadFailed: transport or server-side upload failure. The
	// artifact store is left untouched so the user can retry.
	ErrUploadFailed = errors.New("upload failed")

	// ErrChannelUnavailable: a question was submitted while the query
	// channel is not connected.
	ErrChannelUnavailable = errors.New("query channel unavailable")
)
