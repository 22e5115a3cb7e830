package analysis

import "errors"

var (
	// ErrUnreadableDocument means the input could not be decoded into
	// text at all. Fatal for the run.
	ErrUnreadableDocument = errors.New("document could not be read")

	// ErrClassifierUnavailable means the classification backend failed
	// systemically, not for a single segment. Fatal for the run.
	ErrClassifierUnavailable = errors.New("classification backend unavailable")
)
