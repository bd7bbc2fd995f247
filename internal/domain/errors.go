package domain

import "errors"

var (
	// ErrMessageNotFound is returned by Store.Get for unknown or expired ids.
	ErrMessageNotFound = errors.New("message not found")

	// ErrStoreUnavailable wraps transient store failures. Feed sessions retry
	// on it instead of terminating.
	ErrStoreUnavailable = errors.New("store unavailable")
)
