package adapter

import "errors"

var (
	// ErrNotFound indicates the requested remote record does not exist (404).
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict indicates the remote record changed since it was
	// last read (412 Precondition Failed on a conditioned write).
	ErrVersionConflict = errors.New("version conflict")
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("unauthorized")
)
