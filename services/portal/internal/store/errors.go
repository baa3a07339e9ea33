package store

import "errors"

// Sentinel errors for the comment and like stores. Callers match with
// errors.Is; wrapped variants carry the offending detail.
var (
	// ErrInvalidInput covers malformed input: empty or oversized text,
	// a reply targeting a parent on a different article.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the referenced comment or target does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor is neither the author nor an admin.
	ErrForbidden = errors.New("operation not allowed")

	// ErrCascadeFailed means a multi-step delete could not complete
	// atomically. The store state is unchanged; the caller may retry.
	ErrCascadeFailed = errors.New("cascade delete failed")
)
