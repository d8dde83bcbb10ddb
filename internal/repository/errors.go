// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user holds some
// access to a resource but not enough for the attempted operation,
// while ErrInvalid signals malformed input such as inviting the list
// owner to their own list.
package repository

import "errors"

// ErrForbidden is returned when the caller has view access to a
// resource but lacks the role required for an operation (for example
// a viewer trying to remove another member). Handlers should
// translate this into an HTTP 403 response. Paths that must not leak
// existence return a not-found sentinel instead.
var ErrForbidden = errors.New("forbidden")

// ErrInvalid is returned when an operation is well-formed HTTP but
// semantically rejected: inviting yourself, inviting the owner, or
// removing the owner from a list. Handlers should translate this
// into an HTTP 400 response.
var ErrInvalid = errors.New("invalid argument")

// ErrConflict is returned when a unique constraint rejects an
// insert, such as registering an email that already exists. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
