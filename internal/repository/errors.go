// Package repository implements the SQL persistence layer: the engine's
// transactional store plus the host-facing CRUD repositories for calendar
// and rate overrides. Sentinel errors declared here let handlers
// distinguish failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, e.g. a host verifying a payment proof for a
// reservation at another host's property. Handlers translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with existing state, such
// as a second review for the same reservation. Handlers translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
