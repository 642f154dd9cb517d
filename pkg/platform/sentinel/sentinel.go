package sentinel

import "errors"

// Sentinel errors for infrastructure facts. History stores and the event
// publisher return these (optionally wrapped) and the service translates them
// into coded domain errors:
//   - ErrNotFound: no record with that id for that owner
//   - ErrConflict: a record with that id already exists
//   - ErrUnavailable: the backing store or broker cannot be reached
//
// Input validation failures use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
