// Package store persists calculation history per owner.
//
// Every backend returns records newest first and reports a missing record, or
// a record belonging to another owner, as sentinel.ErrNotFound.
package store

import (
	"fmt"

	"faraid/internal/inheritance/models"
	"faraid/pkg/platform/sentinel"
)

// ErrNotFound is returned when no record matches id and owner.
var ErrNotFound = sentinel.ErrNotFound

// ErrConflict is returned when a record id is already taken.
var ErrConflict = sentinel.ErrConflict

func validateRecord(rec *models.Record) error {
	switch {
	case rec == nil:
		return fmt.Errorf("record is required")
	case rec.ID == "":
		return fmt.Errorf("record id is required")
	case rec.OwnerID == "":
		return fmt.Errorf("record owner is required")
	case rec.Result == nil:
		return fmt.Errorf("record result is required")
	}
	return nil
}
