package models

import (
	"time"

	"faraid/internal/inheritance/fiqh"
)

// Record is a saved calculation in an owner's history.
type Record struct {
	ID        string      `json:"id"`
	OwnerID   string      `json:"owner_id"`
	Madhab    fiqh.Madhab `json:"madhab"`
	Result    *Result     `json:"result"`
	ElapsedMS float64     `json:"elapsed_ms"`
	CreatedAt time.Time   `json:"created_at"`
}

// Clone returns a copy whose Result shares no memory with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Result = r.Result.Clone()
	return &out
}
