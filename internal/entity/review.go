package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReviewRecord is an immutable, append-only log entry written once per
// successful review. It snapshots the scheduling state on both sides of
// the update.
type ReviewRecord struct {
	ID      uuid.UUID `json:"id"`
	OwnerID int64     `json:"owner_id"`
	CardID  uuid.UUID `json:"card_id"`

	Quality           int `json:"quality"`
	ReviewTimeSeconds int `json:"review_time_seconds"`

	PreviousInterval int     `json:"previous_interval"`
	PreviousEase     float64 `json:"previous_ease_factor"`
	NewInterval      int     `json:"new_interval"`
	NewEase          float64 `json:"new_ease_factor"`

	CreatedAt time.Time `json:"created_at"`
}
