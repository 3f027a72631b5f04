package entity

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSessionType labels sessions started without an explicit type.
const DefaultSessionType = "review"

// StudySession tracks one study run. Aggregates may change while the
// session is open; closing it locks further mutation.
type StudySession struct {
	ID      uuid.UUID `json:"id"`
	OwnerID int64     `json:"owner_id"`

	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`

	CardsStudied     int    `json:"cards_studied"`
	CorrectAnswers   int    `json:"correct_answers"`
	IncorrectAnswers int    `json:"incorrect_answers"`
	SessionType      string `json:"session_type"`
}

// Normalize ensures defaults before persistence.
func (s *StudySession) Normalize(now time.Time) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.SessionType == "" {
		s.SessionType = DefaultSessionType
	}
	if s.StartTime.IsZero() {
		s.StartTime = now
	}
}

// Closed reports whether the session has been ended.
func (s *StudySession) Closed() bool { return s.EndTime != nil }

// SessionClosed is emitted exactly once when a session ends. Consumers
// that own user aggregates react to it; the scheduler itself never
// touches profile counters.
type SessionClosed struct {
	SessionID       uuid.UUID `json:"session_id"`
	OwnerID         int64     `json:"owner_id"`
	DurationSeconds int       `json:"duration_seconds"`
	CardsStudied    int       `json:"cards_studied"`
	CorrectAnswers  int       `json:"correct_answers"`
	ClosedAt        time.Time `json:"closed_at"`
}

// StudyHours converts the session duration to fractional hours.
func (e SessionClosed) StudyHours() float64 {
	return float64(e.DurationSeconds) / 3600
}
