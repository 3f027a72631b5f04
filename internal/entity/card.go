package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scheduling defaults for freshly created cards.
const (
	DefaultDeck     = "default"
	DefaultEase     = 2.5
	MinEase         = 1.3
	DefaultInterval = 1
)

// Card is a user-owned flashcard with its spaced-repetition state.
type Card struct {
	ID      uuid.UUID `json:"id"`
	OwnerID int64     `json:"owner_id"`
	Deck    string    `json:"deck"`

	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags,omitempty"`

	IntervalDays   int        `json:"interval_days"`
	EaseFactor     float64    `json:"ease_factor"`
	ReviewCount    int        `json:"review_count"`
	NextReviewDate time.Time  `json:"next_review_date"` // date precision, owner-local
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	Difficulty     int        `json:"difficulty"` // 1-5 authoring hint, not read by the scheduler
	Active         bool       `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize ensures defaults & constraints before persistence.
func (c *Card) Normalize(now time.Time) {
	c.Front = strings.TrimSpace(c.Front)
	c.Back = strings.TrimSpace(c.Back)
	if c.Deck == "" {
		c.Deck = DefaultDeck
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.IntervalDays < DefaultInterval {
		c.IntervalDays = DefaultInterval
	}
	if c.EaseFactor < MinEase {
		c.EaseFactor = DefaultEase
	}
	if c.Difficulty < 1 {
		c.Difficulty = 1
	} else if c.Difficulty > 5 {
		c.Difficulty = 5
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
		c.Active = true
	}
	if c.NextReviewDate.IsZero() {
		c.NextReviewDate = DateOf(now)
	}
	c.UpdatedAt = now
}

// IsNew reports whether the card has never been reviewed.
func (c *Card) IsNew() bool { return c.ReviewCount == 0 }

// IsDue reports whether the card is scheduled on or before the given day.
func (c *Card) IsDue(today time.Time) bool {
	return c.Active && !c.NextReviewDate.After(DateOf(today))
}

// DateOf truncates a timestamp to its calendar date, keeping the location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DeckStatistics aggregates per-deck scheduling counters.
type DeckStatistics struct {
	Total       int64   `json:"total"`
	Due         int64   `json:"due"`
	New         int64   `json:"new"`
	Learning    int64   `json:"learning"`
	Mastered    int64   `json:"mastered"` // coarse threshold, not semantic mastery
	MasteryRate float64 `json:"mastery_rate"`
}
