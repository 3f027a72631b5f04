package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/eslsoft/studycore/internal/entity"
)

// SessionStore persists study sessions.
type SessionStore interface {
	Create(ctx context.Context, session *entity.StudySession) (*entity.StudySession, error)
	Get(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.StudySession, error)
	Update(ctx context.Context, session *entity.StudySession) (*entity.StudySession, error)
}

// StatsStore owns per-user cumulative aggregates. It lives outside the
// scheduler; the session-close consumer is its only writer here.
type StatsStore interface {
	AddStudyHours(ctx context.Context, ownerID int64, hours float64) error
}
