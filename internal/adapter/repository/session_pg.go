package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/studycore/internal/entity"
	"github.com/eslsoft/studycore/internal/repository"
)

const sessionColumns = `id, owner_id, start_time, end_time, duration_seconds,
	cards_studied, correct_answers, incorrect_answers, session_type`

// SessionRepository is the pgx-backed SessionStore.
type SessionRepository struct {
	q pgxQuerier
}

func NewSessionRepository(pool *pgxpool.Pool) repository.SessionStore {
	return &SessionRepository{q: pool}
}

func (r *SessionRepository) Create(ctx context.Context, session *entity.StudySession) (*entity.StudySession, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO study_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		session.ID, session.OwnerID, session.StartTime, session.EndTime, session.DurationSeconds,
		session.CardsStudied, session.CorrectAnswers, session.IncorrectAnswers, session.SessionType,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	out := *session
	return &out, nil
}

func (r *SessionRepository) Get(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.StudySession, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM study_sessions WHERE id = $1 AND owner_id = $2`, id, ownerID)

	var s entity.StudySession
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.StartTime, &s.EndTime, &s.DurationSeconds,
		&s.CardsStudied, &s.CorrectAnswers, &s.IncorrectAnswers, &s.SessionType,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) Update(ctx context.Context, session *entity.StudySession) (*entity.StudySession, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE study_sessions SET
			end_time = $3, duration_seconds = $4,
			cards_studied = $5, correct_answers = $6, incorrect_answers = $7
		WHERE id = $1 AND owner_id = $2`,
		session.ID, session.OwnerID, session.EndTime, session.DurationSeconds,
		session.CardsStudied, session.CorrectAnswers, session.IncorrectAnswers,
	)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, entity.ErrSessionNotFound
	}
	out := *session
	return &out, nil
}

// StatsRepository owns the per-user cumulative aggregate row.
type StatsRepository struct {
	q pgxQuerier
}

func NewStatsRepository(pool *pgxpool.Pool) repository.StatsStore {
	return &StatsRepository{q: pool}
}

func (r *StatsRepository) AddStudyHours(ctx context.Context, ownerID int64, hours float64) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_stats (owner_id, study_hours, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (owner_id) DO UPDATE SET
			study_hours = user_stats.study_hours + EXCLUDED.study_hours,
			updated_at = NOW()`,
		ownerID, hours,
	)
	if err != nil {
		return fmt.Errorf("add study hours: %w", err)
	}
	return nil
}
