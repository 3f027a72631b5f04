package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eslsoft/studycore/internal/entity"
	"github.com/eslsoft/studycore/internal/repository"
)

// SQLiteSessionRepository is the sqlx-backed SessionStore.
type SQLiteSessionRepository struct {
	db *sqlx.DB
}

func NewSQLiteSessionRepository(db *sqlx.DB) repository.SessionStore {
	return &SQLiteSessionRepository{db: db}
}

type sessionRow struct {
	ID               string     `db:"id"`
	OwnerID          int64      `db:"owner_id"`
	StartTime        time.Time  `db:"start_time"`
	EndTime          *time.Time `db:"end_time"`
	DurationSeconds  *int       `db:"duration_seconds"`
	CardsStudied     int        `db:"cards_studied"`
	CorrectAnswers   int        `db:"correct_answers"`
	IncorrectAnswers int        `db:"incorrect_answers"`
	SessionType      string     `db:"session_type"`
}

func (r *sessionRow) toEntity() (*entity.StudySession, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	return &entity.StudySession{
		ID:               id,
		OwnerID:          r.OwnerID,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		DurationSeconds:  r.DurationSeconds,
		CardsStudied:     r.CardsStudied,
		CorrectAnswers:   r.CorrectAnswers,
		IncorrectAnswers: r.IncorrectAnswers,
		SessionType:      r.SessionType,
	}, nil
}

func (r *SQLiteSessionRepository) Create(ctx context.Context, session *entity.StudySession) (*entity.StudySession, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO study_sessions (
			id, owner_id, start_time, end_time, duration_seconds,
			cards_studied, correct_answers, incorrect_answers, session_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID.String(), session.OwnerID, session.StartTime, session.EndTime,
		session.DurationSeconds, session.CardsStudied, session.CorrectAnswers,
		session.IncorrectAnswers, session.SessionType,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	out := *session
	return &out, nil
}

func (r *SQLiteSessionRepository) Get(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.StudySession, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row,
		`SELECT * FROM study_sessions WHERE id = ? AND owner_id = ?`, id.String(), ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return row.toEntity()
}

func (r *SQLiteSessionRepository) Update(ctx context.Context, session *entity.StudySession) (*entity.StudySession, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE study_sessions SET
			end_time = ?, duration_seconds = ?,
			cards_studied = ?, correct_answers = ?, incorrect_answers = ?
		WHERE id = ? AND owner_id = ?`,
		session.EndTime, session.DurationSeconds, session.CardsStudied,
		session.CorrectAnswers, session.IncorrectAnswers,
		session.ID.String(), session.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, entity.ErrSessionNotFound
	}
	out := *session
	return &out, nil
}

// SQLiteStatsRepository owns the per-user cumulative aggregate row.
type SQLiteStatsRepository struct {
	db *sqlx.DB
}

func NewSQLiteStatsRepository(db *sqlx.DB) repository.StatsStore {
	return &SQLiteStatsRepository{db: db}
}

func (r *SQLiteStatsRepository) AddStudyHours(ctx context.Context, ownerID int64, hours float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_stats (owner_id, study_hours, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET
			study_hours = study_hours + excluded.study_hours,
			updated_at = excluded.updated_at`,
		ownerID, hours, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add study hours: %w", err)
	}
	return nil
}
