package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eslsoft/studycore/internal/entity"
)

func TestSQLiteSessionLifecycle(t *testing.T) {
	db := newSQLiteTestDB(t)
	store := NewSQLiteSessionRepository(db)
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	session := &entity.StudySession{
		ID:          uuid.New(),
		OwnerID:     1,
		StartTime:   start,
		SessionType: "review",
	}
	if _, err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, 1, session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Closed() {
		t.Error("fresh session must be open")
	}
	if _, err := store.Get(ctx, 2, session.ID); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Errorf("wrong owner: err = %v, want ErrSessionNotFound", err)
	}

	end := start.Add(30 * time.Minute)
	duration := 1800
	got.EndTime = &end
	got.DurationSeconds = &duration
	got.CardsStudied = 20
	got.CorrectAnswers = 15
	got.IncorrectAnswers = 5
	if _, err := store.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	closed, _ := store.Get(ctx, 1, session.ID)
	if !closed.Closed() || *closed.DurationSeconds != 1800 || closed.CardsStudied != 20 {
		t.Errorf("close not persisted: %+v", closed)
	}

	orphan := &entity.StudySession{ID: uuid.New(), OwnerID: 1, StartTime: start}
	if _, err := store.Update(ctx, orphan); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Errorf("update unknown: err = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLiteStatsAccumulate(t *testing.T) {
	db := newSQLiteTestDB(t)
	store := NewSQLiteStatsRepository(db)
	ctx := context.Background()

	if err := store.AddStudyHours(ctx, 7, 0.5); err != nil {
		t.Fatalf("AddStudyHours failed: %v", err)
	}
	if err := store.AddStudyHours(ctx, 7, 1.5); err != nil {
		t.Fatalf("second AddStudyHours failed: %v", err)
	}

	var hours float64
	if err := db.Get(&hours, `SELECT study_hours FROM user_stats WHERE owner_id = 7`); err != nil {
		t.Fatalf("read aggregate: %v", err)
	}
	if hours != 2.0 {
		t.Errorf("study hours = %v, want 2.0", hours)
	}
}
