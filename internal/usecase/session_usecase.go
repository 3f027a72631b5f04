package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studycore/internal/entity"
	"github.com/eslsoft/studycore/internal/repository"
)

// SessionEventSink receives session lifecycle events. Delivery is
// at-most-once: the close is already persisted when the sink runs, so a
// sink failure is logged, not returned, and the event is not retried.
type SessionEventSink interface {
	SessionClosed(ctx context.Context, event entity.SessionClosed) error
}

// SessionUsecase tracks study sessions from start to close.
type SessionUsecase interface {
	Start(ctx context.Context, ownerID int64, sessionType string) (*entity.StudySession, error)
	End(ctx context.Context, ownerID int64, id uuid.UUID, cardsStudied, correctAnswers int) (*entity.StudySession, error)
	Get(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.StudySession, error)
}

func NewSessionUsecase(sessions repository.SessionStore, events SessionEventSink, logger *logrus.Logger) SessionUsecase {
	if events == nil {
		events = noopSink{}
	}
	return &sessionUsecase{
		sessions: sessions,
		events:   events,
		logger:   logger,
		clock:    time.Now,
	}
}

type sessionUsecase struct {
	sessions repository.SessionStore
	events   SessionEventSink
	logger   *logrus.Logger
	clock    func() time.Time
}

type noopSink struct{}

func (noopSink) SessionClosed(context.Context, entity.SessionClosed) error { return nil }

func (u *sessionUsecase) Start(ctx context.Context, ownerID int64, sessionType string) (*entity.StudySession, error) {
	session := &entity.StudySession{
		OwnerID:     ownerID,
		SessionType: sessionType,
	}
	session.Normalize(u.clock())
	return u.sessions.Create(ctx, session)
}

func (u *sessionUsecase) Get(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.StudySession, error) {
	return u.sessions.Get(ctx, ownerID, id)
}

// End closes a session, fixing its aggregates and duration. Closing an
// already-closed session fails rather than overwriting its totals.
func (u *sessionUsecase) End(ctx context.Context, ownerID int64, id uuid.UUID, cardsStudied, correctAnswers int) (*entity.StudySession, error) {
	if cardsStudied < 0 || correctAnswers < 0 || correctAnswers > cardsStudied {
		return nil, entity.ErrInvalidAggregate
	}

	session, err := u.sessions.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if session.Closed() {
		return nil, entity.ErrSessionClosed
	}

	now := u.clock()
	duration := int(now.Sub(session.StartTime).Seconds())
	if duration < 0 {
		duration = 0
	}
	endTime := now
	session.EndTime = &endTime
	session.DurationSeconds = &duration
	session.CardsStudied = cardsStudied
	session.CorrectAnswers = correctAnswers
	session.IncorrectAnswers = cardsStudied - correctAnswers

	session, err = u.sessions.Update(ctx, session)
	if err != nil {
		return nil, err
	}

	event := entity.SessionClosed{
		SessionID:       session.ID,
		OwnerID:         session.OwnerID,
		DurationSeconds: duration,
		CardsStudied:    cardsStudied,
		CorrectAnswers:  correctAnswers,
		ClosedAt:        now,
	}
	// The close is committed; failing End here would strand the session
	// in a state where a retry hits ErrSessionClosed with the event
	// still unsent. At-most-once delivery, surfaced in the log.
	if err := u.events.SessionClosed(ctx, event); err != nil {
		u.logger.WithError(err).WithField("session", session.ID).
			Warn("session close event dropped")
	}

	u.logger.WithFields(logrus.Fields{
		"session":  session.ID,
		"duration": duration,
		"studied":  cardsStudied,
	}).Debug("session closed")
	return session, nil
}

// StudyHoursConsumer folds closed sessions into the owner's lifetime
// study-hours counter.
type StudyHoursConsumer struct {
	stats repository.StatsStore
}

func NewStudyHoursConsumer(stats repository.StatsStore) *StudyHoursConsumer {
	return &StudyHoursConsumer{stats: stats}
}

func (c *StudyHoursConsumer) SessionClosed(ctx context.Context, event entity.SessionClosed) error {
	return c.stats.AddStudyHours(ctx, event.OwnerID, event.StudyHours())
}
