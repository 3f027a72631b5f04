package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studycore/internal/entity"
	"github.com/eslsoft/studycore/internal/repository"
	"github.com/eslsoft/studycore/internal/srs"
)

// SchedulerUsecase drives per-card spaced-repetition state, review
// queues and deck statistics.
type SchedulerUsecase interface {
	CreateCard(ctx context.Context, card *entity.Card) (*entity.Card, error)
	GetCard(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.Card, error)
	DeleteCard(ctx context.Context, ownerID int64, id uuid.UUID) error
	ListCards(ctx context.Context, query *repository.ListCardQuery) ([]*entity.Card, error)

	Review(ctx context.Context, ownerID int64, cardID uuid.UUID, quality srs.Quality, reviewTimeSeconds int) (*entity.ReviewRecord, error)
	DueCards(ctx context.Context, ownerID int64, deck string, limit int32) ([]*entity.Card, error)
	NewCards(ctx context.Context, ownerID int64, deck string, limit int32) ([]*entity.Card, error)
	ReviewQueue(ctx context.Context, ownerID int64, deck string, maxNew, maxDue int32) ([]*entity.Card, int, error)
	Statistics(ctx context.Context, ownerID int64, deck string) (*entity.DeckStatistics, error)
}

const masteredThreshold = 5 // review count; a statistics heuristic only

// NewSchedulerUsecase wires the card store with default behaviour. loc
// is the owner-nominal timezone used to resolve "today"; nil means UTC.
func NewSchedulerUsecase(cards repository.CardStore, logger *logrus.Logger, loc *time.Location) SchedulerUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &schedulerUsecase{
		cards:  cards,
		logger: logger,
		clock:  time.Now,
		loc:    loc,
	}
}

type schedulerUsecase struct {
	cards  repository.CardStore
	logger *logrus.Logger
	clock  func() time.Time
	loc    *time.Location
}

func (u *schedulerUsecase) today() time.Time {
	return entity.DateOf(u.clock().In(u.loc))
}

func (u *schedulerUsecase) CreateCard(ctx context.Context, card *entity.Card) (*entity.Card, error) {
	if card == nil || strings.TrimSpace(card.Front) == "" {
		return nil, entity.ErrInvalidCardText
	}
	copy := *card
	copy.ID = uuid.Nil
	copy.ReviewCount = 0
	copy.IntervalDays = entity.DefaultInterval
	copy.EaseFactor = entity.DefaultEase
	copy.LastReviewedAt = nil
	copy.NextReviewDate = u.today()
	copy.Normalize(u.clock())
	return u.cards.Create(ctx, &copy)
}

func (u *schedulerUsecase) GetCard(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.Card, error) {
	return u.cards.Get(ctx, ownerID, id)
}

// DeleteCard soft-deletes; the scheduler never hard-deletes cards.
func (u *schedulerUsecase) DeleteCard(ctx context.Context, ownerID int64, id uuid.UUID) error {
	return u.cards.SoftDelete(ctx, ownerID, id)
}

func (u *schedulerUsecase) ListCards(ctx context.Context, query *repository.ListCardQuery) ([]*entity.Card, error) {
	return u.cards.List(ctx, query)
}

// Review grades one recall attempt. The card update and the review
// record land in a single transaction: both or neither. The card row is
// read with a lock so concurrent reviews of the same card serialize
// rather than computing from the same stale state.
func (u *schedulerUsecase) Review(ctx context.Context, ownerID int64, cardID uuid.UUID, quality srs.Quality, reviewTimeSeconds int) (*entity.ReviewRecord, error) {
	if !quality.Valid() {
		return nil, entity.ErrInvalidQuality
	}
	if reviewTimeSeconds < 0 {
		reviewTimeSeconds = 0
	}

	now := u.clock()
	today := entity.DateOf(now.In(u.loc))

	var record *entity.ReviewRecord
	err := u.cards.Transact(ctx, func(tx repository.CardStore) error {
		card, err := tx.GetForUpdate(ctx, ownerID, cardID)
		if err != nil {
			return err
		}
		if !card.Active {
			return entity.ErrCardNotFound
		}

		prev := srs.State{
			IntervalDays: card.IntervalDays,
			Ease:         card.EaseFactor,
			ReviewCount:  card.ReviewCount,
		}
		res, err := srs.Update(prev, quality, today)
		if err != nil {
			return err
		}

		card.IntervalDays = res.IntervalDays
		card.EaseFactor = res.Ease
		card.NextReviewDate = res.NextReview
		card.ReviewCount++
		reviewedAt := now
		card.LastReviewedAt = &reviewedAt
		card.UpdatedAt = now
		if _, err := tx.Update(ctx, card); err != nil {
			return err
		}

		record = &entity.ReviewRecord{
			ID:                uuid.New(),
			OwnerID:           ownerID,
			CardID:            card.ID,
			Quality:           int(quality),
			ReviewTimeSeconds: reviewTimeSeconds,
			PreviousInterval:  prev.IntervalDays,
			PreviousEase:      prev.Ease,
			NewInterval:       res.IntervalDays,
			NewEase:           res.Ease,
			CreatedAt:         now,
		}
		return tx.AppendReview(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	u.logger.WithFields(logrus.Fields{
		"card":     cardID,
		"quality":  int(quality),
		"interval": record.NewInterval,
	}).Debug("card reviewed")
	return record, nil
}

// DueCards lists active cards scheduled on or before today, earliest
// first; ties keep insertion order. The limit is a hard cap: a
// non-positive limit yields no cards rather than all of them.
func (u *schedulerUsecase) DueCards(ctx context.Context, ownerID int64, deck string, limit int32) ([]*entity.Card, error) {
	if limit <= 0 {
		return nil, nil
	}
	today := u.today()
	return u.cards.List(ctx, &repository.ListCardQuery{
		CardFilter: repository.CardFilter{
			OwnerID:    ownerID,
			Deck:       deck,
			ActiveOnly: true,
			DueBefore:  &today,
		},
		Ordering: dueOrdering,
		Limit:    limit,
	})
}

// NewCards lists never-reviewed cards in creation order, capped the
// same way as DueCards.
func (u *schedulerUsecase) NewCards(ctx context.Context, ownerID int64, deck string, limit int32) ([]*entity.Card, error) {
	if limit <= 0 {
		return nil, nil
	}
	return u.cards.List(ctx, &repository.ListCardQuery{
		CardFilter: repository.CardFilter{
			OwnerID:    ownerID,
			Deck:       deck,
			ActiveOnly: true,
			OnlyNew:    true,
		},
		Ordering: creationOrdering,
		Limit:    limit,
	})
}

var (
	dueOrdering      = repository.Ordering{PrimaryKey: "next_review_date", SecondaryKey: "created_at"}
	creationOrdering = repository.Ordering{PrimaryKey: "created_at", SecondaryKey: "id"}
)

// ReviewQueue composes up to maxDue previously-reviewed due cards
// followed by up to maxNew new cards, and reports how many of the
// returned cards were due. Budgets are hard caps; a non-positive
// budget contributes nothing. New cards are due on creation day, so
// the due portion is restricted to cards with at least one review to
// keep the two pools disjoint.
func (u *schedulerUsecase) ReviewQueue(ctx context.Context, ownerID int64, deck string, maxNew, maxDue int32) ([]*entity.Card, int, error) {
	today := u.today()
	var due []*entity.Card
	if maxDue > 0 {
		var err error
		due, err = u.cards.List(ctx, &repository.ListCardQuery{
			CardFilter: repository.CardFilter{
				OwnerID:      ownerID,
				Deck:         deck,
				ActiveOnly:   true,
				DueBefore:    &today,
				OnlyReviewed: true,
			},
			Ordering: dueOrdering,
			Limit:    maxDue,
		})
		if err != nil {
			return nil, 0, err
		}
	}

	queue := due
	if maxNew > 0 && int32(len(queue)) < maxNew+maxDue {
		fresh, err := u.NewCards(ctx, ownerID, deck, maxNew)
		if err != nil {
			return nil, 0, err
		}
		queue = append(queue, fresh...)
	}
	return queue, len(due), nil
}

// Statistics aggregates deck counters. "Mastered" is a coarse
// review-count threshold; callers must not read semantic mastery into
// it, and queue composition ignores it.
func (u *schedulerUsecase) Statistics(ctx context.Context, ownerID int64, deck string) (*entity.DeckStatistics, error) {
	today := u.today()
	base := repository.CardFilter{OwnerID: ownerID, Deck: deck, ActiveOnly: true}

	stats := &entity.DeckStatistics{}
	counts := []struct {
		dst    *int64
		filter repository.CardFilter
	}{
		{&stats.Total, base},
		{&stats.Due, withDue(base, &today)},
		{&stats.New, withNew(base)},
		{&stats.Learning, withReviewed(base)},
		{&stats.Mastered, withMinReviews(base, masteredThreshold)},
	}
	for _, c := range counts {
		n, err := u.cards.Count(ctx, &c.filter)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	if stats.Total > 0 {
		stats.MasteryRate = float64(stats.Mastered) / float64(stats.Total) * 100
	}
	return stats, nil
}

func withDue(f repository.CardFilter, today *time.Time) repository.CardFilter {
	f.DueBefore = today
	return f
}

func withNew(f repository.CardFilter) repository.CardFilter {
	f.OnlyNew = true
	return f
}

func withReviewed(f repository.CardFilter) repository.CardFilter {
	f.OnlyReviewed = true
	return f
}

func withMinReviews(f repository.CardFilter, n int) repository.CardFilter {
	f.MinReviews = &n
	return f
}
