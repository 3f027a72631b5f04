package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eslsoft/studycore/internal/entity"
)

// CardFilter narrows card queries. Zero values mean "no constraint".
type CardFilter struct {
	OwnerID      int64
	Deck         string
	Decks        []string
	ActiveOnly   bool
	DueBefore    *time.Time // next_review_date <= DueBefore
	OnlyNew      bool       // review_count == 0
	OnlyReviewed bool       // review_count > 0
	MinReviews   *int       // review_count >= MinReviews
}

// ListCardQuery combines a filter with ordering and limits.
type ListCardQuery struct {
	CardFilter
	Ordering
	Limit  int32
	Offset int32
}

// CardStore defines persistence for cards and their append-only review
// log. Update and AppendReview inside one Transact callback is the
// required usage for a review commit: both writes are observed together
// or not at all.
type CardStore interface {
	Create(ctx context.Context, card *entity.Card) (*entity.Card, error)
	Get(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.Card, error)
	// GetForUpdate reads the card and locks its row until the enclosing
	// transaction ends, so a concurrent read-modify-write on the same
	// card serializes instead of overwriting. Outside a transaction it
	// behaves like Get.
	GetForUpdate(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.Card, error)
	Update(ctx context.Context, card *entity.Card) (*entity.Card, error)
	List(ctx context.Context, query *ListCardQuery) ([]*entity.Card, error)
	Count(ctx context.Context, filter *CardFilter) (int64, error)
	SoftDelete(ctx context.Context, ownerID int64, id uuid.UUID) error

	AppendReview(ctx context.Context, record *entity.ReviewRecord) error

	// Transact runs fn against a store bound to a single transaction.
	// Returning an error rolls everything back. Implementations must
	// serialize concurrent transactions touching the same card.
	Transact(ctx context.Context, fn func(CardStore) error) error
}
