package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/studycore/internal/entity"
	"github.com/eslsoft/studycore/internal/repository"
)

// pgxQuerier is the subset of pgx shared by pools and transactions.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const cardColumns = `id, owner_id, deck, front, back, tags, interval_days, ease_factor,
	review_count, next_review_date, last_reviewed_at, difficulty, active, created_at, updated_at`

// CardRepository is the pgx-backed CardStore.
type CardRepository struct {
	q    pgxQuerier
	pool *pgxpool.Pool // nil when bound to a transaction
}

// NewCardRepository constructs a pool-backed card store.
func NewCardRepository(pool *pgxpool.Pool) repository.CardStore {
	return &CardRepository{q: pool, pool: pool}
}

func (r *CardRepository) Create(ctx context.Context, card *entity.Card) (*entity.Card, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		card.ID, card.OwnerID, card.Deck, card.Front, card.Back, card.Tags,
		card.IntervalDays, card.EaseFactor, card.ReviewCount, card.NextReviewDate,
		card.LastReviewedAt, card.Difficulty, card.Active, card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, entity.ErrDuplicateCard
		}
		return nil, fmt.Errorf("insert card: %w", err)
	}
	out := *card
	return &out, nil
}

func (r *CardRepository) Get(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.Card, error) {
	return r.get(ctx, ownerID, id, "")
}

// GetForUpdate takes a row lock, serializing concurrent reviews of the
// same card; without it two transactions could both read the old state
// and the second commit would overwrite the first.
func (r *CardRepository) GetForUpdate(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.Card, error) {
	return r.get(ctx, ownerID, id, " FOR UPDATE")
}

func (r *CardRepository) get(ctx context.Context, ownerID int64, id uuid.UUID, suffix string) (*entity.Card, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+cardColumns+` FROM cards WHERE id = $1 AND owner_id = $2`+suffix, id, ownerID)
	card, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrCardNotFound
	}
	return card, err
}

func (r *CardRepository) Update(ctx context.Context, card *entity.Card) (*entity.Card, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE cards SET
			deck = $3, front = $4, back = $5, tags = $6,
			interval_days = $7, ease_factor = $8, review_count = $9,
			next_review_date = $10, last_reviewed_at = $11,
			difficulty = $12, active = $13, updated_at = $14
		WHERE id = $1 AND owner_id = $2`,
		card.ID, card.OwnerID, card.Deck, card.Front, card.Back, card.Tags,
		card.IntervalDays, card.EaseFactor, card.ReviewCount, card.NextReviewDate,
		card.LastReviewedAt, card.Difficulty, card.Active, card.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, entity.ErrCardNotFound
	}
	out := *card
	return &out, nil
}

func (r *CardRepository) List(ctx context.Context, query *repository.ListCardQuery) ([]*entity.Card, error) {
	where, args := cardWhere(&query.CardFilter)
	sql := `SELECT ` + cardColumns + ` FROM cards ` + where + cardOrder(query.Ordering)
	if query.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", query.Limit)
	}
	if query.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []*entity.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (r *CardRepository) Count(ctx context.Context, filter *repository.CardFilter) (int64, error) {
	where, args := cardWhere(filter)
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM cards `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

func (r *CardRepository) SoftDelete(ctx context.Context, ownerID int64, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE cards SET active = FALSE, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND active`, id, ownerID)
	if err != nil {
		return fmt.Errorf("soft delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrCardNotFound
	}
	return nil
}

func (r *CardRepository) AppendReview(ctx context.Context, record *entity.ReviewRecord) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO review_records (
			id, owner_id, card_id, quality, review_time_seconds,
			previous_interval, previous_ease, new_interval, new_ease, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.OwnerID, record.CardID, record.Quality, record.ReviewTimeSeconds,
		record.PreviousInterval, record.PreviousEase, record.NewInterval, record.NewEase,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review record: %w", err)
	}
	return nil
}

// Transact runs fn against a tx-bound store. Nested calls reuse the
// surrounding transaction.
func (r *CardRepository) Transact(ctx context.Context, fn func(repository.CardStore) error) error {
	if r.pool == nil {
		return fn(r)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&CardRepository{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanCard(row pgx.Row) (*entity.Card, error) {
	var card entity.Card
	err := row.Scan(
		&card.ID, &card.OwnerID, &card.Deck, &card.Front, &card.Back, &card.Tags,
		&card.IntervalDays, &card.EaseFactor, &card.ReviewCount, &card.NextReviewDate,
		&card.LastReviewedAt, &card.Difficulty, &card.Active, &card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func cardWhere(f *repository.CardFilter) (string, []any) {
	conds := []string{"owner_id = $1"}
	args := []any{f.OwnerID}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Deck != "" {
		add("deck = $%d", f.Deck)
	}
	if len(f.Decks) > 0 {
		add("deck = ANY($%d)", f.Decks)
	}
	if f.ActiveOnly {
		conds = append(conds, "active")
	}
	if f.DueBefore != nil {
		add("next_review_date <= $%d", *f.DueBefore)
	}
	if f.OnlyNew {
		conds = append(conds, "review_count = 0")
	}
	if f.OnlyReviewed {
		conds = append(conds, "review_count > 0")
	}
	if f.MinReviews != nil {
		add("review_count >= $%d", *f.MinReviews)
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// cardOrderColumns whitelists sortable columns; anything else falls
// back to the default ordering.
var cardOrderColumns = map[string]bool{
	"next_review_date": true,
	"created_at":       true,
	"updated_at":       true,
	"ease_factor":      true,
	"interval_days":    true,
	"review_count":     true,
	"deck":             true,
	"id":               true,
}

func cardOrder(o repository.Ordering) string {
	primary, secondary := o.PrimaryKey, o.SecondaryKey
	if !cardOrderColumns[primary] {
		primary, secondary = "next_review_date", "id"
	} else if !cardOrderColumns[secondary] || secondary == primary {
		secondary = "id"
	}
	dir := func(desc bool) string {
		if desc {
			return " DESC"
		}
		return ""
	}
	return fmt.Sprintf(" ORDER BY %s%s, %s%s", primary, dir(o.PrimaryDesc), secondary, dir(o.SecondaryDesc))
}
