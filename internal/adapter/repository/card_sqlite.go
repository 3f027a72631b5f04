package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/eslsoft/studycore/internal/entity"
	"github.com/eslsoft/studycore/internal/repository"
)

// SQLiteCardRepository is the sqlx-backed CardStore for single-node
// sqlite deployments. Tags are stored as a JSON array column.
type SQLiteCardRepository struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

func NewSQLiteCardRepository(db *sqlx.DB) repository.CardStore {
	return &SQLiteCardRepository{db: db, q: db}
}

type cardRow struct {
	ID             string     `db:"id"`
	OwnerID        int64      `db:"owner_id"`
	Deck           string     `db:"deck"`
	Front          string     `db:"front"`
	Back           string     `db:"back"`
	Tags           string     `db:"tags"`
	IntervalDays   int        `db:"interval_days"`
	EaseFactor     float64    `db:"ease_factor"`
	ReviewCount    int        `db:"review_count"`
	NextReviewDate time.Time  `db:"next_review_date"`
	LastReviewedAt *time.Time `db:"last_reviewed_at"`
	Difficulty     int        `db:"difficulty"`
	Active         bool       `db:"active"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func toCardRow(card *entity.Card) (*cardRow, error) {
	tags, err := json.Marshal(card.Tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	return &cardRow{
		ID:             card.ID.String(),
		OwnerID:        card.OwnerID,
		Deck:           card.Deck,
		Front:          card.Front,
		Back:           card.Back,
		Tags:           string(tags),
		IntervalDays:   card.IntervalDays,
		EaseFactor:     card.EaseFactor,
		ReviewCount:    card.ReviewCount,
		NextReviewDate: card.NextReviewDate,
		LastReviewedAt: card.LastReviewedAt,
		Difficulty:     card.Difficulty,
		Active:         card.Active,
		CreatedAt:      card.CreatedAt,
		UpdatedAt:      card.UpdatedAt,
	}, nil
}

func (r *cardRow) toEntity() (*entity.Card, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse card id: %w", err)
	}
	var tags []string
	if r.Tags != "" {
		if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	return &entity.Card{
		ID:             id,
		OwnerID:        r.OwnerID,
		Deck:           r.Deck,
		Front:          r.Front,
		Back:           r.Back,
		Tags:           tags,
		IntervalDays:   r.IntervalDays,
		EaseFactor:     r.EaseFactor,
		ReviewCount:    r.ReviewCount,
		NextReviewDate: r.NextReviewDate,
		LastReviewedAt: r.LastReviewedAt,
		Difficulty:     r.Difficulty,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

const sqliteCardInsert = `
	INSERT INTO cards (
		id, owner_id, deck, front, back, tags, interval_days, ease_factor,
		review_count, next_review_date, last_reviewed_at, difficulty, active,
		created_at, updated_at
	) VALUES (
		:id, :owner_id, :deck, :front, :back, :tags, :interval_days, :ease_factor,
		:review_count, :next_review_date, :last_reviewed_at, :difficulty, :active,
		:created_at, :updated_at
	)`

func (r *SQLiteCardRepository) Create(ctx context.Context, card *entity.Card) (*entity.Card, error) {
	row, err := toCardRow(card)
	if err != nil {
		return nil, err
	}
	if _, err := sqlx.NamedExecContext(ctx, r.q, sqliteCardInsert, row); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, entity.ErrDuplicateCard
		}
		return nil, fmt.Errorf("insert card: %w", err)
	}
	out := *card
	return &out, nil
}

func (r *SQLiteCardRepository) Get(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.Card, error) {
	var row cardRow
	err := sqlx.GetContext(ctx, r.q, &row,
		`SELECT * FROM cards WHERE id = ? AND owner_id = ?`, id.String(), ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return row.toEntity()
}

// GetForUpdate is a plain read: sqlite write transactions lock the
// whole database, so there is no finer-grained row lock to take.
func (r *SQLiteCardRepository) GetForUpdate(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.Card, error) {
	return r.Get(ctx, ownerID, id)
}

func (r *SQLiteCardRepository) Update(ctx context.Context, card *entity.Card) (*entity.Card, error) {
	row, err := toCardRow(card)
	if err != nil {
		return nil, err
	}
	res, err := sqlx.NamedExecContext(ctx, r.q, `
		UPDATE cards SET
			deck = :deck, front = :front, back = :back, tags = :tags,
			interval_days = :interval_days, ease_factor = :ease_factor,
			review_count = :review_count, next_review_date = :next_review_date,
			last_reviewed_at = :last_reviewed_at, difficulty = :difficulty,
			active = :active, updated_at = :updated_at
		WHERE id = :id AND owner_id = :owner_id`, row)
	if err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, entity.ErrCardNotFound
	}
	out := *card
	return &out, nil
}

func (r *SQLiteCardRepository) List(ctx context.Context, query *repository.ListCardQuery) ([]*entity.Card, error) {
	where, args := sqliteCardWhere(&query.CardFilter)
	sqlText := `SELECT * FROM cards ` + where + cardOrder(query.Ordering)
	if query.Limit > 0 {
		sqlText += fmt.Sprintf(" LIMIT %d", query.Limit)
	}
	if query.Offset > 0 {
		sqlText += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	var rows []cardRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, sqlText, args...); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	cards := make([]*entity.Card, 0, len(rows))
	for i := range rows {
		card, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (r *SQLiteCardRepository) Count(ctx context.Context, filter *repository.CardFilter) (int64, error) {
	where, args := sqliteCardWhere(filter)
	var n int64
	if err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM cards `+where, args...); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

func (r *SQLiteCardRepository) SoftDelete(ctx context.Context, ownerID int64, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE cards SET active = 0, updated_at = ?
		WHERE id = ? AND owner_id = ? AND active = 1`,
		time.Now().UTC(), id.String(), ownerID)
	if err != nil {
		return fmt.Errorf("soft delete card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrCardNotFound
	}
	return nil
}

func (r *SQLiteCardRepository) AppendReview(ctx context.Context, record *entity.ReviewRecord) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO review_records (
			id, owner_id, card_id, quality, review_time_seconds,
			previous_interval, previous_ease, new_interval, new_ease, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID.String(), record.OwnerID, record.CardID.String(), record.Quality,
		record.ReviewTimeSeconds, record.PreviousInterval, record.PreviousEase,
		record.NewInterval, record.NewEase, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review record: %w", err)
	}
	return nil
}

func (r *SQLiteCardRepository) Transact(ctx context.Context, fn func(repository.CardStore) error) error {
	if r.db == nil {
		return fn(r)
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&SQLiteCardRepository{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func sqliteCardWhere(f *repository.CardFilter) (string, []any) {
	conds := []string{"owner_id = ?"}
	args := []any{f.OwnerID}

	if f.Deck != "" {
		conds = append(conds, "deck = ?")
		args = append(args, f.Deck)
	}
	if len(f.Decks) > 0 {
		conds = append(conds, "deck IN (?"+strings.Repeat(", ?", len(f.Decks)-1)+")")
		for _, d := range f.Decks {
			args = append(args, d)
		}
	}
	if f.ActiveOnly {
		conds = append(conds, "active = 1")
	}
	if f.DueBefore != nil {
		conds = append(conds, "next_review_date <= ?")
		args = append(args, *f.DueBefore)
	}
	if f.OnlyNew {
		conds = append(conds, "review_count = 0")
	}
	if f.OnlyReviewed {
		conds = append(conds, "review_count > 0")
	}
	if f.MinReviews != nil {
		conds = append(conds, "review_count >= ?")
		args = append(args, *f.MinReviews)
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
