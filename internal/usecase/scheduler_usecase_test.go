package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studycore/internal/entity"
	"github.com/eslsoft/studycore/internal/repository"
	"github.com/eslsoft/studycore/internal/srs"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeCardStore is a map-backed CardStore. Transact snapshots the maps
// and restores them when the callback fails, mirroring a rollback.
type fakeCardStore struct {
	mu      sync.Mutex
	cards   map[uuid.UUID]*entity.Card
	reviews []*entity.ReviewRecord

	failAppend error
	lockedGets int
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[uuid.UUID]*entity.Card)}
}

func (s *fakeCardStore) Create(_ context.Context, card *entity.Card) (*entity.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[card.ID]; ok {
		return nil, entity.ErrDuplicateCard
	}
	copy := *card
	s.cards[card.ID] = &copy
	out := copy
	return &out, nil
}

func (s *fakeCardStore) Get(_ context.Context, ownerID int64, id uuid.UUID) (*entity.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok || card.OwnerID != ownerID {
		return nil, entity.ErrCardNotFound
	}
	out := *card
	return &out, nil
}

func (s *fakeCardStore) GetForUpdate(ctx context.Context, ownerID int64, id uuid.UUID) (*entity.Card, error) {
	s.mu.Lock()
	s.lockedGets++
	s.mu.Unlock()
	return s.Get(ctx, ownerID, id)
}

func (s *fakeCardStore) Update(_ context.Context, card *entity.Card) (*entity.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[card.ID]; !ok {
		return nil, entity.ErrCardNotFound
	}
	copy := *card
	s.cards[card.ID] = &copy
	out := copy
	return &out, nil
}

func (s *fakeCardStore) matches(card *entity.Card, f *repository.CardFilter) bool {
	if card.OwnerID != f.OwnerID {
		return false
	}
	if f.ActiveOnly && !card.Active {
		return false
	}
	if f.Deck != "" && card.Deck != f.Deck {
		return false
	}
	if f.DueBefore != nil && card.NextReviewDate.After(*f.DueBefore) {
		return false
	}
	if f.OnlyNew && card.ReviewCount != 0 {
		return false
	}
	if f.OnlyReviewed && card.ReviewCount == 0 {
		return false
	}
	if f.MinReviews != nil && card.ReviewCount < *f.MinReviews {
		return false
	}
	return true
}

func compareCards(a, b *entity.Card, key string) int {
	switch key {
	case "next_review_date":
		return a.NextReviewDate.Compare(b.NextReviewDate)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return strings.Compare(a.ID.String(), b.ID.String())
	}
}

func (s *fakeCardStore) List(_ context.Context, q *repository.ListCardQuery) ([]*entity.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Card
	for _, card := range s.cards {
		if s.matches(card, &q.CardFilter) {
			copy := *card
			out = append(out, &copy)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := compareCards(out[i], out[j], q.PrimaryKey); c != 0 {
			if q.PrimaryDesc {
				return c > 0
			}
			return c < 0
		}
		c := compareCards(out[i], out[j], q.SecondaryKey)
		if q.SecondaryDesc {
			return c > 0
		}
		return c < 0
	})
	if q.Limit > 0 && int32(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *fakeCardStore) Count(_ context.Context, f *repository.CardFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, card := range s.cards {
		if s.matches(card, f) {
			n++
		}
	}
	return n, nil
}

func (s *fakeCardStore) SoftDelete(_ context.Context, ownerID int64, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok || card.OwnerID != ownerID {
		return entity.ErrCardNotFound
	}
	card.Active = false
	return nil
}

func (s *fakeCardStore) AppendReview(_ context.Context, record *entity.ReviewRecord) error {
	if s.failAppend != nil {
		return s.failAppend
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *record
	s.reviews = append(s.reviews, &copy)
	return nil
}

func (s *fakeCardStore) Transact(_ context.Context, fn func(repository.CardStore) error) error {
	s.mu.Lock()
	snapshot := make(map[uuid.UUID]*entity.Card, len(s.cards))
	for id, card := range s.cards {
		copy := *card
		snapshot[id] = &copy
	}
	reviews := len(s.reviews)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.cards = snapshot
		s.reviews = s.reviews[:reviews]
		s.mu.Unlock()
		return err
	}
	return nil
}

var schedulerNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestScheduler(store *fakeCardStore) *schedulerUsecase {
	u := NewSchedulerUsecase(store, testLogger(), time.UTC).(*schedulerUsecase)
	u.clock = func() time.Time { return schedulerNow }
	return u
}

func seedCard(t *testing.T, store *fakeCardStore, card entity.Card) *entity.Card {
	t.Helper()
	card.Normalize(schedulerNow)
	card.Active = true
	created, err := store.Create(context.Background(), &card)
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}
	return created
}

func TestCreateCardAppliesDefaults(t *testing.T) {
	store := newFakeCardStore()
	u := newTestScheduler(store)

	card, err := u.CreateCard(context.Background(), &entity.Card{
		OwnerID: 1,
		Front:   "ephemeral",
		Back:    "短暂的",
	})
	if err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if card.Deck != entity.DefaultDeck || card.EaseFactor != entity.DefaultEase {
		t.Errorf("defaults not applied: deck=%q ease=%v", card.Deck, card.EaseFactor)
	}
	if !card.IsNew() || !card.IsDue(entity.DateOf(schedulerNow)) {
		t.Error("a fresh card must be new and due immediately")
	}

	if _, err := u.CreateCard(context.Background(), &entity.Card{OwnerID: 1, Front: "   "}); !errors.Is(err, entity.ErrInvalidCardText) {
		t.Errorf("blank front: err = %v, want ErrInvalidCardText", err)
	}
}

func TestReviewPersistsStateAndRecord(t *testing.T) {
	store := newFakeCardStore()
	u := newTestScheduler(store)

	card := seedCard(t, store, entity.Card{
		OwnerID:        1,
		Front:          "hello",
		IntervalDays:   6,
		EaseFactor:     2.5,
		ReviewCount:    2,
		NextReviewDate: entity.DateOf(schedulerNow),
	})

	record, err := u.Review(context.Background(), 1, card.ID, srs.QualityPerfect, 12)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if record.NewInterval != 15 || record.NewEase != 2.6 {
		t.Errorf("record = interval %d ease %v, want 15/2.6", record.NewInterval, record.NewEase)
	}
	if record.PreviousInterval != 6 || record.PreviousEase != 2.5 {
		t.Errorf("previous snapshot = %d/%v, want 6/2.5", record.PreviousInterval, record.PreviousEase)
	}

	stored, _ := store.Get(context.Background(), 1, card.ID)
	if stored.ReviewCount != 3 || stored.IntervalDays != 15 {
		t.Errorf("card state = count %d interval %d, want 3/15", stored.ReviewCount, stored.IntervalDays)
	}
	wantNext := entity.DateOf(schedulerNow).AddDate(0, 0, 15)
	if !stored.NextReviewDate.Equal(wantNext) {
		t.Errorf("next review = %v, want %v", stored.NextReviewDate, wantNext)
	}
	if stored.LastReviewedAt == nil || !stored.LastReviewedAt.Equal(schedulerNow) {
		t.Errorf("last reviewed = %v, want %v", stored.LastReviewedAt, schedulerNow)
	}
	if len(store.reviews) != 1 {
		t.Fatalf("review log length = %d, want 1", len(store.reviews))
	}
}

func TestReviewReadsCardUnderLock(t *testing.T) {
	store := newFakeCardStore()
	u := newTestScheduler(store)
	card := seedCard(t, store, entity.Card{
		OwnerID:        1,
		Front:          "contended",
		NextReviewDate: entity.DateOf(schedulerNow),
	})

	if _, err := u.Review(context.Background(), 1, card.ID, srs.QualityPerfect, 0); err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	// The transactional read must be the locking variant; a plain Get
	// would let two concurrent reviews compute from the same snapshot
	// and the second commit silently discard the first.
	if store.lockedGets != 1 {
		t.Errorf("locking reads = %d, want 1", store.lockedGets)
	}
}

func TestReviewRejectsBadInput(t *testing.T) {
	store := newFakeCardStore()
	u := newTestScheduler(store)
	card := seedCard(t, store, entity.Card{OwnerID: 1, Front: "w"})

	if _, err := u.Review(context.Background(), 1, card.ID, srs.Quality(6), 0); !errors.Is(err, entity.ErrInvalidQuality) {
		t.Errorf("quality 6: err = %v, want ErrInvalidQuality", err)
	}
	if _, err := u.Review(context.Background(), 1, uuid.New(), srs.QualityPerfect, 0); !errors.Is(err, entity.ErrCardNotFound) {
		t.Errorf("unknown card: err = %v, want ErrCardNotFound", err)
	}
	if _, err := u.Review(context.Background(), 2, card.ID, srs.QualityPerfect, 0); !errors.Is(err, entity.ErrCardNotFound) {
		t.Errorf("wrong owner: err = %v, want ErrCardNotFound", err)
	}

	if err := u.DeleteCard(context.Background(), 1, card.ID); err != nil {
		t.Fatalf("DeleteCard failed: %v", err)
	}
	if _, err := u.Review(context.Background(), 1, card.ID, srs.QualityPerfect, 0); !errors.Is(err, entity.ErrCardNotFound) {
		t.Errorf("inactive card: err = %v, want ErrCardNotFound", err)
	}
}

func TestReviewRollsBackWhenRecordFails(t *testing.T) {
	store := newFakeCardStore()
	u := newTestScheduler(store)
	card := seedCard(t, store, entity.Card{
		OwnerID:        1,
		Front:          "atomic",
		IntervalDays:   6,
		EaseFactor:     2.5,
		ReviewCount:    2,
		NextReviewDate: entity.DateOf(schedulerNow),
	})

	boom := errors.New("append failed")
	store.failAppend = boom
	if _, err := u.Review(context.Background(), 1, card.ID, srs.QualityPerfect, 5); !errors.Is(err, boom) {
		t.Fatalf("Review err = %v, want %v", err, boom)
	}

	after, _ := store.Get(context.Background(), 1, card.ID)
	if after.ReviewCount != 2 || after.IntervalDays != 6 || after.LastReviewedAt != nil {
		t.Errorf("card mutated despite rollback: %+v", after)
	}
	if len(store.reviews) != 0 {
		t.Errorf("review log length = %d, want 0", len(store.reviews))
	}
}

func TestReviewQueueComposition(t *testing.T) {
	store := newFakeCardStore()
	u := newTestScheduler(store)
	today := entity.DateOf(schedulerNow)

	a := seedCard(t, store, entity.Card{
		OwnerID: 1, Front: "A", ReviewCount: 1,
		NextReviewDate: today.AddDate(0, 0, -1),
		CreatedAt:      schedulerNow.Add(-72 * time.Hour),
	})
	b := seedCard(t, store, entity.Card{
		OwnerID: 1, Front: "B", ReviewCount: 3,
		NextReviewDate: today,
		CreatedAt:      schedulerNow.Add(-48 * time.Hour),
	})
	seedCard(t, store, entity.Card{
		OwnerID: 1, Front: "C", ReviewCount: 2,
		NextReviewDate: today.AddDate(0, 0, 7),
		CreatedAt:      schedulerNow.Add(-24 * time.Hour),
	})
	d := seedCard(t, store, entity.Card{
		OwnerID: 1, Front: "D",
		NextReviewDate: today,
		CreatedAt:      schedulerNow,
	})

	queue, dueCount, err := u.ReviewQueue(context.Background(), 1, "", 1, 10)
	if err != nil {
		t.Fatalf("ReviewQueue failed: %v", err)
	}
	if dueCount != 2 {
		t.Errorf("dueCount = %d, want 2", dueCount)
	}
	want := []uuid.UUID{a.ID, b.ID, d.ID}
	if len(queue) != len(want) {
		t.Fatalf("queue length = %d, want %d", len(queue), len(want))
	}
	for i, id := range want {
		if queue[i].ID != id {
			t.Errorf("queue[%d] = %q, wrong card order", i, queue[i].Front)
		}
	}

	// maxNew = 0 yields due cards only.
	queue, dueCount, err = u.ReviewQueue(context.Background(), 1, "", 0, 10)
	if err != nil {
		t.Fatalf("ReviewQueue(maxNew=0) failed: %v", err)
	}
	if len(queue) != 2 || dueCount != 2 {
		t.Errorf("maxNew=0: len=%d dueCount=%d, want 2/2", len(queue), dueCount)
	}

	// Budgets are hard caps, never "unlimited": a zero due budget
	// yields new cards only, and two zero budgets an empty queue.
	queue, dueCount, err = u.ReviewQueue(context.Background(), 1, "", 1, 0)
	if err != nil {
		t.Fatalf("ReviewQueue(maxDue=0) failed: %v", err)
	}
	if len(queue) != 1 || dueCount != 0 || queue[0].ID != d.ID {
		t.Errorf("maxDue=0: len=%d dueCount=%d, want the single new card", len(queue), dueCount)
	}
	queue, dueCount, err = u.ReviewQueue(context.Background(), 1, "", 0, 0)
	if err != nil {
		t.Fatalf("ReviewQueue(0, 0) failed: %v", err)
	}
	if len(queue) != 0 || dueCount != 0 {
		t.Errorf("zero budgets: len=%d dueCount=%d, want empty", len(queue), dueCount)
	}
}

func TestDueCardsOrderingAndLimit(t *testing.T) {
	store := newFakeCardStore()
	u := newTestScheduler(store)
	today := entity.DateOf(schedulerNow)

	late := seedCard(t, store, entity.Card{
		OwnerID: 1, Front: "late", ReviewCount: 1,
		NextReviewDate: today.AddDate(0, 0, -3),
		CreatedAt:      schedulerNow.Add(-time.Hour),
	})
	recent := seedCard(t, store, entity.Card{
		OwnerID: 1, Front: "recent", ReviewCount: 1,
		NextReviewDate: today,
		CreatedAt:      schedulerNow.Add(-2 * time.Hour),
	})
	seedCard(t, store, entity.Card{
		OwnerID: 1, Front: "future", ReviewCount: 1,
		NextReviewDate: today.AddDate(0, 0, 2),
	})

	due, err := u.DueCards(context.Background(), 1, "", 10)
	if err != nil {
		t.Fatalf("DueCards failed: %v", err)
	}
	if len(due) != 2 || due[0].ID != late.ID || due[1].ID != recent.ID {
		t.Errorf("due order = %v, want [late recent]", wordsOfCards(due))
	}

	due, err = u.DueCards(context.Background(), 1, "", 1)
	if err != nil {
		t.Fatalf("limited DueCards failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != late.ID {
		t.Errorf("limited due = %v, want [late]", wordsOfCards(due))
	}

	due, err = u.DueCards(context.Background(), 1, "", 0)
	if err != nil {
		t.Fatalf("DueCards(limit=0) failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("limit 0 returned %v, want nothing", wordsOfCards(due))
	}
}

func wordsOfCards(cards []*entity.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Front
	}
	return out
}

func TestStatistics(t *testing.T) {
	store := newFakeCardStore()
	u := newTestScheduler(store)
	today := entity.DateOf(schedulerNow)

	seedCard(t, store, entity.Card{OwnerID: 1, Front: "new", NextReviewDate: today})
	seedCard(t, store, entity.Card{OwnerID: 1, Front: "learning", ReviewCount: 2, NextReviewDate: today.AddDate(0, 0, 3)})
	seedCard(t, store, entity.Card{OwnerID: 1, Front: "due", ReviewCount: 1, NextReviewDate: today.AddDate(0, 0, -1)})
	seedCard(t, store, entity.Card{OwnerID: 1, Front: "mastered", ReviewCount: 6, NextReviewDate: today.AddDate(0, 0, 30)})
	deleted := seedCard(t, store, entity.Card{OwnerID: 1, Front: "gone", NextReviewDate: today})
	if err := u.DeleteCard(context.Background(), 1, deleted.ID); err != nil {
		t.Fatalf("DeleteCard failed: %v", err)
	}

	stats, err := u.Statistics(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	want := entity.DeckStatistics{Total: 4, Due: 2, New: 1, Learning: 3, Mastered: 1, MasteryRate: 25}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}
}

func TestStatisticsEmptyDeck(t *testing.T) {
	u := newTestScheduler(newFakeCardStore())
	stats, err := u.Statistics(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.Total != 0 || stats.MasteryRate != 0 {
		t.Errorf("empty deck stats = %+v", *stats)
	}
}
