package usecase

import (
	"context"
	"encoding/hex"
	"sync/atomic"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studycore/internal/dict"
	"github.com/eslsoft/studycore/internal/entity"
)

const (
	fuzzyCandidates    = 5
	defaultPrefixLimit = 20
	previewRuneLimit   = 80
)

// TrieProvider yields loaded tries; *dict.Manager satisfies it.
type TrieProvider interface {
	Load(ctx context.Context, forceRebuild bool) (*dict.Trie, error)
	Fingerprint() ([32]byte, error)
}

// DictUsecase answers dictionary queries against an in-memory trie.
type DictUsecase interface {
	Ready() bool
	Reload(ctx context.Context, forceRebuild bool) error
	Lookup(ctx context.Context, word string) (*entity.LookupResult, error)
	SearchPrefix(ctx context.Context, prefix string, limit int) ([]entity.WordEntry, error)
	Autocomplete(ctx context.Context, prefix string, limit int) ([]entity.Completion, error)
	Stats(ctx context.Context) (*entity.DictStats, error)
	Close() error
}

func NewDictUsecase(provider TrieProvider, logger *logrus.Logger) DictUsecase {
	return &dictUsecase{provider: provider, logger: logger}
}

type dictUsecase struct {
	provider TrieProvider
	logger   *logrus.Logger

	// trie holds the currently served dictionary. Queries read it
	// lock-free; Reload and Close swap it atomically.
	trie atomic.Pointer[dict.Trie]
}

func (u *dictUsecase) Ready() bool { return u.trie.Load() != nil }

// Reload loads (or rebuilds) the dictionary and swaps it in. In-flight
// queries keep using the trie they already resolved.
func (u *dictUsecase) Reload(ctx context.Context, forceRebuild bool) error {
	t, err := u.provider.Load(ctx, forceRebuild)
	if err != nil {
		return err
	}
	u.trie.Store(t)
	u.logger.WithField("words", t.Len()).Info("dictionary ready")
	return nil
}

func (u *dictUsecase) Close() error {
	u.trie.Store(nil)
	return nil
}

func (u *dictUsecase) current() (*dict.Trie, error) {
	t := u.trie.Load()
	if t == nil {
		return nil, entity.ErrDictNotReady
	}
	return t, nil
}

// Lookup resolves a word exactly, falling back to the deepest-prefix
// fuzzy match. No candidate at all yields entity.ErrWordNotFound.
func (u *dictUsecase) Lookup(_ context.Context, word string) (*entity.LookupResult, error) {
	t, err := u.current()
	if err != nil {
		return nil, err
	}

	if entry, ok := t.Lookup(word); ok {
		return &entity.LookupResult{Entry: *entry}, nil
	}

	main, rest := t.Fuzzy(word, fuzzyCandidates)
	if main == nil {
		return nil, entity.ErrWordNotFound
	}
	return &entity.LookupResult{
		Entry: *main,
		Fuzzy: true,
		Suggestions: lo.Map(rest, func(e entity.WordEntry, _ int) string {
			return e.Word
		}),
	}, nil
}

func (u *dictUsecase) SearchPrefix(_ context.Context, prefix string, limit int) ([]entity.WordEntry, error) {
	t, err := u.current()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPrefixLimit
	}
	return t.SearchPrefix(prefix, limit), nil
}

// Autocomplete returns prefix completions with a short preview taken
// from the definition, or the translation when no definition exists.
func (u *dictUsecase) Autocomplete(ctx context.Context, prefix string, limit int) ([]entity.Completion, error) {
	entries, err := u.SearchPrefix(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e entity.WordEntry, _ int) entity.Completion {
		return entity.Completion{Word: e.Word, Preview: previewOf(e)}
	}), nil
}

func (u *dictUsecase) Stats(_ context.Context) (*entity.DictStats, error) {
	t, err := u.current()
	if err != nil {
		return nil, err
	}
	fp, err := u.provider.Fingerprint()
	if err != nil {
		return nil, err
	}
	return &entity.DictStats{
		WordCount:   t.Len(),
		Fingerprint: hex.EncodeToString(fp[:]),
	}, nil
}

func previewOf(e entity.WordEntry) string {
	text := e.Definition
	if text == "" {
		text = e.Translation
	}
	if utf8.RuneCountInString(text) <= previewRuneLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRuneLimit-1]) + "…"
}
