package entity

import "errors"

// Domain errors for cards, sessions and the dictionary.
var (
	ErrInvalidQuality   = errors.New("review quality must be between 0 and 5")
	ErrInvalidAggregate = errors.New("invalid session aggregates")
	ErrCardNotFound     = errors.New("card not found")
	ErrDuplicateCard    = errors.New("card already exists")
	ErrInvalidCardText  = errors.New("invalid card text")
	ErrSessionNotFound  = errors.New("study session not found")
	ErrSessionClosed    = errors.New("study session already closed")
	ErrWordNotFound     = errors.New("word not found")
	ErrCacheInvalid     = errors.New("dictionary cache invalid")
	ErrSourceMissing    = errors.New("dictionary source database missing")
	ErrDictNotReady     = errors.New("dictionary not loaded")
)
