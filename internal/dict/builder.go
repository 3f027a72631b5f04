package dict

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studycore/internal/entity"
)

// Source yields dictionary records for a build.
type Source interface {
	Each(ctx context.Context, fn func(entity.WordEntry) error) error
}

// BuildStats counts how rows fared during a build. Rows that fail
// normalization are skipped, not fatal; the builder aborts only when the
// skip rate crosses the configured ceiling.
type BuildStats struct {
	Total     int
	Inserted  int
	Coalesced int
	Skipped   int
}

// SkipRate returns the fraction of rows rejected by normalization.
func (s BuildStats) SkipRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Skipped) / float64(s.Total)
}

// Builder constructs a trie from a source in a single pass.
type Builder struct {
	logger      *logrus.Logger
	maxSkipRate float64
}

// NewBuilder returns a builder. maxSkipRate in (0,1] aborts builds whose
// skip rate exceeds it; 0 disables the check.
func NewBuilder(logger *logrus.Logger, maxSkipRate float64) *Builder {
	return &Builder{logger: logger, maxSkipRate: maxSkipRate}
}

// Build inserts every source record into a fresh trie. Unnormalizable
// rows are logged and counted; duplicates coalesce silently.
func (b *Builder) Build(ctx context.Context, src Source) (*Trie, BuildStats, error) {
	t := NewTrie()
	var stats BuildStats

	err := src.Each(ctx, func(e entity.WordEntry) error {
		stats.Total++
		switch t.Insert(e) {
		case Inserted:
			stats.Inserted++
		case Coalesced:
			stats.Coalesced++
		case Rejected:
			stats.Skipped++
			b.logger.WithField("word", e.Word).Warn("skipping word that fails normalization")
		}
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("read source: %w", err)
	}

	if b.maxSkipRate > 0 && stats.SkipRate() > b.maxSkipRate {
		return nil, stats, fmt.Errorf("build aborted: skip rate %.2f exceeds %.2f (%d of %d rows)",
			stats.SkipRate(), b.maxSkipRate, stats.Skipped, stats.Total)
	}

	b.logger.WithFields(logrus.Fields{
		"total":     stats.Total,
		"inserted":  stats.Inserted,
		"coalesced": stats.Coalesced,
		"skipped":   stats.Skipped,
	}).Info("dictionary build finished")
	return t, stats, nil
}
