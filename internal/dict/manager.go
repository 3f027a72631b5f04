package dict

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studycore/internal/entity"
)

const cacheFileName = "dict.trie"

// defaultMaxSkipRate aborts builds where most of the source fails
// normalization, which indicates a wrong or corrupt source database.
const defaultMaxSkipRate = 0.5

// Manager decides between loading the cache artifact and rebuilding it
// from the source database. Builder and loader never run concurrently
// for the same cache path.
type Manager struct {
	sourcePath string
	cacheDir   string
	logger     *logrus.Logger
	builder    *Builder

	mu sync.Mutex
}

// ManagerOption tweaks manager construction.
type ManagerOption func(*Manager)

// WithMaxSkipRate overrides the build abort threshold.
func WithMaxSkipRate(rate float64) ManagerOption {
	return func(m *Manager) { m.builder = NewBuilder(m.logger, rate) }
}

// NewManager wires a manager for one source/cache pair.
func NewManager(sourcePath, cacheDir string, logger *logrus.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		sourcePath: sourcePath,
		cacheDir:   cacheDir,
		logger:     logger,
		builder:    NewBuilder(logger, defaultMaxSkipRate),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CachePath returns the artifact location.
func (m *Manager) CachePath() string { return filepath.Join(m.cacheDir, cacheFileName) }

// Fingerprint hashes the source path, mtime and size. It changes
// whenever the source database does, which is the only cache-coherence
// mechanism.
func (m *Manager) Fingerprint() ([32]byte, error) {
	st, err := os.Stat(m.sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return [32]byte{}, fmt.Errorf("%w: %s", entity.ErrSourceMissing, m.sourcePath)
		}
		return [32]byte{}, fmt.Errorf("stat source: %w", err)
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d", m.sourcePath, st.ModTime().UnixNano(), st.Size()))
	return sum, nil
}

// Load returns a ready trie, rebuilding when the artifact is absent,
// stale or corrupt, or when forceRebuild is set.
func (m *Manager) Load(ctx context.Context, forceRebuild bool) (*Trie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fp, err := m.Fingerprint()
	if err != nil {
		return nil, err
	}

	if !forceRebuild {
		t, err := m.loadArtifact(fp)
		if err == nil {
			m.logger.WithFields(logrus.Fields{"path": m.CachePath(), "words": t.Len()}).
				Info("dictionary cache loaded")
			return t, nil
		}
		if os.IsNotExist(err) {
			m.logger.WithField("path", m.CachePath()).Info("dictionary cache absent, building")
		} else if errors.Is(err, entity.ErrCacheInvalid) {
			m.logger.WithError(err).Warn("dictionary cache invalid, rebuilding")
		} else {
			return nil, err
		}
	}

	return m.rebuildLocked(ctx, fp)
}

// Validate checks the artifact against the current source without
// rebuilding. It surfaces entity.ErrSourceMissing and
// entity.ErrCacheInvalid (a missing artifact counts as invalid).
func (m *Manager) Validate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fp, err := m.Fingerprint()
	if err != nil {
		return err
	}
	if _, err := m.loadArtifact(fp); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: artifact missing at %s", entity.ErrCacheInvalid, m.CachePath())
		}
		return err
	}
	return nil
}

func (m *Manager) loadArtifact(fp [32]byte) (*Trie, error) {
	f, err := os.Open(m.CachePath())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, fp)
}

// rebuildLocked builds from source and atomically replaces the artifact
// via write-then-rename, so readers see either the prior version or the
// new one, never a torn file.
func (m *Manager) rebuildLocked(ctx context.Context, fp [32]byte) (*Trie, error) {
	src, err := OpenSQLiteSource(m.sourcePath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	t, stats, err := m.builder.Build(ctx, src)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(m.cacheDir, "dict-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, t, fp); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("flush artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.CachePath()); err != nil {
		return nil, fmt.Errorf("replace artifact: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"path":    m.CachePath(),
		"words":   t.Len(),
		"skipped": stats.Skipped,
	}).Info("dictionary cache rebuilt")
	return t, nil
}
