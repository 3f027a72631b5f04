package dict

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eslsoft/studycore/internal/entity"
)

// newSourceDB writes a minimal stardict sqlite database. Needs the cgo
// sqlite3 driver, like the real source reader.
func newSourceDB(t *testing.T, dir string, words ...string) string {
	t.Helper()
	path := filepath.Join(dir, "stardict.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE stardict (word TEXT, phonetic TEXT, definition TEXT, translation TEXT, example TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, w := range words {
		if _, err := db.Exec(`INSERT INTO stardict VALUES (?, '', 'def', '译', '')`, w); err != nil {
			t.Fatalf("insert %q: %v", w, err)
		}
	}
	return path
}

func TestManagerBuildsThenLoadsCache(t *testing.T) {
	dir := t.TempDir()
	source := newSourceDB(t, dir, "Hello", "help", "world")
	m := NewManager(source, filepath.Join(dir, "cache"), quietLogger())

	built, err := m.Load(context.Background(), false)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	if built.Len() != 3 {
		t.Fatalf("built Len = %d, want 3", built.Len())
	}
	if _, err := os.Stat(m.CachePath()); err != nil {
		t.Fatalf("artifact not written: %v", err)
	}

	loaded, err := m.Load(context.Background(), false)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if e, ok := loaded.Lookup("HELLO"); !ok || e.Word != "Hello" {
		t.Errorf("cache-loaded lookup = %+v ok=%v", e, ok)
	}
	if err := m.Validate(context.Background()); err != nil {
		t.Errorf("Validate after build: %v", err)
	}
}

func TestManagerRebuildsOnStaleFingerprint(t *testing.T) {
	dir := t.TempDir()
	source := newSourceDB(t, dir, "one")
	m := NewManager(source, filepath.Join(dir, "cache"), quietLogger())

	if _, err := m.Load(context.Background(), false); err != nil {
		t.Fatalf("initial Load failed: %v", err)
	}

	// Touch the source so its fingerprint moves.
	future := time.Now().Add(2 * time.Hour)
	if err := os.Chtimes(source, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := m.Validate(context.Background()); !errors.Is(err, entity.ErrCacheInvalid) {
		t.Fatalf("Validate on stale cache = %v, want ErrCacheInvalid", err)
	}
	if _, err := m.Load(context.Background(), false); err != nil {
		t.Fatalf("Load did not rebuild stale cache: %v", err)
	}
	if err := m.Validate(context.Background()); err != nil {
		t.Errorf("Validate after rebuild: %v", err)
	}
}

func TestManagerSourceMissing(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "absent.db"), dir, quietLogger())
	if _, err := m.Load(context.Background(), false); !errors.Is(err, entity.ErrSourceMissing) {
		t.Errorf("Load = %v, want ErrSourceMissing", err)
	}
	if err := m.Validate(context.Background()); !errors.Is(err, entity.ErrSourceMissing) {
		t.Errorf("Validate = %v, want ErrSourceMissing", err)
	}
}

func TestManagerValidateMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	source := newSourceDB(t, dir, "one")
	m := NewManager(source, filepath.Join(dir, "cache"), quietLogger())
	if err := m.Validate(context.Background()); !errors.Is(err, entity.ErrCacheInvalid) {
		t.Errorf("Validate without artifact = %v, want ErrCacheInvalid", err)
	}
}
