package dict

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eslsoft/studycore/internal/entity"
)

// SQLiteSource reads dictionary rows from an ECDICT-style sqlite
// database (the `stardict` table). Requires CGO_ENABLED=1 for the
// sqlite3 driver.
type SQLiteSource struct {
	db   *sql.DB
	path string
}

// OpenSQLiteSource opens the source database read-only. A missing file
// is entity.ErrSourceMissing.
func OpenSQLiteSource(path string) (*SQLiteSource, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrSourceMissing, path)
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	return &SQLiteSource{db: db, path: path}, nil
}

// Each streams every row to fn. Older dumps lack the example column, so
// the query tolerates its absence.
func (s *SQLiteSource) Each(ctx context.Context, fn func(entity.WordEntry) error) error {
	withExamples := true
	rows, err := s.db.QueryContext(ctx,
		`SELECT word, phonetic, definition, translation, example FROM stardict`)
	if err != nil {
		withExamples = false
		rows, err = s.db.QueryContext(ctx,
			`SELECT word, phonetic, definition, translation FROM stardict`)
		if err != nil {
			return fmt.Errorf("query stardict: %w", err)
		}
	}
	defer rows.Close()

	for rows.Next() {
		var word string
		var phonetic, definition, translation, example sql.NullString
		if withExamples {
			err = rows.Scan(&word, &phonetic, &definition, &translation, &example)
		} else {
			err = rows.Scan(&word, &phonetic, &definition, &translation)
		}
		if err != nil {
			return fmt.Errorf("scan stardict row: %w", err)
		}
		entry := entity.WordEntry{
			Word:        word,
			Phonetic:    phonetic.String,
			Definition:  definition.String,
			Translation: translation.String,
			Examples:    splitExamples(example.String),
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close releases the database handle.
func (s *SQLiteSource) Close() error { return s.db.Close() }

// splitExamples breaks a newline-packed example column into sentences.
func splitExamples(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
