/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/eslsoft/studycore/internal/infrastructure/config"
)

// dbInitCmd creates the scheduler schema on the configured database.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Create the scheduler database schema",
	Long:  "Creates the cards, review_records, study_sessions and user_stats tables. Safe to re-run; existing tables are left untouched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return runMigrations(cfg)
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
}

func runMigrations(cfg *config.Config) error {
	driver := cfg.DatabaseDriver()
	statements, ok := schemaByDriver[driver]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(sqlDriverName(driver), cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	log.Println("database schema ready")
	return nil
}

func sqlDriverName(driver string) string {
	if driver == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

var schemaByDriver = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS cards (
			id UUID PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			deck TEXT NOT NULL DEFAULT 'default',
			front TEXT NOT NULL,
			back TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			interval_days INT NOT NULL DEFAULT 1,
			ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			review_count INT NOT NULL DEFAULT 0,
			next_review_date TIMESTAMPTZ NOT NULL,
			last_reviewed_at TIMESTAMPTZ,
			difficulty INT NOT NULL DEFAULT 1,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_owner_due
			ON cards (owner_id, next_review_date) WHERE active`,
		`CREATE TABLE IF NOT EXISTS review_records (
			id UUID PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			card_id UUID NOT NULL REFERENCES cards(id),
			quality INT NOT NULL,
			review_time_seconds INT NOT NULL DEFAULT 0,
			previous_interval INT NOT NULL,
			previous_ease DOUBLE PRECISION NOT NULL,
			new_interval INT NOT NULL,
			new_ease DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_records_card
			ON review_records (card_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS study_sessions (
			id UUID PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ,
			duration_seconds INT,
			cards_studied INT NOT NULL DEFAULT 0,
			correct_answers INT NOT NULL DEFAULT 0,
			incorrect_answers INT NOT NULL DEFAULT 0,
			session_type TEXT NOT NULL DEFAULT 'review'
		)`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			owner_id BIGINT PRIMARY KEY,
			study_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			deck TEXT NOT NULL DEFAULT 'default',
			front TEXT NOT NULL,
			back TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			interval_days INTEGER NOT NULL DEFAULT 1,
			ease_factor REAL NOT NULL DEFAULT 2.5,
			review_count INTEGER NOT NULL DEFAULT 0,
			next_review_date TIMESTAMP NOT NULL,
			last_reviewed_at TIMESTAMP,
			difficulty INTEGER NOT NULL DEFAULT 1,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_owner_due
			ON cards (owner_id, next_review_date)`,
		`CREATE TABLE IF NOT EXISTS review_records (
			id TEXT PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			card_id TEXT NOT NULL REFERENCES cards(id),
			quality INTEGER NOT NULL,
			review_time_seconds INTEGER NOT NULL DEFAULT 0,
			previous_interval INTEGER NOT NULL,
			previous_ease REAL NOT NULL,
			new_interval INTEGER NOT NULL,
			new_ease REAL NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_records_card
			ON review_records (card_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS study_sessions (
			id TEXT PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP,
			duration_seconds INTEGER,
			cards_studied INTEGER NOT NULL DEFAULT 0,
			correct_answers INTEGER NOT NULL DEFAULT 0,
			incorrect_answers INTEGER NOT NULL DEFAULT 0,
			session_type TEXT NOT NULL DEFAULT 'review'
		)`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			owner_id INTEGER PRIMARY KEY,
			study_hours REAL NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL
		)`,
	},
}
