package app

import (
	"path/filepath"
	"testing"

	adapterrepo "github.com/eslsoft/studycore/internal/adapter/repository"
	"github.com/eslsoft/studycore/internal/infrastructure/config"
)

func TestProvideStoresSelectsSQLite(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver: "sqlite3",
			Path:   filepath.Join(t.TempDir(), "app.db"),
		},
	}

	stores, cleanup, err := provideStores(cfg)
	if err != nil {
		t.Fatalf("provideStores failed: %v", err)
	}
	defer cleanup()

	if _, ok := stores.Cards.(*adapterrepo.SQLiteCardRepository); !ok {
		t.Errorf("Cards = %T, want the sqlite-backed store", stores.Cards)
	}
	if _, ok := stores.Sessions.(*adapterrepo.SQLiteSessionRepository); !ok {
		t.Errorf("Sessions = %T, want the sqlite-backed store", stores.Sessions)
	}
	if _, ok := stores.Stats.(*adapterrepo.SQLiteStatsRepository); !ok {
		t.Errorf("Stats = %T, want the sqlite-backed store", stores.Stats)
	}
}

func TestProvideStoresRejectsUnreachablePostgres(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:   "postgres",
			Host:     "127.0.0.1",
			Port:     1, // nothing listens here
			Name:     "studycore",
			User:     "postgres",
			Password: "postgres",
			SSLMode:  "disable",
		},
	}
	if _, _, err := provideStores(cfg); err == nil {
		t.Fatal("expected a connection error for an unreachable postgres")
	}
}
