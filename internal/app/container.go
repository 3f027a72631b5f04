package app

import (
	"time"

	"github.com/sirupsen/logrus"

	adapterrepo "github.com/eslsoft/studycore/internal/adapter/repository"
	"github.com/eslsoft/studycore/internal/dict"
	"github.com/eslsoft/studycore/internal/infrastructure/config"
	"github.com/eslsoft/studycore/internal/infrastructure/database"
	"github.com/eslsoft/studycore/internal/repository"
	"github.com/eslsoft/studycore/internal/usecase"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Scheduler usecase.SchedulerUsecase
	Sessions  usecase.SessionUsecase
	Dict      usecase.DictUsecase
}

// Stores bundles the persistence layer for the configured driver.
type Stores struct {
	Cards    repository.CardStore
	Sessions repository.SessionStore
	Stats    repository.StatsStore
}

// provideStores selects the store family by database.driver: pgx for
// postgres, sqlx over sqlite3 for single-node embedded deployments.
func provideStores(cfg *config.Config) (*Stores, func(), error) {
	if cfg.DatabaseDriver() == "sqlite3" {
		db, cleanup, err := database.NewSQLiteConnection(cfg)
		if err != nil {
			return nil, nil, err
		}
		return &Stores{
			Cards:    adapterrepo.NewSQLiteCardRepository(db),
			Sessions: adapterrepo.NewSQLiteSessionRepository(db),
			Stats:    adapterrepo.NewSQLiteStatsRepository(db),
		}, cleanup, nil
	}

	pool, cleanup, err := database.NewConnection(cfg)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, nil, err
	}
	return &Stores{
		Cards:    adapterrepo.NewCardRepository(pool),
		Sessions: adapterrepo.NewSessionRepository(pool),
		Stats:    adapterrepo.NewStatsRepository(pool),
	}, cleanup, nil
}

func provideLocation(cfg *config.Config) *time.Location {
	return cfg.Location()
}

func provideDictManager(cfg *config.Config, logger *logrus.Logger) *dict.Manager {
	return dict.NewManager(cfg.Dict.SourcePath, cfg.Dict.CacheDir, logger,
		dict.WithMaxSkipRate(cfg.Dict.MaxSkipRate))
}
