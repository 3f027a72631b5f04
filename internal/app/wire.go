//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/studycore/internal/dict"
	"github.com/eslsoft/studycore/internal/infrastructure/config"
	"github.com/eslsoft/studycore/internal/usecase"
)

var configSet = wire.NewSet(
	config.Load,
	config.NewLogger,
	provideLocation,
)

var storeSet = wire.NewSet(
	provideStores,
	wire.FieldsOf(new(*Stores), "Cards", "Sessions", "Stats"),
)

var usecaseSet = wire.NewSet(
	usecase.NewSchedulerUsecase,
	usecase.NewSessionUsecase,
	usecase.NewStudyHoursConsumer,
	wire.Bind(new(usecase.SessionEventSink), new(*usecase.StudyHoursConsumer)),
	usecase.NewDictUsecase,
)

var dictSet = wire.NewSet(
	provideDictManager,
	wire.Bind(new(usecase.TrieProvider), new(*dict.Manager)),
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		storeSet,
		usecaseSet,
		dictSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}
