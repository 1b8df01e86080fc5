// Package persistence selects the user store named by storage.driver.
package persistence

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"credgate/config"
	"credgate/internal/domain/repository"
	"credgate/internal/infra/persistence/memory"
	"credgate/internal/infra/persistence/postgres"
	"credgate/internal/infra/persistence/sqlite"
)

// Params defines the dependencies of the user store
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

// NewUserRepository builds the configured store and registers its shutdown.
func NewUserRepository(params Params) (repository.UserRepository, error) {
	driver := params.Config.Storage.Driver
	logger := params.Logger.With(slog.String("driver", driver))

	switch driver {
	case config.StorageDriverPostgres:
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("User store ready")

		return postgres.NewUserRepository(db), nil

	case config.StorageDriverSQLite:
		store, err := sqlite.Open(params.Config.Storage.SQLite.Path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open SQLite user store")
		}
		params.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return store.Close()
			},
		})
		logger.Info("User store ready", slog.String("path", params.Config.Storage.SQLite.Path))

		return store, nil

	case config.StorageDriverMemory:
		logger.Warn("User store is in memory, registrations are lost on restart")

		return memory.NewStore(), nil
	}

	return nil, errors.Errorf("unknown storage driver: %q", driver)
}
