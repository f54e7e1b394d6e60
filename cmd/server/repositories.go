package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TezottoWell/app-rodrigo-martins/internal/config"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository/memory"
	"github.com/TezottoWell/app-rodrigo-martins/internal/repository/mongo"
)

type repositories struct {
	Users     repository.UserRepository
	Plans     repository.WorkoutPlanRepository
	Templates repository.TemplateRepository
	Levels    repository.LevelRepository
	Requests  repository.AccessRequestRepository
	Weights   repository.WeightRepository

	close func()
}

func (r *repositories) Close() {
	if r.close != nil {
		r.close()
	}
}

// openRepositories connects the configured driver. The mongo driver also
// ensures the indexes before returning.
func openRepositories(ctx context.Context, cfg config.DatabaseConfig) (*repositories, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn().Msg("memory driver: data is lost on exit")
		store := memory.New()
		return &repositories{
			Users:     store.Users(),
			Plans:     store.Plans(),
			Templates: store.Templates(),
			Levels:    store.Levels(),
			Requests:  store.AccessRequests(),
			Weights:   store.Weights(),
		}, nil
	case config.DriverMongo:
		client, err := mongo.ConnectDB(ctx, cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		closeClient := func() {
			if err := mongo.DisconnectDB(client); err != nil {
				log.Error().Err(err).Msg("disconnect mongo")
			}
		}
		db := client.Database(cfg.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(indexCtx, db); err != nil {
			closeClient()
			return nil, err
		}
		return &repositories{
			Users:     mongo.NewMongoUserRepository(db),
			Plans:     mongo.NewMongoWorkoutPlanRepository(db),
			Templates: mongo.NewMongoTemplateRepository(db),
			Levels:    mongo.NewMongoLevelRepository(db),
			Requests:  mongo.NewMongoAccessRequestRepository(db),
			Weights:   mongo.NewMongoWeightRepository(db),
			close:     closeClient,
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
