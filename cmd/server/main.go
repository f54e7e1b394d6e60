package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/TezottoWell/app-rodrigo-martins/internal/api"
	"github.com/TezottoWell/app-rodrigo-martins/internal/config"
	"github.com/TezottoWell/app-rodrigo-martins/internal/logging"
	"github.com/TezottoWell/app-rodrigo-martins/internal/service"
	"github.com/TezottoWell/app-rodrigo-martins/internal/session"
	"github.com/TezottoWell/app-rodrigo-martins/internal/storage"
)

// @title Workout Coach API
// @version 1.0
// @description Weekly workout plans authored by admins and trained through by clients.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	app := &cli.App{
		Name:     "workout-coach",
		HelpName: "workout-coach",
		Usage:    "Workout plans and training sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   ".",
				Usage:   "directory holding config.yaml",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "overrides log.level",
			},
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			log.Error().Err(err).Msg(c.App.Name)
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if c.IsSet("log-level") {
				cfg.Log.Level = c.String("log-level")
			}
			logging.Setup(c.App.ErrWriter, cfg.Log.Level, cfg.Log.Format)
			c.App.Metadata = map[string]interface{}{"config": cfg}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "ensure-indexes",
				Usage:  "create the MongoDB indexes and exit",
				Action: ensureIndexes,
			},
			{
				Name:      "promote-admin",
				Usage:     "give an existing account the admin role",
				ArgsUsage: "EMAIL",
				Action:    promoteAdmin,
			},
		},
		Action: serve,
	}
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

func configFrom(c *cli.Context) config.Config {
	return c.App.Metadata["config"].(config.Config)
}

func serve(c *cli.Context) error {
	cfg := configFrom(c)
	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) is required")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer repos.Close()

	fileStorage := storage.FileStorage(storage.Disabled{})
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("init S3 storage: %w", err)
		}
	} else {
		log.Warn().Msg("s3.bucket_name not set, profile photos disabled")
	}

	services := api.Services{
		Auth:     service.NewAuthService(repos.Users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Users:    service.NewUserService(repos.Users, repos.Plans, repos.Weights, repos.Requests, fileStorage),
		Plans:    service.NewPlanService(repos.Users, repos.Plans),
		Sessions: service.NewSessionService(repos.Users, repos.Plans, session.SystemClock),
		Access:   service.NewAccessService(repos.Users, repos.Requests),
		Clients:  service.NewClientService(repos.Users, repos.Weights, fileStorage, cfg.Photos.URLExpiry),
		Template: service.NewTemplateService(repos.Templates, repos.Levels, repos.Plans, repos.Users),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.Middleware())
	api.SetupRoutes(router, services)

	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
		// No WriteTimeout: plan event streams stay open.
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Str("driver", cfg.Database.Driver).Msg("serving")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func ensureIndexes(c *cli.Context) error {
	cfg := configFrom(c)
	if cfg.Database.Driver != config.DriverMongo {
		return fmt.Errorf("ensure-indexes needs the %s driver, have %s", config.DriverMongo, cfg.Database.Driver)
	}
	repos, err := openRepositories(c.Context, cfg.Database)
	if err != nil {
		return err
	}
	repos.Close()
	return nil
}

func promoteAdmin(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: promote-admin EMAIL")
	}
	cfg := configFrom(c)
	if cfg.Database.Driver == config.DriverMemory {
		return errors.New("promote-admin has no effect on the memory driver")
	}
	repos, err := openRepositories(c.Context, cfg.Database)
	if err != nil {
		return err
	}
	defer repos.Close()

	users := service.NewUserService(repos.Users, repos.Plans, repos.Weights, repos.Requests, storage.Disabled{})
	user, err := users.PromoteByEmail(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	log.Info().Str("uid", user.ID.Hex()).Str("email", user.Email).Msg("promoted to admin")
	return nil
}
