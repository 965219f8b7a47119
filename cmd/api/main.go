package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/campusfind/campusfind-backend/api/routes"
	"github.com/campusfind/campusfind-backend/internal/auth"
	"github.com/campusfind/campusfind-backend/internal/dashboard"
	"github.com/campusfind/campusfind-backend/internal/items"
	"github.com/campusfind/campusfind-backend/internal/matches"
	"github.com/campusfind/campusfind-backend/internal/notifications"
	"github.com/campusfind/campusfind-backend/internal/users"
	"github.com/campusfind/campusfind-backend/pkg/bigquery"
	"github.com/campusfind/campusfind-backend/pkg/config"
	"github.com/campusfind/campusfind-backend/pkg/db"
	"github.com/campusfind/campusfind-backend/pkg/logger"
	"github.com/campusfind/campusfind-backend/pkg/migrate"
	"github.com/campusfind/campusfind-backend/pkg/outbox"
	"github.com/campusfind/campusfind-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	bigqueryClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bigqueryClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing bigquery", err)
		}
	}()

	userRepo := users.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	usersService, err := users.NewService(userRepo, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner: dbClient,
		UserRepoFactory: func(tx *gorm.DB) auth.UserRepository {
			return userRepo.WithTx(tx)
		},
		AuthConfig:     cfg.Auth,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	itemsRepo := items.NewRepository(dbClient.DB())
	lostService, err := items.NewLostService(itemsRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create lost item service", err)
		os.Exit(1)
	}
	foundService, err := items.NewFoundService(itemsRepo, dbClient, outboxService, usersService)
	if err != nil {
		logg.Error(context.Background(), "failed to create found item service", err)
		os.Exit(1)
	}

	matchService, err := matches.NewService(matches.NewRepository(dbClient.DB()), dbClient, outboxService, usersService)
	if err != nil {
		logg.Error(context.Background(), "failed to create match service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(dashboard.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			bigqueryClient,
			authService,
			registerService,
			lostService,
			foundService,
			matchService,
			dashboardService,
			notificationsService,
			usersService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
