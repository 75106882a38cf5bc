package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/osgbhub/osgbhub-backend/api/routes"
	"github.com/osgbhub/osgbhub-backend/internal/builder"
	"github.com/osgbhub/osgbhub-backend/internal/catalog"
	"github.com/osgbhub/osgbhub-backend/internal/companies"
	"github.com/osgbhub/osgbhub-backend/internal/drafts"
	"github.com/osgbhub/osgbhub-backend/internal/quotes"
	"github.com/osgbhub/osgbhub-backend/internal/suggest"
	"github.com/osgbhub/osgbhub-backend/pkg/config"
	"github.com/osgbhub/osgbhub-backend/pkg/db"
	"github.com/osgbhub/osgbhub-backend/pkg/logger"
	"github.com/osgbhub/osgbhub-backend/pkg/metrics"
	"github.com/osgbhub/osgbhub-backend/pkg/migrate"
	"github.com/osgbhub/osgbhub-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	builderMetrics := metrics.NewBuilderMetrics(registry)

	draftStore, err := drafts.NewStore(redisClient, logg, cfg.Quote)
	if err != nil {
		logg.Error(context.Background(), "failed to create draft store", err)
		os.Exit(1)
	}

	ranker, err := suggest.NewRanker(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create suggestion ranker", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	companyService, err := companies.NewService(companies.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create company service", err)
		os.Exit(1)
	}

	builderService, err := builder.NewService(draftStore, ranker, catalogService, companyService, builderMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create builder service", err)
		os.Exit(1)
	}

	quoteService, err := quotes.NewService(dbClient, quotes.NewRepository(dbClient.DB()), draftStore, companyService, builderMetrics, logg, cfg.Quote)
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Builder:   builderService,
			Quotes:    quoteService,
			Catalog:   catalogService,
			Companies: companyService,
			Registry:  registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
