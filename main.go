package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/re-cox/aeys-v2-sub001/pkg/config"
	"github.com/re-cox/aeys-v2-sub001/pkg/database"
	"github.com/re-cox/aeys-v2-sub001/pkg/handlers"
	"github.com/re-cox/aeys-v2-sub001/pkg/logging"
	"github.com/re-cox/aeys-v2-sub001/pkg/models"
	"github.com/re-cox/aeys-v2-sub001/pkg/providers"
	"github.com/re-cox/aeys-v2-sub001/pkg/repositories"
	"github.com/re-cox/aeys-v2-sub001/pkg/services"
	"github.com/re-cox/aeys-v2-sub001/pkg/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Host),
		zap.String("storage_endpoint", cfg.Storage.Endpoint),
		zap.String("storage_bucket", cfg.Storage.Bucket))

	ctx := context.Background()

	if err := database.RunMigrations(cfg.Database.URL(), cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	store, err := storage.NewMinioStore(storage.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
	})
	if err != nil {
		logger.Fatal("Failed to init object store", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Fatal("Failed to ensure document bucket", zap.Error(err))
	}

	appRepo := repositories.NewApplicationRepository(db)
	stepRepo := repositories.NewStepRepository(db)
	docRepo := repositories.NewDocumentRepository(db)

	// The engine's services; the transport layer mounts on top of these.
	appService := services.NewApplicationService(appRepo, stepRepo, docRepo, store, logger)

	// Startup inventory: one line per provider pool.
	for _, p := range providers.Registered() {
		apps, err := appService.List(ctx, p, models.ApplicationFilters{})
		if err != nil {
			logger.Warn("Failed to count applications", zap.String("provider", string(p)), zap.Error(err))
			continue
		}
		logger.Info("Provider pool loaded",
			zap.String("provider", string(p)),
			zap.Int("applications", len(apps)))
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewProvidersHandler(logger).RegisterRoutes(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting notification engine", zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
