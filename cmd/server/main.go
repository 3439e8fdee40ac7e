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
	"github.com/joho/godotenv"

	"github.com/yishak-cs/cinetune/internal/database"
	"github.com/yishak-cs/cinetune/internal/handlers"
	"github.com/yishak-cs/cinetune/internal/logger"
	"github.com/yishak-cs/cinetune/internal/services"
	"github.com/yishak-cs/cinetune/pkg/helper"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	config := helper.LoadConfigFromEnv()

	log, err := logger.New(config.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if envErr != nil {
		log.Warn("no .env file loaded", "error", envErr)
	}
	if err := config.Validate(); err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	if config.Mode == "prod" || config.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(config, log)
	if err != nil {
		log.Fatal("failed to open store", "backend", config.StoreBackend, "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.Error("error closing store", "error", err)
		}
	}()

	// Initialize services
	recommendationService := services.NewRecommendationService(store, store, log)
	favoriteService := services.NewFavoriteService(store, store, store, log)
	simpleService := services.NewSimpleCollaborativeService(store, store, log)

	// Initialize API handlers
	apiHandler := handlers.NewAPIHandler(
		recommendationService,
		favoriteService,
		simpleService,
		store,
		handlers.Defaults{
			Limit:      config.RecommendationDefault,
			K:          config.CFDefaultK,
			MinOverlap: config.CFDefaultMinOverlap,
		},
		log,
	)
	auth := handlers.NewTokenAuth(config.JWTSecret, config.AuthDisabled, log)
	if config.AuthDisabled {
		log.Warn("authentication disabled; callers are identified by the X-User-ID header")
	}

	router := handlers.NewRouter(apiHandler, auth, config.CORSOrigins, log)

	// Create server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server starting", "port", config.Port, "backend", config.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// Gracefully shutdown with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	log.Info("server exited properly")
}

// openStore connects the configured backend and runs its schema setup
// and optional data import.
func openStore(config helper.Config, log *logger.Logger) (services.Store, error) {
	switch config.StoreBackend {
	case helper.BackendNeo4j:
		client, err := database.NewNeo4jClient(config.Neo4j, log)
		if err != nil {
			return nil, err
		}
		importer := database.NewCSVImporter(client, log)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := importer.EnsureSchema(ctx); err != nil {
			client.Close(ctx)
			return nil, err
		}
		if config.ImportBaseURL != "" {
			if err := importer.ImportAllData(ctx, config.ImportBaseURL); err != nil {
				client.Close(ctx)
				return nil, fmt.Errorf("import failed: %w", err)
			}
			status, err := importer.GetImportStatus(ctx)
			if err != nil {
				client.Close(ctx)
				return nil, fmt.Errorf("failed to get import status: %w", err)
			}
			log.Info("import status", "counts", status)
		}
		return database.NewNeo4jStore(client), nil

	case helper.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := database.NewMongoStore(ctx, config.Mongo, log)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close(ctx)
			return nil, err
		}
		return store, nil

	default:
		store := database.NewMemoryStore()
		if config.SeedFile != "" {
			if err := store.LoadSeed(config.SeedFile); err != nil {
				return nil, fmt.Errorf("failed to load seed file %s: %w", config.SeedFile, err)
			}
			log.Info("seed loaded", "file", config.SeedFile)
		}
		return store, nil
	}
}
