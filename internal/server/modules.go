package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.uber.org/fx"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/hsn0918/mdchunk/internal/adapters"
	"github.com/hsn0918/mdchunk/internal/chunker"
	"github.com/hsn0918/mdchunk/internal/clients/embedding"
	"github.com/hsn0918/mdchunk/internal/config"
	"github.com/hsn0918/mdchunk/internal/logger"
	"github.com/hsn0918/mdchunk/internal/redis"
	"github.com/hsn0918/mdchunk/internal/storage"
)

// Module is the top-level FX dependency graph.
var Module = fx.Options(
	InfrastructureModule,
	ClientsModule,
	ServicesModule,
	HTTPServerModule,
	fx.Invoke(StartHTTPServer),
)

// InfrastructureModule provides configuration, logging, storage and cache.
var InfrastructureModule = fx.Module("infrastructure",
	fx.Provide(
		NewAppConfig,
		NewAppLogger,
		NewChunkStore,
		NewRedisConnection,
		NewCacheService,
	),
)

// ClientsModule provides external service clients.
var ClientsModule = fx.Module("clients",
	fx.Provide(
		NewObjectStorage,
		NewEmbeddingClient,
	),
)

// ServicesModule provides the business logic services.
var ServicesModule = fx.Module("services",
	fx.Provide(
		NewChunkServer,
	),
)

// HTTPServerModule provides the HTTP server.
var HTTPServerModule = fx.Module("http_server",
	fx.Provide(
		NewHTTPHandler,
	),
)

// NewAppConfig loads the application configuration.
func NewAppConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// NewAppLogger initializes the global logger.
func NewAppLogger() (*slog.Logger, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Get(), nil
}

// NewChunkStore connects the PostgreSQL chunk store.
func NewChunkStore(cfg *config.Config) (adapters.ChunkStore, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
	)

	dimensions := embedding.GetDefaultDimensions(cfg.Services.Embedding.Model)
	logger.Get().Info("initializing chunk store",
		"model", cfg.Services.Embedding.Model,
		"dimensions", dimensions)

	store, err := adapters.NewPostgresChunkStore(dsn, dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk store: %w", err)
	}
	return store, nil
}

// NewRedisConnection creates the Redis connection.
func NewRedisConnection(cfg *config.Config) (*redis.Client, error) {
	client, err := redis.NewClientFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return client, nil
}

// NewCacheService wraps the Redis client with domain cache operations.
func NewCacheService(redisClient *redis.Client) *redis.CacheService {
	return redis.NewCacheService(redisClient)
}

// NewObjectStorage creates the MinIO client for original document bodies.
func NewObjectStorage(cfg *config.Config) (storage.ObjectStorage, error) {
	client, err := storage.NewMinIOClient(storage.MinIOConfig{
		Endpoint:        cfg.MinIO.Endpoint,
		AccessKeyID:     cfg.MinIO.AccessKeyID,
		SecretAccessKey: cfg.MinIO.SecretAccessKey,
		BucketName:      cfg.MinIO.BucketName,
		UseSSL:          cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return client, nil
}

// NewEmbeddingClient creates the embedding client, nil when the service is
// not configured; indexing then stores chunks without embeddings.
func NewEmbeddingClient(cfg *config.Config) *embedding.Client {
	if !cfg.Services.Embedding.Enabled() {
		logger.Get().Info("embedding service not configured, chunks will be stored without embeddings")
		return nil
	}
	return embedding.NewClient(cfg.Services.Embedding)
}

// NewChunkServer assembles the service with its chunking core.
func NewChunkServer(
	store adapters.ChunkStore,
	cache *redis.CacheService,
	objects storage.ObjectStorage,
	embedder *embedding.Client,
	cfg *config.Config,
) (*ChunkServer, error) {
	core, err := chunker.New(cfg.Chunking.ChunkerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	return &ChunkServer{
		Store:     store,
		Cache:     cache,
		Storage:   objects,
		Embedding: embedder,
		Chunker:   core,
		Config:    cfg,
	}, nil
}

// NewHTTPHandler wires the routes and returns the HTTP server.
func NewHTTPHandler(service *ChunkServer, cfg *config.Config) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/chunk", service.HandleChunk)
	mux.HandleFunc("POST /v1/documents", service.HandleUploadDocument)
	mux.HandleFunc("GET /v1/documents", service.HandleListDocuments)
	mux.HandleFunc("GET /v1/documents/{id}/chunks", service.HandleGetChunks)
	mux.HandleFunc("DELETE /v1/documents/{id}", service.HandleDeleteDocument)

	handler := withRecovery(withAccessLog(mux))

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Get().Info("HTTP server configured", "address", serverAddr)

	return &http.Server{
		Addr:    serverAddr,
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

// StartHTTPServer binds the server to the FX lifecycle.
func StartHTTPServer(httpServer *http.Server, lifecycle fx.Lifecycle, shutdowner fx.Shutdowner) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Get().Info("starting HTTP server", "addr", httpServer.Addr)
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Get().Error("HTTP server failed", "error", err)
					if shutdownErr := shutdowner.Shutdown(); shutdownErr != nil {
						logger.Get().Error("application shutdown failed", "error", shutdownErr)
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Get().Info("stopping HTTP server")
			return httpServer.Shutdown(ctx)
		},
	})
}
