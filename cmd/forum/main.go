package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/campusconnect/forum/internal/config"
	"github.com/campusconnect/forum/internal/db"
	dbRedis "github.com/campusconnect/forum/internal/db/redis"
	"github.com/campusconnect/forum/internal/domain"
	logpkg "github.com/campusconnect/forum/internal/logger"
	"github.com/campusconnect/forum/internal/metrics"
	"github.com/campusconnect/forum/internal/repository/embcache"
	notifrepo "github.com/campusconnect/forum/internal/repository/notification"
	postrepo "github.com/campusconnect/forum/internal/repository/post"
	chiTransport "github.com/campusconnect/forum/internal/transport/chi"
	aiProvider "github.com/campusconnect/forum/internal/transport/openai"
	chatuc "github.com/campusconnect/forum/internal/usecase/chat"
	enrichuc "github.com/campusconnect/forum/internal/usecase/enrich"
	healthuc "github.com/campusconnect/forum/internal/usecase/health"
	"github.com/campusconnect/forum/internal/usecase/notify"
	postuc "github.com/campusconnect/forum/internal/usecase/post"
	retrievaluc "github.com/campusconnect/forum/internal/usecase/retrieval"
	searchuc "github.com/campusconnect/forum/internal/usecase/search"
	voteuc "github.com/campusconnect/forum/internal/usecase/vote"
	"github.com/campusconnect/forum/internal/version"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting forum API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register AI metrics explicitly (no init())
	metrics.RegisterAIMetrics()

	embedder := buildEmbedder(cfg, store, logger)
	completer := aiProvider.NewCompleter(&aiProvider.Config{
		APIKey:    cfg.AI.APIKey,
		BaseURL:   cfg.AI.BaseURL,
		ChatModel: cfg.AI.ChatModel,
		Logger:    logger,
	})
	logger.Info("AI providers created",
		zap.String("embedding_model", cfg.AI.EmbeddingModel),
		zap.String("chat_model", cfg.AI.ChatModel),
		zap.Int("dimensions", cfg.AI.Dimensions),
	)

	// Repositories
	posts := postrepo.New(store, cfg.Storage.KeyPrefix)
	notifications := notifrepo.New(store, cfg.Storage.KeyPrefix)

	// Use case services
	retriever := retrievaluc.New(embedder, posts)
	searchSvc := searchuc.New(retriever, posts, cfg.Retrieval.SearchTopK)
	chatSvc := chatuc.New(retriever, completer, cfg.Retrieval.ChatTopK, cfg.Retrieval.MaxQuestionLen, logger)
	enricher := enrichuc.New(embedder, completer, logger)
	postSvc := postuc.New(posts, enricher, cfg.Retrieval.PageSize, cfg.Retrieval.MaxPageSize, logger)

	sessions := notify.NewRegistry()
	dispatcher := notify.NewDispatcher(notifications, sessions, logger)
	voteSvc := voteuc.New(posts, dispatcher, logger)

	healthSvc := healthuc.New(store, newProviderHealthChecker(embedder))

	server := chiTransport.NewServer(
		searchSvc, chatSvc, postSvc, voteSvc, dispatcher, sessions, healthSvc, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	base := aiProvider.NewEmbedder(&aiProvider.Config{
		APIKey:         cfg.AI.APIKey,
		BaseURL:        cfg.AI.BaseURL,
		EmbeddingModel: cfg.AI.EmbeddingModel,
		Dimensions:     cfg.AI.Dimensions,
		Logger:         logger,
	})

	ttl := time.Duration(cfg.AI.CacheTTLHours) * time.Hour
	return embcache.New(base, store, cfg.Storage.KeyPrefix, ttl, metrics.EmbeddingCacheTotal, logger)
}

// providerHealthChecker exposes the embedder's health probe to the
// health service when the provider supports one.
type providerHealthChecker struct {
	embedder domain.Embedder
}

func newProviderHealthChecker(embedder domain.Embedder) *providerHealthChecker {
	return &providerHealthChecker{embedder: embedder}
}

func (h *providerHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("ai provider health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
