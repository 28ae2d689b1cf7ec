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
	"go.uber.org/zap"

	"github.com/notemill/notemill/internal/config"
	"github.com/notemill/notemill/internal/db"
	dbRedis "github.com/notemill/notemill/internal/db/redis"
	"github.com/notemill/notemill/internal/domain"
	logpkg "github.com/notemill/notemill/internal/logger"
	"github.com/notemill/notemill/internal/metrics"
	"github.com/notemill/notemill/internal/repository/searchcache"
	chiTransport "github.com/notemill/notemill/internal/transport/chi"
	openaiSynth "github.com/notemill/notemill/internal/transport/openai"
	"github.com/notemill/notemill/internal/transport/serpapi"
	healthuc "github.com/notemill/notemill/internal/usecase/health"
	researchuc "github.com/notemill/notemill/internal/usecase/research"
	"github.com/notemill/notemill/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting notemill API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Optional search cache store
	var store db.Store
	if cfg.Cache.Enabled {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store")
	}

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	// Build searcher chain — composition root
	var searcher domain.Searcher = serpapi.New(&serpapi.Config{
		APIKey:  cfg.Providers.Search.APIKey,
		BaseURL: cfg.Providers.Search.BaseURL,
		Timeout: time.Duration(cfg.Providers.Search.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	if store != nil {
		searcher = searchcache.New(
			searcher, store,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.SearchCacheTotal, logger,
		)
	}

	synthesizer := openaiSynth.NewCompleter(&openaiSynth.Config{
		APIKey:      cfg.Providers.Synthesis.APIKey,
		BaseURL:     cfg.Providers.Synthesis.BaseURL,
		Model:       cfg.Providers.Synthesis.Model,
		Temperature: cfg.Providers.Synthesis.Temperature,
		Timeout:     time.Duration(cfg.Providers.Synthesis.TimeoutSec) * time.Second,
		Logger:      logger,
	})
	logger.Info("Providers created",
		zap.String("search_base_url", cfg.Providers.Search.BaseURL),
		zap.String("synthesis_model", cfg.Providers.Synthesis.Model),
	)

	// Create use case services
	researchSvc := researchuc.New(searcher, synthesizer, researchuc.Config{
		SearchTimeout:    time.Duration(cfg.Providers.Search.TimeoutSec) * time.Second,
		SynthesisTimeout: time.Duration(cfg.Providers.Synthesis.TimeoutSec) * time.Second,
		OverallDeadline:  time.Duration(cfg.Pipeline.OverallDeadlineSec) * time.Second,
		RetryAttempts:    cfg.Pipeline.RetryAttempts,
		RetryBackoff:     time.Duration(cfg.Pipeline.RetryBackoffMs) * time.Millisecond,
		MaxSearchResults: cfg.Providers.Search.MaxResults,
		EvidenceMaxItems: cfg.Pipeline.EvidenceMaxItems,
		EvidenceMaxChars: cfg.Pipeline.EvidenceMaxChars,
	})

	// Health service
	// Pass nil interface (not typed nil pointer!) if the cache is not configured.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(cachePinger,
		cfg.Providers.Search.APIKey != "",
		cfg.Providers.Synthesis.APIKey != "",
	)

	// Create chi server
	server := chiTransport.NewServer(researchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Post("/research", server.Research)
	r.Get("/health", server.HealthCheck)
	r.Get("/metrics", server.Metrics)

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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
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
