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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/usdsearch/internal/config"
	"github.com/kailas-cloud/usdsearch/internal/credential"
	"github.com/kailas-cloud/usdsearch/internal/imaging"
	logpkg "github.com/kailas-cloud/usdsearch/internal/logger"
	"github.com/kailas-cloud/usdsearch/internal/metrics"
	"github.com/kailas-cloud/usdsearch/internal/transport/httpapi"
	"github.com/kailas-cloud/usdsearch/internal/transport/nucleus"
	transport "github.com/kailas-cloud/usdsearch/internal/transport/usdsearch"
	searchuc "github.com/kailas-cloud/usdsearch/internal/usecase/search"
	"github.com/kailas-cloud/usdsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting usdsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_host", cfg.Search.HostURL),
		zap.String("search_mode", cfg.Search.Mode),
	)

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Build the pipeline — composition root
	codec, err := imaging.NewCodec(cfg.Storage.ScratchDir, cfg.Storage.AssetDir, logger)
	if err != nil {
		logger.Fatal("Failed to create image codec", zap.Error(err))
	}
	codec.ClearScratchDir()

	issuer := nucleus.NewIssuer(nil, logger)
	resolver := credential.NewResolver(credential.Config{
		APIKey:               cfg.Auth.APIKey(),
		RequireAuthorization: cfg.Auth.RequireAuthorization,
		NucleusServer:        cfg.Auth.NucleusServer,
	}, issuer, logger)

	sender := transport.NewClient(&transport.Config{
		BaseURL: cfg.Search.HostURL,
		Mode:    transport.Mode(cfg.Search.Mode),
		HTTPClient: &http.Client{
			Timeout: time.Duration(cfg.Search.TimeoutSec) * time.Second,
		},
		Credentials: resolver,
		Logger:      logger,
	})

	searchSvc := searchuc.New(sender, codec, logger)

	server := httpapi.NewServer(
		searchSvc, cfg.Storage.ScratchDir,
		cfg.Search.Limit, cfg.Search.FileExtensionInclude, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpapi.BearerAuthMiddleware(cfg.HTTP.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)
	r.Handle("/metrics", promhttp.Handler())

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
