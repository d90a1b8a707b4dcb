package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GanagallaJoshitha/tasknest/internal/api"
	"github.com/GanagallaJoshitha/tasknest/internal/auth"
	"github.com/GanagallaJoshitha/tasknest/internal/config"
	"github.com/GanagallaJoshitha/tasknest/internal/domain"
	"github.com/GanagallaJoshitha/tasknest/internal/identity"
	"github.com/GanagallaJoshitha/tasknest/internal/insight"
	"github.com/GanagallaJoshitha/tasknest/internal/outbox"
	"github.com/GanagallaJoshitha/tasknest/internal/persistence/local"
	"github.com/GanagallaJoshitha/tasknest/internal/persistence/postgres"
	httptransport "github.com/GanagallaJoshitha/tasknest/internal/transport/http"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		dayRepo    domain.DayRepository
		userStore  identity.Store
		dispatcher *outbox.Dispatcher
	)

	if cfg.UsePostgres() {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		repo := postgres.NewRepository(pool)
		dayRepo, userStore = repo, repo

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers, logger)
		defer producer.Close()

		dispatcher = outbox.NewDispatcher(pool, producer, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger)
		go dispatcher.Start(ctx)

		logger.Info("using postgres backend")
	} else {
		store := local.New(local.Options{
			BasePath: cfg.LocalStorePath,
			Latency:  cfg.LocalStoreLatency,
			Logger:   logger,
		})
		dayRepo, userStore = store, store
		logger.Info("using local file-backed store",
			zap.String("path", cfg.LocalStorePath),
			zap.Duration("simulated_latency", cfg.LocalStoreLatency))
	}

	analyzer, err := insight.NewGenerator(ctx, insight.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create insight generator", zap.Error(err))
	}

	tokens := auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.JWTTTL}
	days := domain.NewService(dayRepo, analyzer, logger)
	users := identity.NewService(userStore, tokens)

	handler := api.NewHandler(days, users)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	requestLogger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
			next.ServeHTTP(w, r)
		})
	}

	skipper := func(r *http.Request) bool {
		switch r.URL.Path {
		case "/healthz", "/metrics", "/v1/auth/register", "/v1/auth/login":
			return true
		}
		return false
	}
	authMiddleware := auth.NewMiddleware(tokens, skipper)

	// CORS sits outside auth so browser preflights succeed without a token.
	cors := httptransport.CORS("http://localhost:5173")
	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, cors(requestLogger(authMiddleware.Wrap(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("tasknest listening", zap.String("address", cfg.HTTPAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
