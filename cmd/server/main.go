package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/omarespejel/starknet-unity-clicker-demo/internal/config"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/database"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/handler"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/jobs"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/middleware"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
	redisclient "github.com/omarespejel/starknet-unity-clicker-demo/internal/redis"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/service"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/starknet"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	var (
		sessionStore store.SessionStore
		sweeper      jobs.ExpiredDeleter
		limiter      middleware.Limiter
	)

	switch cfg.SessionStore {
	case config.StoreRedis:
		client, err := redisclient.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		log.Info().Msg("redis connected")

		sessionStore = store.NewRedisStore(client.Client)
		limiter = middleware.NewRedisRateLimiter(client.Client)

	case config.StorePostgres:
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		cancel()
		log.Info().Msg("database connected")

		pgStore := store.NewPostgresStore(db.DB)
		sessionStore = pgStore
		sweeper = pgStore
		limiter = middleware.NewRateLimiter()

	default:
		memStore := store.NewMemoryStore()
		sessionStore = memStore
		sweeper = memStore
		limiter = middleware.NewRateLimiter()
	}

	policy := model.NewWorldPolicy(cfg.WorldAddress)
	provider := starknet.NewProvider(cfg.StarknetRPCURL)
	account := starknet.Account{Address: cfg.AccountAddress, PrivateKey: cfg.PrivateKey}

	sessionService := service.NewSessionService(sessionStore, policy, cfg.SessionTTL())
	dispatchService := service.NewDispatchService(provider, account, policy)
	stateService := service.NewStateService(cfg.ToriiURL)

	sessionHandler := handler.NewSessionHandler(sessionService)
	gameHandler := handler.NewGameHandler(sessionService, dispatchService)
	stateHandler := handler.NewStateHandler(stateService)

	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter, cfg.RateLimitPerMin)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Post("/create-session-key", sessionHandler.Create)

	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Post("/click", gameHandler.Click)
		r.Post("/buy-upgrade", gameHandler.BuyUpgrade)
	})

	r.Get("/game-state", stateHandler.GetState)

	if sweeper != nil {
		cleanupJob := jobs.NewCleanupJob(sweeper, config.CleanupJobInterval)
		cleanupJob.Start()
		defer cleanupJob.Stop()
	}

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		IdleTimeout: config.ServerIdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("world", cfg.WorldAddress).
			Str("store", cfg.SessionStore).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
