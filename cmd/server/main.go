package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/veche/internal/auth"
	"github.com/freeeve/veche/internal/bot"
	"github.com/freeeve/veche/internal/config"
	"github.com/freeeve/veche/internal/handler"
	"github.com/freeeve/veche/internal/logger"
	"github.com/freeeve/veche/internal/middleware"
	"github.com/freeeve/veche/internal/repository"
	"github.com/freeeve/veche/internal/repository/postgres"
	redisrepo "github.com/freeeve/veche/internal/repository/redis"
	"github.com/freeeve/veche/internal/repository/sqlite"
	"github.com/freeeve/veche/internal/service"
)

type stores struct {
	db      *sql.DB
	users   repository.UserRepository
	matches repository.MatchRepository
	journal repository.JournalRepository
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store == config.StoreSQLite {
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &stores{
			db:      db,
			users:   sqlite.NewUserRepo(db),
			matches: sqlite.NewMatchRepo(db),
			journal: sqlite.NewJournalRepo(db),
		}, nil
	}
	db, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpen: cfg.DBMaxOpenConns,
		MaxIdle: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	return &stores{
		db:      db,
		users:   postgres.NewUserRepo(db),
		matches: postgres.NewMatchRepo(db),
		journal: postgres.NewJournalRepo(db),
	}, nil
}

func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Str("store", cfg.Store).Bool("deterministic", cfg.Deterministic).Msg("Config loaded")

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := openStores(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("Database connection failed")
	}
	defer st.db.Close()

	// Redis is optional; without it state is read from the latest snapshot.
	var (
		cache       repository.MatchCache
		redisClient *redisrepo.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = redisrepo.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer redisClient.Close()
		cache = redisClient
	}

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	googleOAuth := auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	matchSvc := service.NewMatchService(st.matches, st.users, st.journal, cache, wsHub)
	matchSvc.SetStrategy(bot.StrategyForDifficulty(cfg.BotDifficulty))
	matchSvc.SetMaxBotMoves(cfg.MaxBotMoves)

	// Handlers
	authHandler := handler.NewAuthHandler(googleOAuth, jwtMgr, st.users, cfg.DevMode)
	userHandler := handler.NewUserHandler(st.users, matchSvc)
	matchHandler := handler.NewMatchHandler(matchSvc, cfg.Deterministic)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr, cfg.CORSOrigins)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	rateMw := middleware.RateLimit(limiter, func(r *http.Request) string {
		return auth.UserIDFromContext(r.Context())
	})

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := st.db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"redis unavailable"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /users/me", userHandler.GetMe)
	api.HandleFunc("PATCH /users/me", userHandler.UpdateMe)
	api.HandleFunc("GET /users/{id}", userHandler.GetUser)
	api.HandleFunc("POST /matches", matchHandler.CreateMatch)
	api.HandleFunc("GET /matches", matchHandler.ListMatches)
	api.HandleFunc("GET /matches/{id}", matchHandler.GetMatch)
	api.HandleFunc("POST /matches/{id}/join", matchHandler.JoinMatch)
	api.HandleFunc("GET /matches/{id}/state", matchHandler.GetState)
	api.Handle("POST /matches/{id}/actions", rateMw(http.HandlerFunc(matchHandler.SubmitAction)))
	api.HandleFunc("GET /matches/{id}/actions", matchHandler.ListActions)
	api.HandleFunc("GET /matches/{id}/replay", matchHandler.Replay)
	api.HandleFunc("GET /matches/{id}/targets", matchHandler.Targets)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS(cfg.CORSOrigins), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Rehydrate live state after restart
	if err := matchSvc.RecoverActiveMatches(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to recover active matches (non-fatal)")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
