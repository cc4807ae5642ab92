package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/greenm01/ec4x-sub006/internal/auth"
	"github.com/greenm01/ec4x-sub006/internal/config"
	"github.com/greenm01/ec4x-sub006/internal/gamedata"
	"github.com/greenm01/ec4x-sub006/internal/handler"
	"github.com/greenm01/ec4x-sub006/internal/logger"
	"github.com/greenm01/ec4x-sub006/internal/middleware"
	"github.com/greenm01/ec4x-sub006/internal/repository/postgres"
	redisrepo "github.com/greenm01/ec4x-sub006/internal/repository/redis"
	"github.com/greenm01/ec4x-sub006/internal/service"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	rules, err := gamedata.Load(cfg.RulesFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.RulesFile).Msg("Rules load failed")
	}

	// Database
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := postgres.Connect(dbCtx, cfg.DatabaseURL, postgres.PoolConfig{})
	dbCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Enable Redis keyspace notifications for timer expiry events.
	if err := redisClient.Underlying().ConfigSet(context.Background(), "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (timer expiry may not work)")
	}

	// Repos
	gameRepo := postgres.NewGameRepo(db)
	turnRepo := postgres.NewTurnRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	gameSvc := service.NewGameService(gameRepo)
	turnSvc := service.NewTurnService(rules, gameRepo, turnRepo, redisClient, wsHub)

	// Timer listener (auto-close on deadline expiry)
	timerListener := service.NewTimerListener(redisClient.Underlying(), turnSvc, turnRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(jwtMgr)
	gameHandler := handler.NewGameHandler(gameSvc, turnSvc)
	commandHandler := handler.NewCommandHandler(turnSvc)
	viewHandler := handler.NewViewHandler(turnSvc)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("POST /games", gameHandler.CreateGame)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	api.HandleFunc("POST /games/{id}/start", gameHandler.StartGame)
	api.HandleFunc("POST /games/{id}/stop", gameHandler.StopGame)
	api.HandleFunc("DELETE /games/{id}", gameHandler.DeleteGame)
	api.HandleFunc("POST /games/{id}/commands", commandHandler.SubmitCommands)
	api.HandleFunc("POST /games/{id}/commands/ready", commandHandler.MarkReady)
	api.HandleFunc("DELETE /games/{id}/commands/ready", commandHandler.UnmarkReady)
	api.HandleFunc("GET /games/{id}/view", viewHandler.GetView)
	api.HandleFunc("GET /games/{id}/turns", viewHandler.ListTurns)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Recover active games (rehydrate engine and Redis after restart)
	if err := turnSvc.RecoverActiveGames(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to recover active games (non-fatal)")
	}

	// Start timer listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go timerListener.Start(ctx)

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

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
