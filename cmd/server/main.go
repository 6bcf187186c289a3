package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fooltable/durak-api/internal/auth"
	"github.com/fooltable/durak-api/internal/bot"
	"github.com/fooltable/durak-api/internal/config"
	"github.com/fooltable/durak-api/internal/handler"
	"github.com/fooltable/durak-api/internal/logger"
	"github.com/fooltable/durak-api/internal/match"
	"github.com/fooltable/durak-api/internal/middleware"
	"github.com/fooltable/durak-api/internal/repository/postgres"
	redisrepo "github.com/fooltable/durak-api/internal/repository/redis"
	"github.com/fooltable/durak-api/internal/room"
)

func main() {
	logger.Init()
	cfg := config.Load()
	bot.GonnxModelPath = cfg.OnnxModelPath
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
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

	// Repos
	userRepo := postgres.NewUserRepo(db)

	// Auth
	validator := auth.NewInitDataValidator(cfg.BotToken, cfg.InitDataMaxAge)
	sessions := auth.NewSessionManager(cfg.AppSecret)

	// Room actors and matchmaking
	newStrategy := func() bot.Strategy { return bot.StrategyForDifficulty(cfg.BotStrategy) }
	rooms := room.NewRegistry(redisClient, newStrategy, cfg.RoomIdleTimeout, logger.Get())
	rooms.StartSweeper(time.Minute)
	matcher := match.NewMatchmaker(rooms, redisClient, cfg.MatchBindingTTL, logger.Get())

	// Handlers
	authHandler := handler.NewAuthHandler(validator, sessions, userRepo)
	matchHandler := handler.NewMatchHandler(matcher, userRepo, cfg.WSBaseURL)
	roomHandler := handler.NewRoomHandler(rooms, userRepo, cfg.WSBaseURL)
	wsHandler := handler.NewWSHandler(rooms, sessions, userRepo)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(sessions)

	// Health
	mux.HandleFunc("GET /healthz", handler.Healthz)

	// Auth (public)
	mux.HandleFunc("POST /api/auth/telegram", authHandler.TelegramLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("POST /matchmaking", matchHandler.Enqueue)
	api.HandleFunc("DELETE /matchmaking", matchHandler.Cancel)
	api.HandleFunc("POST /room/create", roomHandler.Create)

	mux.Handle("/api/", http.StripPrefix("/api", authMw(api)))

	// WebSocket (auth via JOIN frame, not middleware)
	mux.HandleFunc("GET /ws/{roomId}", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
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

	// Active rooms persist on every mutation, so stopping the actors here
	// loses nothing a restart cannot rehydrate.
	rooms.Close()
	log.Info().Msg("Server stopped")
}
