package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nearlink/nearlink-api/internal/config"
	"github.com/nearlink/nearlink-api/internal/domain/auth"
	"github.com/nearlink/nearlink-api/internal/domain/gig"
	"github.com/nearlink/nearlink-api/internal/domain/radar"
	"github.com/nearlink/nearlink-api/internal/domain/realtime"
	"github.com/nearlink/nearlink-api/internal/domain/relationship"
	"github.com/nearlink/nearlink-api/internal/domain/user"
	"github.com/nearlink/nearlink-api/internal/middleware"
	"github.com/nearlink/nearlink-api/internal/pkg/database"
	"github.com/nearlink/nearlink-api/internal/pkg/jwt"
	"github.com/nearlink/nearlink-api/internal/pkg/logger"
	pkgresponse "github.com/nearlink/nearlink-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting NearLink API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	relationshipRepo := relationship.NewRepository(db)
	gigRepo := gig.NewRepository(db)
	outbox := realtime.NewOutbox(db)

	radarIndex := radar.NewIndex(&radarVisibilityAdapter{repo: userRepo}, cfg.RadarFreshnessWindow, cfg.RadarMaxRadiusKm)

	// ---------- Realtime hub ----------
	hub := realtime.NewHub(redis)
	dispatcher := realtime.NewDispatcher(outbox, hub, relationshipRepo, cfg.OutboxMaxReplay)
	hub.SetPresenceListener(func(userID uuid.UUID, online bool) {
		// A user whose last connection dropped leaves the radar too.
		if !online {
			radarIndex.Remove(userID)
		}
		dispatcher.HandlePresenceChange(userID, online)
	})
	go hub.Run()
	defer hub.Shutdown()

	// ---------- Services ----------
	authService := auth.NewService(userRepo, jwtService)
	relationshipStore := relationship.NewStore(relationshipRepo, cfg.TransitionMaxAttempts)
	relationshipService := relationship.NewService(relationshipStore)
	relationshipService.SetEventSink(dispatcher)
	gigService := gig.NewService(gigRepo)
	gigService.SetEventSink(dispatcher)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	userHandler := user.NewHandler(userRepo)
	relationshipHandler := relationship.NewHandler(relationshipService)
	gigHandler := gig.NewHandler(gigService)
	radarHandler := radar.NewHandler(radarIndex)
	realtimeHandler := realtime.NewHandler(hub, dispatcher, jwtService, cfg.HeartbeatTimeout, cfg.AllowedOrigins)

	authMiddleware := middleware.Auth(jwtService)
	actionRateLimit := middleware.RateLimit(redis, cfg.RateLimitPerMinute, time.Minute)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint (before Compress); auth via token query param
	r.Get("/ws", realtimeHandler.WebSocket)

	// Compress for everything else
	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/auth", authHandler.Routes())
		r.Mount("/users", userHandler.Routes(authMiddleware))
		r.Mount("/relationships", relationshipHandler.Routes(authMiddleware, actionRateLimit))
		r.Mount("/gigs", gigHandler.Routes(authMiddleware))
		r.Mount("/applications", gigHandler.ApplicationRoutes(authMiddleware))
		r.Mount("/radar", radarHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// radarVisibilityAdapter adapts user.Repository to radar.VisibilityProvider
type radarVisibilityAdapter struct {
	repo user.Repository
}

func (a *radarVisibilityAdapter) IsExplorable(ctx context.Context, userID uuid.UUID) (bool, error) {
	visibility, err := a.repo.GetVisibility(ctx, userID)
	if err != nil {
		if err == user.ErrUserNotFound {
			return false, nil
		}
		return false, err
	}
	return visibility == user.VisibilityExplore, nil
}
