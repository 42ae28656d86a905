package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/connecthub/connecthub/internal/config"
	"github.com/connecthub/connecthub/internal/database"
	"github.com/connecthub/connecthub/internal/handlers"
	"github.com/connecthub/connecthub/internal/realtime"
	"github.com/connecthub/connecthub/internal/repository"
	"github.com/connecthub/connecthub/internal/scheduler"
	"github.com/connecthub/connecthub/internal/services"
	"github.com/connecthub/connecthub/pkg/logger"
	"github.com/connecthub/connecthub/pkg/middleware"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env, the optional YAML file and the environment
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("Configuration error: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("Database connection error: %v", err)
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			logger.Log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Log.Fatalf("Index creation error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	postRepo := repository.NewPostRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// --- Realtime ---
	var presence realtime.Presence = realtime.NewMemoryPresence()
	if cfg.RedisAddr != "" {
		rdb, err := realtime.NewRedisClient(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Log.Fatalf("Redis connection error: %v", err)
		}
		defer rdb.Close()
		presence = realtime.NewRedisPresence(rdb)
		logger.Log.WithField("addr", cfg.RedisAddr).Info("Using Redis presence")
	}

	var bus realtime.Bus = realtime.NewLocalBus()
	if cfg.NATSURL != "" {
		natsBus, err := realtime.NewNATSBus(cfg.NATSURL)
		if err != nil {
			logger.Log.Fatalf("NATS connection error: %v", err)
		}
		bus = natsBus
		logger.Log.WithField("url", cfg.NATSURL).Info("Using NATS event bus")
	}

	hub, err := realtime.NewHub(bus, presence, logger.Log)
	if err != nil {
		logger.Log.Fatalf("Realtime hub error: %v", err)
	}
	defer hub.Close()
	hub.SetCheckOrigin(originChecker(cfg.CORSOrigins))

	// --- Services ---
	directory := services.NewDirectory(userRepo, cfg.PublicBaseURL)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, hub)
	friendService := services.NewFriendService(friendRepo, userRepo, directory, notificationService, hub, hub, cfg.SuggestionPoolSize)
	hub.SetFriendLister(friendService)
	userService := services.NewUserService(userRepo, postRepo, friendRepo, directory)
	postService := services.NewPostService(postRepo, directory, notificationService)
	chatService := services.NewChatService(chatRepo, friendRepo, directory, hub)
	hub.Handle(realtime.EventMessage, chatService.HandleSocketMessage)

	jobs, err := scheduler.StartNotificationCronJobs(notificationService)
	if err != nil {
		logger.Log.Fatalf("Cron setup error: %v", err)
	}
	defer jobs.Stop()

	// --- Handlers ---
	uploads := &handlers.Uploads{Dir: cfg.UploadDir}
	router := handlers.NewRouter(handlers.Routes{
		JWTSecret:  cfg.JWTSecret,
		UploadDir:  cfg.UploadDir,
		LastActive: userService,
		Health: handlers.PingFunc(func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		}),
		Users:         handlers.NewUserHandler(userService, cfg, uploads),
		Friends:       handlers.NewFriendHandler(friendService),
		Posts:         handlers.NewPostHandler(postService, uploads),
		Search:        handlers.NewSearchHandler(userService, postService),
		Chats:         handlers.NewChatHandler(chatService, hub, cfg.JWTSecret),
		Notifications: handlers.NewNotificationHandler(notificationService),
	})

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware(logger.Log))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("Graceful shutdown failed")
	}
}

// originChecker allows websocket upgrades from the configured CORS origins.
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok || len(allowed) == 0
	}
}
