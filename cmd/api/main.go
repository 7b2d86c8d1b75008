package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"vnplayer/internal/config"
	"vnplayer/internal/handlers"
	"vnplayer/internal/logger"
	"vnplayer/internal/middleware"
	"vnplayer/internal/services"
	"vnplayer/internal/services/events"
	"vnplayer/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Setup(cfg)

	log.Info("Starting VN Player API",
		"port", cfg.Port,
		"environment", cfg.Environment)

	var source services.StorySource
	if cfg.KindroidAPIKey != "" {
		source = services.NewKindroidService(cfg.KindroidAPIURL, cfg.KindroidAPIKey, cfg.KindroidAIID, cfg.StreamTimeout, log)
		log.Info("Using Kindroid story source", "url", cfg.KindroidAPIURL)
	} else {
		source = services.NewMockStorySource()
		log.Info("No Kindroid API key set, using mock story source")
	}

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		redisOpts = &redis.Options{Addr: cfg.RedisURL}
	}
	redisClient := redis.NewClient(redisOpts)
	broadcaster := events.NewBroadcaster(redisClient, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))

	scriptHandler := handlers.NewScriptHandler(log)
	mux.Handle("/v1/script/", scriptHandler)

	sessionHandler := handlers.NewSessionHandler(store, source, broadcaster, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	mux.Handle("/v1/events/", handlers.NewEventsHandler(redisClient, log))

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout omitted so the SSE endpoint can stream indefinitely
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Error("Error closing redis client", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
