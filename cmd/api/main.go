package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-gateway/cmd"
	"chat-gateway/internal/api"
	"chat-gateway/internal/chat"
	"chat-gateway/internal/config"
	"chat-gateway/internal/database"
	"chat-gateway/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	log.Println("Starting chat gateway...")

	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if cfg.Development() {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	api.ExposeInternalErrors(cfg.Development())

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	modelProxy := cmd.CreateModelProxy(cfg)
	health := chat.NewHealthService(modelProxy)
	services := repository.NewGormServices(db)
	transactor := database.NewTransactor(db)

	chatService := chat.NewService(health, modelProxy, services.Sessions, services.Conversations, transactor, chat.Options{
		ModelConfiguration:     cmd.LoadModelConfiguration(cfg),
		IncludeHistory:         cfg.IncludeHistory,
		MaxLockedConversations: cfg.MaxLockedConversations,
	})

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Leaves room for a slow upstream call plus persistence.
	r.Use(middleware.Timeout(cfg.UpstreamTimeout + 30*time.Second))

	api.NewChatService(chatService, health).AddRoutes(r)
	api.NewEntityService(services, transactor).AddRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("chat gateway listening", "port", cfg.APIPort, "backend", cfg.AssistantBackend, "include_history", cfg.IncludeHistory)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
