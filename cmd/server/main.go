package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"

	"gemini-relay/internal/config"
	"gemini-relay/internal/handlers"
	"gemini-relay/internal/metrics"
	"gemini-relay/internal/router"
	"gemini-relay/internal/services"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	setupLogging(cfg)
	log.Info("🚀 Starting Gemini relay backend...")
	log.Info("✓ Environment variables loaded")

	// ──── Step 2: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Infof("✓ Gemini client initialized (default model %s)", services.DefaultModel)

	metrics.Register()

	// ──── Step 3: Initialize Handlers ────
	generateHandler := handlers.NewGenerateHandler(geminiService, cfg.MaxUploadBytes())
	chatHandler := handlers.NewChatHandler(geminiService)

	// ──── Step 4: Start HTTP Server ────
	r := router.New(generateHandler, chatHandler, cfg.StaticDir, cfg.AllowedOrigins)

	// No write timeout: provider calls run until the provider answers.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}()

	log.Infof("✓ Server ready on port %s", cfg.Port)
	log.Infof("  Open this link http://localhost:%s", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		log.SetHandler(jsonhandler.New(os.Stderr))
	} else {
		log.SetHandler(text.New(os.Stderr))
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
