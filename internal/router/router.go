package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gemini-relay/internal/handlers"
	"gemini-relay/internal/middleware"
)

func New(
	generateHandler *handlers.GenerateHandler,
	chatHandler *handlers.ChatHandler,
	staticDir string,
	allowedOrigins string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(allowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// ──── Generation Routes ────
	r.Post("/generate-text", generateHandler.Text)
	r.Post("/generate-text-from-image", generateHandler.Image)

	// ──── Chat Routes ────
	r.Post("/chat", chatHandler.Chat)
	r.Get("/personas", chatHandler.Personas)
	r.Get("/models", chatHandler.Models)

	// ──── Static front-end ────
	r.Handle("/*", http.FileServer(http.Dir(staticDir)))

	return r
}
