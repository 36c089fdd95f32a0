package http

import (
	"log/slog"
	"net/http"

	"efirbot/internal/delivery/http/middleware"
)

// NewRouter initializes the HTTP router with the operational routes.
func NewRouter(logger *slog.Logger, health *HealthController) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Health)
	return middleware.LoggingMiddleware(logger, mux)
}
