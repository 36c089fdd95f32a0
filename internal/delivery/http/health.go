package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthStatus is the body of a successful GET /healthz.
type HealthStatus struct {
	Status string `json:"status"`
	Bot    string `json:"bot,omitempty"`
}

// HealthController serves the liveness probe.
type HealthController struct {
	Logger      *slog.Logger
	DB          Pinger
	BotUsername string
	Timeout     time.Duration
}

// NewHealthController returns a HealthController that pings db on every probe.
func NewHealthController(logger *slog.Logger, db Pinger, botUsername string) *HealthController {
	return &HealthController{
		Logger:      logger,
		DB:          db,
		BotUsername: botUsername,
		Timeout:     2 * time.Second,
	}
}

// Health answers 200 when the store is reachable and 503 otherwise.
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.Timeout)
	defer cancel()
	if err := c.DB.PingContext(ctx); err != nil {
		c.Logger.WarnContext(r.Context(), "health check failed", "err", err)
		WriteJSONError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "store unreachable")
		return
	}
	WriteJSONSuccess(w, http.StatusOK, HealthStatus{Status: "ok", Bot: c.BotUsername})
}
