package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"empires-server/internal/shared/response"
)

// Check pings one backing service. A nil Check marks the service disabled.
type Check func(ctx context.Context) error

type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Tick         int64             `json:"tick"`
	Empires      int               `json:"empires"`
	Dependencies map[string]string `json:"dependencies"`
}

type HealthHandler struct {
	tick    func() int64
	empires func() int
	checks  map[string]Check
}

func NewHealthHandler(tick func() int64, empires func() int, checks map[string]Check) *HealthHandler {
	return &HealthHandler{tick: tick, empires: empires, checks: checks}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]string, len(h.checks))
	for _, name := range names {
		check := h.checks[name]
		switch {
		case check == nil:
			deps[name] = "disabled"
		case check(ctx) == nil:
			deps[name] = "connected"
		default:
			logger.Warn("Dependency ping failed", "dependency", name)
			deps[name] = "disconnected"
		}
	}

	resp := HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().Format(time.RFC3339),
		Tick:         h.tick(),
		Empires:      h.empires(),
		Dependencies: deps,
	}

	response.Success(w, http.StatusOK, resp)
}
