package server

import (
	"log/slog"
	"net/http"

	"empires-server/internal/empire"
	empireHandlers "empires-server/internal/empire/handlers"
	"empires-server/internal/middleware"
	serverHandlers "empires-server/internal/server/handlers"
	"empires-server/internal/shared/metrics"
	"empires-server/internal/simulation"
)

type Routes struct {
	empireService *empire.Service
	loop          *simulation.Loop
	checks        map[string]serverHandlers.Check
	logger        *slog.Logger
}

func NewRoutes(empireService *empire.Service, loop *simulation.Loop, checks map[string]serverHandlers.Check, logger *slog.Logger) *Routes {
	return &Routes{
		empireService: empireService,
		loop:          loop,
		checks:        checks,
		logger:        logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.loop.CurrentTick, r.empireService.Registry().Len, r.checks)
	empireHandler := empireHandlers.NewEmpireHandler(r.empireService)

	// Public endpoints
	mux.Handle("/api/server/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/api/empires", empireHandler.List)
	mux.HandleFunc("/api/empires/{id}", empireHandler.Get)
	mux.HandleFunc("/api/empires/{id}/published", empireHandler.GetPublished)
	mux.HandleFunc("/api/empires/{id}/research/{category}/undiscovered", empireHandler.GetUndiscovered)

	// Commander endpoints (token must command the path empire)
	mux.Handle("/api/empires/{id}/commands", middleware.RequireEmpireAccess(http.HandlerFunc(empireHandler.SubmitCommand)))
	mux.Handle("/api/empires/{id}/transfers", middleware.RequireEmpireAccess(http.HandlerFunc(empireHandler.Transfer)))
	mux.Handle("/api/empires/{id}/snapshot", middleware.RequireEmpireAccess(http.HandlerFunc(empireHandler.GetSnapshot)))
	mux.Handle("/api/empires/{id}/snapshots/latest", middleware.RequireEmpireAccess(http.HandlerFunc(empireHandler.GetPersistedSnapshot)))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/metrics", "/api/empires", "/api/empires/{id}", "/api/empires/{id}/published", "/api/empires/{id}/research/{category}/undiscovered"},
		"commander_endpoints", []string{"/api/empires/{id}/commands", "/api/empires/{id}/transfers", "/api/empires/{id}/snapshot", "/api/empires/{id}/snapshots/latest"},
	)

	return mux
}
