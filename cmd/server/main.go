package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"empires-server/internal/auth"
	"empires-server/internal/catalog"
	"empires-server/internal/empire"
	"empires-server/internal/middleware"
	"empires-server/internal/server"
	serverHandlers "empires-server/internal/server/handlers"
	"empires-server/internal/shared/config"
	"empires-server/internal/shared/database"
	"empires-server/internal/shared/logger"
	"empires-server/internal/shared/redis"
	"empires-server/internal/simulation"
)

func main() {
	mintToken := flag.Bool("mint-token", false, "print a commander token and exit")
	empireID := flag.Int("empire", 0, "empire id for -mint-token")
	commander := flag.String("commander", "operator", "commander name for -mint-token")
	role := flag.String("role", auth.RoleCommander, "token role for -mint-token: commander or operator")
	flag.Parse()

	if err := config.Init(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	logger.Init()

	if *mintToken {
		token, err := auth.GenerateToken(*empireID, *commander, *role)
		if err != nil {
			log.Fatalf("Failed to mint token: %v", err)
		}
		fmt.Println(token)
		return
	}

	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.GlobalConfig
	appLogger := slog.Default()
	logger := appLogger.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	techs, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("Catalog loaded",
		"path", cfg.Catalog.Path,
		"categories", len(techs.Categories),
		"technologies", len(techs.TechnologiesByName),
		"digest", techs.Digest,
	)

	db, err := database.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()
	if db != nil {
		if err := db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	rdb, err := redis.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("Failed to close redis", "error", err)
		}
	}()

	var (
		loopOpts  []simulation.Option
		snapshots empire.SnapshotReader
	)
	checks := map[string]serverHandlers.Check{"database": nil, "redis": nil}
	if db != nil {
		repo := empire.NewRepository(db, cfg.Simulation.SnapshotKeep, appLogger)
		loopOpts = append(loopOpts, simulation.WithSnapshots(repo, cfg.Simulation.SnapshotEvery))
		snapshots = repo
		checks["database"] = db.PingContext
	}

	registry := empire.NewRegistry(appLogger)
	cache := empire.NewSummaryCache(rdb.Raw(), cfg.Redis.SummaryTTL, appLogger)
	empireService := empire.NewService(registry, techs, cache, snapshots, appLogger)
	if err := empireService.Bootstrap(cfg.Empire); err != nil {
		return err
	}

	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	loop := simulation.NewLoop(registry, cache, cfg.Simulation.TickInterval, appLogger, loopOpts...)

	routes := server.NewRoutes(empireService, loop, checks, appLogger)
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit)
	cors := middleware.NewCORS(cfg.Frontend)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      cors.Middleware(rateLimiter.Middleware(mux)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Simulation loop failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Empires server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			stop()
			<-loopDone
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop producers first, then drain whatever they managed to queue.
	registry.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	<-loopDone
	if err := loop.Flush(shutdownCtx); err != nil {
		logger.Error("Final flush failed", "error", err)
	}

	logger.Info("Server stopped", "tick", loop.CurrentTick())
	return nil
}
