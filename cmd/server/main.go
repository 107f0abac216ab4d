package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worldmap-server/internal/auth"
	"worldmap-server/internal/dataset"
	"worldmap-server/internal/landmass"
	"worldmap-server/internal/middleware"
	"worldmap-server/internal/server"
	"worldmap-server/internal/shared/config"
	"worldmap-server/internal/shared/database"
	"worldmap-server/internal/shared/logger"
	"worldmap-server/internal/shared/redis"
	"worldmap-server/internal/terrain"
	"worldmap-server/internal/world"
)

func main() {
	if err := config.Init(); err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Init()

	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.GlobalConfig
	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, cfg.Database.MigrationsPath); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration)
	if err != nil {
		return err
	}

	datasetCache, err := dataset.NewCache(rdb, cfg.Redis.DatasetTTL, slog.Default())
	if err != nil {
		return err
	}
	defer datasetCache.Close()

	datasetService := dataset.NewService(dataset.NewRepository(db, slog.Default()), datasetCache, slog.Default())

	gen := cfg.Generation
	synthConfig := landmass.DefaultConfig(gen.NoiseSeed)
	synthConfig.NoiseKind = gen.NoiseKind
	synthConfig.Workers = gen.Workers
	synth, err := landmass.New(synthConfig)
	if err != nil {
		return err
	}
	engine := terrain.NewEngine(gen.Padding, gen.SmoothingPasses, gen.Workers)
	worldService := world.NewService(datasetService, engine, synth, terrain.NewCache(), gen.MaxViewport, slog.Default())

	jobs := world.NewJobs(worldService.Generate, gen.JobTTL, slog.Default())
	defer jobs.Close()
	go jobs.Cleanup(ctx, time.Minute)

	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimit, cfg.Server.Environment == "production")
	routes := server.NewRoutes(db, rdb, datasetService, worldService, jobs, middleware.NewAuth(issuer), limiter)
	handler := middleware.NewCORS(cfg.Frontend).Middleware(routes.Setup())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment,
			"noise_kind", gen.NoiseKind, "noise_seed", gen.NoiseSeed, "workers", engine.Workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
