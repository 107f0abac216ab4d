package server

import (
	"log/slog"
	"net/http"

	"worldmap-server/internal/dataset"
	datasetHandlers "worldmap-server/internal/dataset/handlers"
	"worldmap-server/internal/middleware"
	serverHandlers "worldmap-server/internal/server/handlers"
	"worldmap-server/internal/shared/database"
	"worldmap-server/internal/shared/redis"
	"worldmap-server/internal/world"
	worldHandlers "worldmap-server/internal/world/handlers"
)

type Routes struct {
	db             *database.DB
	redis          *redis.Client
	datasetService *dataset.Service
	worldService   *world.Service
	jobs           *world.Jobs
	auth           *middleware.Auth
	limiter        *middleware.RateLimiter
}

func NewRoutes(
	db *database.DB,
	redis *redis.Client,
	datasetService *dataset.Service,
	worldService *world.Service,
	jobs *world.Jobs,
	auth *middleware.Auth,
	limiter *middleware.RateLimiter,
) *Routes {
	return &Routes{
		db:             db,
		redis:          redis,
		datasetService: datasetService,
		worldService:   worldService,
		jobs:           jobs,
		auth:           auth,
		limiter:        limiter,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db, r.redis)
	datasetHandler := datasetHandlers.NewDatasetHandler(r.datasetService)
	worldHandler := worldHandlers.NewWorldHandler(r.worldService, r.jobs)

	throttled := func(h http.HandlerFunc) http.Handler {
		return r.limiter.Middleware(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return r.auth.RequireAdmin(h)
	}

	// Public endpoints
	mux.Handle("GET /api/server/health", healthHandler)
	mux.HandleFunc("GET /api/datasets", datasetHandler.List)
	mux.HandleFunc("GET /api/datasets/{id}", datasetHandler.Get)
	mux.HandleFunc("GET /api/worlds/jobs/{id}", worldHandler.GetJob)
	mux.HandleFunc("DELETE /api/worlds/jobs/{id}", worldHandler.CancelJob)

	// Generation endpoints (rate limited)
	mux.Handle("POST /api/worlds", throttled(worldHandler.Generate))
	mux.Handle("POST /api/worlds/map.png", throttled(worldHandler.Map))
	mux.Handle("POST /api/worlds/legend.png", throttled(worldHandler.Legend))
	mux.Handle("POST /api/worlds/jobs", throttled(worldHandler.SubmitJob))
	mux.Handle("POST /api/worlds/jobs/{id}/restart", throttled(worldHandler.RestartJob))

	// Admin-only endpoints
	mux.Handle("POST /api/datasets", admin(datasetHandler.Create))
	mux.Handle("DELETE /api/datasets/{id}", admin(datasetHandler.Delete))
	mux.Handle("DELETE /api/worlds/cache", admin(worldHandler.PurgeCache))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/datasets", "/api/datasets/{id}", "/api/worlds/jobs/{id}"},
		"generation_endpoints", []string{"/api/worlds", "/api/worlds/map.png", "/api/worlds/legend.png", "/api/worlds/jobs"},
		"admin_endpoints", []string{"POST /api/datasets", "DELETE /api/datasets/{id}", "DELETE /api/worlds/cache"},
	)

	return mux
}
