package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"worldmap-server/internal/shared/errors"
	"worldmap-server/internal/shared/response"
	"worldmap-server/internal/world"
)

type WorldHandler struct {
	service *world.Service
	jobs    *world.Jobs
}

func NewWorldHandler(service *world.Service, jobs *world.Jobs) *WorldHandler {
	return &WorldHandler{service: service, jobs: jobs}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (world.GenerateRequest, error) {
	var req world.GenerateRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.WrapValidation("invalid JSON in request body", err)
	}
	return req, nil
}

func (h *WorldHandler) Generate(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "generate_world")

	req, err := decodeRequest(w, r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.Generate(r.Context(), req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, result)
}

func (h *WorldHandler) Map(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "render_map")

	req, err := decodeRequest(w, r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	dots := r.URL.Query().Get("dots") == "1"
	data, err := h.service.RenderMap(r.Context(), req, dots)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.PNG(w, data)
}

func (h *WorldHandler) Legend(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "render_legend")

	req, err := decodeRequest(w, r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	data, err := h.service.RenderLegend(req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.PNG(w, data)
}

func (h *WorldHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "submit_job")

	req, err := decodeRequest(w, r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusAccepted, h.jobs.Submit(req))
}

func (h *WorldHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_job")

	job, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, job)
}

func (h *WorldHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "cancel_job")

	job, err := h.jobs.Cancel(r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, job)
}

func (h *WorldHandler) RestartJob(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "restart_job")

	job, err := h.jobs.Restart(r.PathValue("id"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusAccepted, job)
}

func (h *WorldHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	h.service.PurgeCache()
	response.NoContent(w)
}
