package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"worldmap-server/internal/dataset"
	"worldmap-server/internal/shared/errors"
	"worldmap-server/internal/shared/response"
)

// maxImportBytes bounds an uploaded point cloud.
const maxImportBytes = 64 << 20

type DatasetHandler struct {
	service *dataset.Service
}

func NewDatasetHandler(service *dataset.Service) *DatasetHandler {
	return &DatasetHandler{service: service}
}

func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "list_datasets")

	datasets, err := h.service.List(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, datasets)
}

func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_dataset")

	id, err := PathID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusOK, detail)
}

func (h *DatasetHandler) Create(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "create_dataset")

	var req dataset.ImportRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}

	ds, err := h.service.Import(r.Context(), req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.Success(w, http.StatusCreated, ds)
}

func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "delete_dataset")

	id, err := PathID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		response.Error(w, r, logger, err)
		return
	}
	response.NoContent(w)
}

// PathID parses the {id} path value as a dataset id.
func PathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, errors.Validation("dataset ID is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.Validationf("invalid dataset ID %q", raw)
	}
	return id, nil
}
