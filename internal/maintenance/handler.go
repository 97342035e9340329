package maintenance

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/plantops/plantops/internal/inventory"
	"github.com/plantops/plantops/internal/platform/httpx"
	"github.com/plantops/plantops/internal/shared"
)

// Handler wires HTTP endpoints for the maintenance module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the maintenance handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers maintenance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/maintenance", h.handleCreate)
	r.Get("/logs", h.handleList)
	r.Get("/logs/{id}", h.handleGet)
	r.Put("/logs/{id}", h.handleUpdate)
	r.Delete("/logs/{id}", h.handleDelete)
}

type logRequest struct {
	Engineer      string `json:"engineer" validate:"required"`
	DateOfWork    string `json:"date_of_work" validate:"omitempty,datetime=2006-01-02"`
	Area          string `json:"area"`
	System        string `json:"system"`
	Component     string `json:"component"`
	Action        string `json:"action" validate:"required"`
	SparePartUsed string `json:"spare_part_used"`
	Quantity      int    `json:"quantity" validate:"gte=0"`
	Duration      int    `json:"duration" validate:"gte=0"`
	WorkStatus    string `json:"work_status"`
	Remarks       string `json:"remarks"`
}

func (req logRequest) toInput() LogInput {
	input := LogInput{
		Engineer:      req.Engineer,
		Area:          req.Area,
		System:        req.System,
		Component:     req.Component,
		Action:        Action(req.Action),
		SparePartUsed: req.SparePartUsed,
		Quantity:      req.Quantity,
		Duration:      req.Duration,
		WorkStatus:    req.WorkStatus,
		Remarks:       req.Remarks,
	}
	if req.DateOfWork != "" {
		if t, err := time.Parse("2006-01-02", req.DateOfWork); err == nil {
			input.DateOfWork = &t
		}
	}
	return input
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.Create(r.Context(), req.toInput(), actor.ID)
	if err != nil {
		h.logger.Error("create maintenance log", slog.Any("error", err))
		respondMaintenanceError(w, err)
		return
	}
	payload := map[string]any{"message": "Log saved", "log_id": result.LogID}
	if result.UpdatedStock != nil {
		payload["updated_stock"] = *result.UpdatedStock
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list maintenance logs", slog.Any("error", err))
		respondMaintenanceError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, logs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := logPathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid log id")
		return
	}
	log, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondMaintenanceError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, log)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := logPathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid log id")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
		return
	}
	var req logRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Update(r.Context(), id, req.toInput(), actor.ID); err != nil {
		h.logger.Error("update maintenance log", slog.Int64("id", id), slog.Any("error", err))
		respondMaintenanceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Log updated", "changes": 1})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := logPathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid log id")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
		return
	}
	if err := h.service.Delete(r.Context(), id, actor.ID); err != nil {
		h.logger.Error("delete maintenance log", slog.Int64("id", id), slog.Any("error", err))
		respondMaintenanceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Log deleted and stock restored", "changes": 1})
}

func logPathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func respondMaintenanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrLogNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrPartNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidAction),
		errors.Is(err, inventory.ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, inventory.ErrNegativeStock):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrStockFieldEdit):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
