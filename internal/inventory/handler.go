package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/plantops/plantops/internal/platform/httpx"
	"github.com/plantops/plantops/internal/shared"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/inventory", h.handleList)
	r.Post("/inventory", h.handleCreate)
	r.Put("/inventory/{id}", h.handleUpdate)
	r.Delete("/inventory/{id}", h.handleDelete)
	r.Get("/inventory/low-stock", h.handleLowStock)
	r.Post("/inventory/import", h.handleImport)
	r.Get("/stock-movements", h.handleMovements)
}

type itemRequest struct {
	ProductName   string  `json:"product_name" validate:"required"`
	Qty           int     `json:"qty" validate:"gte=0"`
	MinQty        int     `json:"min_qty" validate:"gte=0"`
	ReorderPoint  int     `json:"reorder_point" validate:"gte=0"`
	ReorderQty    int     `json:"reorder_qty" validate:"gte=0"`
	UnitCost      float64 `json:"unit_cost" validate:"gte=0"`
	SupplierName  string  `json:"supplier_name"`
	SupplierEmail string  `json:"supplier_email" validate:"omitempty,email"`
	LocationArea  string  `json:"location_area"`
	Location      string  `json:"location"`
	SubLocation   string  `json:"sub_location"`
}

func (req itemRequest) toInput() ItemInput {
	return ItemInput{
		ProductName:   req.ProductName,
		Qty:           req.Qty,
		MinQty:        req.MinQty,
		ReorderPoint:  req.ReorderPoint,
		ReorderQty:    req.ReorderQty,
		UnitCost:      req.UnitCost,
		SupplierName:  req.SupplierName,
		SupplierEmail: req.SupplierEmail,
		LocationArea:  req.LocationArea,
		Location:      req.Location,
		SubLocation:   req.SubLocation,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		h.logger.Error("list inventory", slog.Any("error", err))
		respondInventoryError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, items)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.FindLowStock(r.Context())
	if err != nil {
		h.logger.Error("low stock scan", slog.Any("error", err))
		respondInventoryError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, items)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	item, err := h.service.CreateItem(r.Context(), req.toInput(), actor.ID)
	if err != nil {
		h.logger.Error("create item", slog.Any("error", err))
		respondInventoryError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Item added", "id": item.ID})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if _, err := h.service.UpdateItem(r.Context(), id, req.toInput(), actor.ID); err != nil {
		h.logger.Error("update item", slog.Int64("id", id), slog.Any("error", err))
		respondInventoryError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Item updated", "changes": 1})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
		return
	}
	if err := h.service.DeleteItem(r.Context(), id, actor.ID); err != nil {
		h.logger.Error("delete item", slog.Int64("id", id), slog.Any("error", err))
		respondInventoryError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Item deleted", "changes": 1})
}

// handleImport bulk-loads items from a CSV body. The upload is capped at 5 MiB
// which is far beyond any realistic storeroom export.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
		return
	}
	result, err := h.service.ImportCSV(r.Context(), http.MaxBytesReader(w, r.Body, 5<<20), actor.ID)
	if err != nil {
		if errors.Is(err, ErrImportHeader) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("import inventory csv", slog.Any("error", err))
		respondInventoryError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleMovements(w http.ResponseWriter, r *http.Request) {
	var productID *int64
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product_id")
			return
		}
		productID = &id
	}
	movements, err := h.service.ListMovements(r.Context(), productID)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		respondInventoryError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, movements)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func respondInventoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrItemNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNegativeStock),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrInvalidMovementType),
		errors.Is(err, ErrNameRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
