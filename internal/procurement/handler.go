package procurement

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/plantops/plantops/internal/platform/httpx"
	"github.com/plantops/plantops/internal/shared"
)

// Handler wires HTTP endpoints for the procurement module.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	validate   *validator.Validate
	adminEmail string
}

// NewHandler constructs the procurement handler.
func NewHandler(logger *slog.Logger, service *Service, adminEmail string) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), adminEmail: adminEmail}
}

// MountRoutes registers procurement routes. The automation trigger is
// rate-limited separately because each call can fan out supplier emails.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/purchase-orders", h.handleList)
	r.Post("/purchase-orders", h.handleCreate)
	r.Get("/purchase-orders/{id}", h.handleGet)
	r.Post("/purchase-orders/{id}/receive", h.handleReceive)
	r.With(httprate.LimitByIP(5, time.Minute)).
		Post("/automation/trigger-reorder", h.handleTriggerReorder)
}

type poLineRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"gte=0"`
}

type poRequest struct {
	SupplierName     string          `json:"supplier_name" validate:"required"`
	Notes            string          `json:"notes"`
	ExpectedDelivery string          `json:"expected_delivery" validate:"omitempty,datetime=2006-01-02"`
	Items            []poLineRequest `json:"items" validate:"required,min=1,dive"`
}

func (req poRequest) toInput() POInput {
	input := POInput{SupplierName: req.SupplierName, Notes: req.Notes}
	if req.ExpectedDelivery != "" {
		if t, err := time.Parse("2006-01-02", req.ExpectedDelivery); err == nil {
			input.ExpectedDelivery = &t
		}
	}
	for _, line := range req.Items {
		input.Items = append(input.Items, POItemInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
		})
	}
	return input
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	pos, err := h.service.ListPOs(r.Context())
	if err != nil {
		h.logger.Error("list purchase orders", slog.Any("error", err))
		respondProcurementError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, pos)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := poPathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order id")
		return
	}
	po, err := h.service.GetPO(r.Context(), id)
	if err != nil {
		respondProcurementError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, po)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req poRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	po, err := h.service.CreateManual(r.Context(), req.toInput(), actor.ID)
	if err != nil {
		h.logger.Error("create purchase order", slog.Any("error", err))
		respondProcurementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Purchase order created", "id": po.ID, "po_number": po.PONumber})
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	id, err := poPathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase order id")
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if err := h.service.Receive(r.Context(), id, actor.ID); err != nil {
		h.logger.Error("receive purchase order", slog.Int64("id", id), slog.Any("error", err))
		respondProcurementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Purchase order received, stock updated"})
}

func (h *Handler) handleTriggerReorder(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if !actor.Admin {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
		return
	}
	pos, err := h.service.GenerateReorders(r.Context(), h.adminEmail, actor.ID)
	if err != nil {
		h.logger.Error("trigger reorder", slog.Any("error", err))
		respondProcurementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Reorder run complete", "pos": pos})
}

func poPathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func respondProcurementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPONotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrEmptyPO), errors.Is(err, ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrAlreadyReceived), errors.Is(err, ErrDuplicatePONumber):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
