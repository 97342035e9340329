package analytics

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/plantops/plantops/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the analytics module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the analytics handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers analytics routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/predictions", h.handlePredictions)
		r.Get("/spare-usage", h.handleSpareUsage)
		r.Get("/frequency", h.handleFrequency)
		r.Get("/efficiency", h.handleEfficiency)
		r.Get("/stock-health", h.handleStockHealth)
		r.Get("/overview", h.handleOverview)
		r.Get("/dashboard", h.handleDashboard)
	})
}

func (h *Handler) handlePredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.service.Predictions(r.Context())
	if err != nil {
		h.logger.Error("predictions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, predictions)
}

func (h *Handler) handleSpareUsage(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 90)
	limit := queryInt(r, "limit", 10)
	usage, err := h.service.TopPartUsage(r.Context(), days, limit)
	if err != nil {
		h.logger.Error("spare usage", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, usage)
}

func (h *Handler) handleFrequency(w http.ResponseWriter, r *http.Request) {
	groupBy := r.URL.Query().Get("group_by")
	if groupBy == "" {
		groupBy = "system"
	}
	rows, err := h.service.Frequency(r.Context(), groupBy, queryInt(r, "days", 0))
	if err != nil {
		if errors.Is(err, ErrBadGroupBy) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("frequency", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, rows)
}

func (h *Handler) handleEfficiency(w http.ResponseWriter, r *http.Request) {
	eff, err := h.service.EfficiencyReport(r.Context())
	if err != nil {
		h.logger.Error("efficiency", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, eff)
}

func (h *Handler) handleStockHealth(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.StockDashboard(r.Context())
	if err != nil {
		h.logger.Error("stock health", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, rows)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.service.OverviewReport(r.Context())
	if err != nil {
		h.logger.Error("overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, ov)
}

// handleDashboard fans the three landing-page reports out in parallel; each
// leg still goes through the cache on its own key.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var (
		overview    Overview
		predictions []Prediction
		health      []StockHealthRow
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		overview, err = h.service.OverviewReport(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		predictions, err = h.service.Predictions(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		health, err = h.service.StockDashboard(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Data(w, http.StatusOK, map[string]any{
		"overview":     overview,
		"predictions":  predictions,
		"stock_health": health,
	})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
