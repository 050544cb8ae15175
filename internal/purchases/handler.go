package purchases

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockline-erp/stockline/internal/platform/httpx"
	"github.com/stockline-erp/stockline/internal/shared"
)

// Handler manages purchase order endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createOrder)
	r.Get("/transit-summary", h.transitSummary)
	r.Post("/sync-transit", h.syncTransit)
	r.Get("/{id}", h.getOrder)
	r.Post("/{id}/transition", h.transition)
	r.Patch("/{id}/items/{itemID}", h.updateItem)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	expenses, err := parseMoney("expenses", req.Expenses)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateOrderInput{
		SupplierName:    req.SupplierName,
		SupplierContact: req.SupplierContact,
		Note:            req.Note,
		IsUrgent:        req.IsUrgent,
		Expenses:        expenses,
		SendImmediately: req.SendImmediately,
	}
	for _, line := range req.Items {
		cost, err := parseMoney("costPrice", line.CostPrice)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		input.Items = append(input.Items, OrderItemInput{ProductID: line.ProductID, Quantity: line.Quantity, CostPrice: cost})
	}
	order, items, err := h.service.CreatePurchaseOrder(r.Context(), input)
	if err != nil {
		h.respondError(w, "create purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toOrderResponse(order, items))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	order, items, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, "get purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order, items))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	target := Status(strings.ToUpper(strings.TrimSpace(req.Target)))
	order, err := h.service.TransitionPurchaseOrder(r.Context(), id, target)
	if err != nil {
		h.respondError(w, "transition purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order, nil))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	itemID, ok := h.parseID(w, chi.URLParam(r, "itemID"))
	if !ok {
		return
	}
	var req updateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cost, err := parseMoney("costPrice", req.CostPrice)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	item, err := h.service.UpdateItem(r.Context(), orderID, itemID, req.Quantity, cost)
	if err != nil {
		h.respondError(w, "update purchase item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, itemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		CostPrice: item.CostPrice.StringFixed(2),
		Total:     item.Total.StringFixed(2),
	})
}

func (h *Handler) transitSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.GetTransitSummary(r.Context())
	if err != nil {
		h.respondError(w, "transit summary", err)
		return
	}
	if summaries == nil {
		summaries = []TransitSummary{}
	}
	httpx.JSON(w, http.StatusOK, summaries)
}

func (h *Handler) syncTransit(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.SyncTransitQuantities(r.Context())
	if err != nil {
		h.respondError(w, "sync transit quantities", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrItemNotFound), errors.Is(err, ErrProductNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrIllegalTransition), errors.Is(err, ErrOrderImmutable):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidCost), errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
