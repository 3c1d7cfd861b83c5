package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for the session cart.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Response DTOs ---

// CartResponse is a cart with its derived totals.
type CartResponse struct {
	*domain.Cart
	Totals domain.Totals `json:"totals"`
}

// AddLineResponse is returned after a line is added.
type AddLineResponse struct {
	Cart CartResponse    `json:"cart"`
	Line domain.CartLine `json:"line"`
}

func newCartResponse(cart *domain.Cart) CartResponse {
	return CartResponse{Cart: cart, Totals: cart.Totals()}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), logger.SessionIDFromContext(r.Context()))
	h.writeCart(w, r, cart, err)
}

// ToggleVisibility handles POST /api/v1/cart/visibility
func (h *CartHandler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.ToggleVisibility(r.Context(), logger.SessionIDFromContext(r.Context()))
	h.writeCart(w, r, cart, err)
}

// AddLine handles POST /api/v1/cart/lines
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req service.AddLineInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, line, err := h.service.AddLine(r.Context(), logger.SessionIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, AddLineResponse{Cart: newCartResponse(cart), Line: line})
}

// SetQuantity handles PUT /api/v1/cart/lines/{lineId}/quantity
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req service.SetQuantityInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.SetQuantity(r.Context(), logger.SessionIDFromContext(r.Context()), chi.URLParam(r, "lineId"), req.Quantity)
	h.writeCart(w, r, cart, err)
}

// ChangeSize handles PUT /api/v1/cart/lines/{lineId}/size
func (h *CartHandler) ChangeSize(w http.ResponseWriter, r *http.Request) {
	var req service.ChangeSizeInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.ChangeSize(r.Context(), logger.SessionIDFromContext(r.Context()), chi.URLParam(r, "lineId"), req.Size)
	h.writeCart(w, r, cart, err)
}

// RemoveLine handles DELETE /api/v1/cart/lines/{lineId}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveLine(r.Context(), logger.SessionIDFromContext(r.Context()), chi.URLParam(r, "lineId"))
	h.writeCart(w, r, cart, err)
}

// Clear handles DELETE /api/v1/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Clear(r.Context(), logger.SessionIDFromContext(r.Context()))
	h.writeCart(w, r, cart, err)
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, cart *domain.Cart, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, newCartResponse(cart))
}
