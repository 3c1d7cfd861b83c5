package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
)

// CatalogHandler serves product listings, product pages and shelves.
type CatalogHandler struct {
	service *service.StorefrontService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.StorefrontService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := service.ProductQuery{Page: pagination.FromRequest(r)}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, ok := httputil.ParsePositiveInt(w, "category_id", raw)
		if !ok {
			return
		}
		q.CategoryID = &id
	}

	state, err := h.service.ListProducts(r.Context(), q)
	writeState(w, r, state, err, h.logger)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePositiveInt(w, "product id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	state, err := h.service.ProductDetail(r.Context(), id)
	writeState(w, r, state, err, h.logger)
}

// AddToCart handles POST /api/v1/products/{id}/cart. The body is optional;
// without one the default size and color are used.
func (h *CatalogHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePositiveInt(w, "product id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req service.AddProductInput
	if r.ContentLength != 0 {
		if err := validator.DecodeAndValidate(r, &req); err != nil && !errors.Is(err, io.EOF) {
			httputil.WriteValidationError(w, err)
			return
		}
	}

	cart, line, err := h.service.AddProductToCart(r.Context(), logger.SessionIDFromContext(r.Context()), id, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, AddLineResponse{Cart: newCartResponse(cart), Line: line})
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Categories(r.Context())
	writeState(w, r, state, err, h.logger)
}

// GetShelf handles GET /api/v1/shelves/{name}
func (h *CatalogHandler) GetShelf(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Shelf(chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, state)
}

// RetryShelf handles POST /api/v1/shelves/{name}/retry
func (h *CatalogHandler) RetryShelf(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.service.RetryShelf(r.Context(), name); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	state, err := h.service.Shelf(name)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: state})
}

// writeState renders a fetch State. Error states carry the status of their
// cause so clients and caches can tell a missing product from an outage.
func writeState[T any](w http.ResponseWriter, r *http.Request, state catalog.State[T], err error, fallback *slog.Logger) {
	if err == nil {
		httputil.WriteData(w, state)
		return
	}

	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "catalog request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("path", r.URL.Path),
		)
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, status, httputil.Response{Data: state})
}
