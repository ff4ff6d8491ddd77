package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/innovative-archive/shop-api/internal/middleware"
	"github.com/innovative-archive/shop-api/internal/pkg/response"
	"github.com/innovative-archive/shop-api/internal/pkg/validator"
)

// Handler handles cart HTTP requests
type Handler struct {
	service *Service
}

// SetItemRequest for PUT /cart/items
type SetItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=99"`
}

// NewHandler creates cart handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get handles GET /cart
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	c, err := h.service.Get(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, c)
}

// SetItem handles PUT /cart/items
func (h *Handler) SetItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req SetItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.BadRequest(w, "Invalid product ID")
		return
	}

	if err := h.service.SetItem(r.Context(), userID, productID, req.Quantity); err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			response.NotFound(w, "Product not found")
		case errors.Is(err, ErrProductInactive):
			response.Conflict(w, "Product is not available")
		case errors.Is(err, ErrInvalidQuantity):
			response.BadRequest(w, "Invalid quantity")
		default:
			response.InternalError(w)
		}
		return
	}

	c, err := h.service.Get(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, c)
}

// RemoveItem handles DELETE /cart/items/{productID}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		response.BadRequest(w, "Invalid product ID")
		return
	}

	if err := h.service.RemoveItem(r.Context(), userID, productID); err != nil {
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// Clear handles DELETE /cart
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.Clear(r.Context(), userID); err != nil {
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// Routes returns cart routes (all require auth)
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.Get)
	r.Delete("/", h.Clear)
	r.Put("/items", h.SetItem)
	r.Delete("/items/{productID}", h.RemoveItem)

	return r
}
