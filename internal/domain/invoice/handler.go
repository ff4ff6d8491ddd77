package invoice

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/innovative-archive/shop-api/internal/domain/order"
	"github.com/innovative-archive/shop-api/internal/middleware"
	"github.com/innovative-archive/shop-api/internal/pkg/response"
)

// OrderSource fetches orders with ownership checks.
type OrderSource interface {
	Get(ctx context.Context, id, userID uuid.UUID, admin bool) (*order.Order, error)
}

// Handler handles invoice HTTP requests
type Handler struct {
	service *Service
	orders  OrderSource
}

// NewHandler creates invoice handler
func NewHandler(service *Service, orders OrderSource) *Handler {
	return &Handler{service: service, orders: orders}
}

// Get handles GET /orders/{id}/invoice
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	admin := middleware.GetRole(r.Context()) == "admin"
	o, err := h.orders.Get(r.Context(), id, userID, admin)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			response.NotFound(w, "Order not found")
			return
		}
		response.InternalError(w)
		return
	}

	inv, err := h.service.Build(r.Context(), o)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, inv)
}

// Register attaches the invoice route to an order router that already
// carries auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/{id}/invoice", h.Get)
}
