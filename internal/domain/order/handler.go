package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/innovative-archive/shop-api/internal/middleware"
	"github.com/innovative-archive/shop-api/internal/pkg/response"
	"github.com/innovative-archive/shop-api/internal/pkg/validator"
)

// Handler handles order HTTP requests
type Handler struct {
	service *Service
}

// CheckoutRequest for POST /orders/checkout
type CheckoutRequest struct {
	ReferralCode   string `json:"referral_code" validate:"omitempty,len=6"`
	BuyerStateCode string `json:"buyer_state_code" validate:"omitempty,state_code"`
	WalletAmount   int64  `json:"wallet_amount" validate:"gte=0"`
}

// UpdateStatusRequest for PUT /admin/orders/{id}/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
}

// NewHandler creates order handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Checkout handles POST /orders/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Checkout(r.Context(), userID, CheckoutInput{
		ReferralCode:   req.ReferralCode,
		BuyerStateCode: req.BuyerStateCode,
		WalletAmount:   req.WalletAmount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			response.BadRequest(w, "Cart is empty")
		case errors.Is(err, ErrOutOfStock):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrWalletLimit):
			response.BadRequest(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}
	response.Created(w, result)
}

// Mine handles GET /orders
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, offset := pageParams(r)

	orders, err := h.service.MyOrders(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, orders)
}

// Get handles GET /orders/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	o, err := h.service.Get(r.Context(), id, userID, false)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			response.NotFound(w, "Order not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, o)
}

// AdminList handles GET /admin/orders
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	status := r.URL.Query().Get("status")

	orders, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, orders)
}

// AdminGet handles GET /admin/orders/{id}
func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	o, err := h.service.Get(r.Context(), id, uuid.Nil, true)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			response.NotFound(w, "Order not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, o)
}

// UpdateStatus handles PUT /admin/orders/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), id, Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			response.NotFound(w, "Order not found")
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}
	response.OK(w, o)
}

// RetryCommission re-drives commission processing for a completed order
// whose credit was missed by a transient failure.
func (h *Handler) RetryCommission(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid order ID")
		return
	}

	if err := h.service.RetryCommission(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			response.NotFound(w, "Order not found")
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w)
		}
		return
	}
	response.NoContent(w)
}

func pageParams(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// Routes returns customer order routes (all require auth)
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/checkout", h.Checkout)
	r.Get("/", h.Mine)
	r.Get("/{id}", h.Get)

	return r
}

// AdminRoutes returns admin order routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Get("/", h.AdminList)
	r.Get("/{id}", h.AdminGet)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/commission", h.RetryCommission)

	return r
}
