package withdrawal

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

type Handler struct {
	service *Service
}

// RequestBody for POST /withdrawals
type RequestBody struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// ProcessBody for POST /admin/withdrawals/{id}/process
type ProcessBody struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Request handles POST /withdrawals
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req RequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	created, err := h.service.Request(r.Context(), userID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingPaymentDetails):
			response.BadRequest(w, "Add your full name, phone and UPI ID before requesting a withdrawal")
		case errors.Is(err, ErrBelowMinimum),
			errors.Is(err, ErrInvalidAmount),
			errors.Is(err, ErrCooldownActive):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrPendingRequestExists):
			response.Conflict(w, "You already have a pending withdrawal request")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, created)
}

// Mine handles GET /withdrawals
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.service.MyWithdrawals(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}

// AdminList handles GET /admin/withdrawals
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := r.URL.Query().Get("status")

	items, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}

// AdminProcess handles POST /admin/withdrawals/{id}/process
func (h *Handler) AdminProcess(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid withdrawal ID")
		return
	}

	var req ProcessBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	processed, err := h.service.Process(r.Context(), id, Decision(req.Decision))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Withdrawal not found")
		case errors.Is(err, ErrAlreadyProcessed):
			response.Conflict(w, "Withdrawal already processed")
		case errors.Is(err, ErrInvalidDecision):
			response.BadRequest(w, "Decision must be approve or reject")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, processed)
}

// Routes returns user-facing withdrawal routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Request)
	r.Get("/", h.Mine)
	return r
}

// AdminRoutes returns back-office withdrawal routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Get("/", h.AdminList)
	r.Post("/{id}/process", h.AdminProcess)
	return r
}
