package referral

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

// AttachRequest for POST /referrals/attach
type AttachRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MyCode handles GET /referrals/code
func (h *Handler) MyCode(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	code, err := h.service.EnsureCode(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrCodeGenerationExhausted) {
			response.Conflict(w, "Could not generate a referral code, try again")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"code": code})
}

// Attach handles POST /referrals/attach
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req AttachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	// Unknown codes and self-referral are silent no-ops by design.
	if err := h.service.Attach(r.Context(), userID, req.Code); err != nil {
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// MyStats handles GET /referrals/stats
func (h *Handler) MyStats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.service.MyStats(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, stats)
}

// MyCommissions handles GET /referrals/commissions
func (h *Handler) MyCommissions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.service.MyCommissions(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}

// AdminList handles GET /admin/referrals
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := r.URL.Query().Get("status")

	items, err := h.service.ListCommissions(r.Context(), status, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}

// AdminMarkPaid handles POST /admin/referrals/{id}/paid
func (h *Handler) AdminMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid commission ID")
		return
	}

	switch err := h.service.MarkCommissionPaid(r.Context(), id); {
	case err == nil:
		response.NoContent(w)
	case errors.Is(err, ErrCommissionNotFound):
		response.NotFound(w, "Commission not found")
	case errors.Is(err, ErrCommissionAlreadyPaid):
		response.Conflict(w, "Commission already marked paid")
	default:
		response.InternalError(w)
	}
}

// Routes returns user-facing referral routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/code", h.MyCode)
	r.Post("/attach", h.Attach)
	r.Get("/stats", h.MyStats)
	r.Get("/commissions", h.MyCommissions)
	return r
}

// AdminRoutes returns back-office commission routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Get("/", h.AdminList)
	r.Post("/{id}/paid", h.AdminMarkPaid)
	return r
}
