package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/innovative-archive/shop-api/internal/pkg/response"
	"github.com/innovative-archive/shop-api/internal/pkg/validator"
)

// Handler handles settings HTTP requests
type Handler struct {
	service *Service
}

// UpdateRequest for PUT /admin/settings
type UpdateRequest struct {
	CommissionEnabled      bool    `json:"commission_enabled"`
	CommissionRate         float64 `json:"commission_rate" validate:"gte=0,lte=100"`
	MaxCommissionPurchases int     `json:"max_commission_purchases" validate:"gte=0"`
	MinWithdrawal          int64   `json:"min_withdrawal" validate:"gte=0"`
	WithdrawalCooldownDays int     `json:"withdrawal_cooldown_days" validate:"gte=0"`
	MaxWalletUsagePercent  int     `json:"max_wallet_usage_percent" validate:"gte=0,lte=100"`
	GSTRate                float64 `json:"gst_rate" validate:"gte=0,lte=100"`
	SellerStateCode        string  `json:"seller_state_code" validate:"required,state_code"`
	WhatsAppNumber         string  `json:"whatsapp_number" validate:"omitempty,min=10,max=15"`
}

// PublicResponse is the subset of settings exposed to customers.
type PublicResponse struct {
	CommissionEnabled     bool    `json:"commission_enabled"`
	CommissionRate        float64 `json:"commission_rate"`
	MinWithdrawal         int64   `json:"min_withdrawal"`
	MaxWalletUsagePercent int     `json:"max_wallet_usage_percent"`
	GSTRate               float64 `json:"gst_rate"`
}

// NewHandler creates settings handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetPublic handles GET /settings
func (h *Handler) GetPublic(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, &PublicResponse{
		CommissionEnabled:     s.CommissionEnabled,
		CommissionRate:        s.CommissionRate,
		MinWithdrawal:         s.MinWithdrawal,
		MaxWalletUsagePercent: s.MaxWalletUsagePercent,
		GSTRate:               s.GSTRate,
	})
}

// GetAdmin handles GET /admin/settings
func (h *Handler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, s)
}

// Update handles PUT /admin/settings
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	updated, err := h.service.Update(r.Context(), &Settings{
		CommissionEnabled:      req.CommissionEnabled,
		CommissionRate:         req.CommissionRate,
		MaxCommissionPurchases: req.MaxCommissionPurchases,
		MinWithdrawal:          req.MinWithdrawal,
		WithdrawalCooldownDays: req.WithdrawalCooldownDays,
		MaxWalletUsagePercent:  req.MaxWalletUsagePercent,
		GSTRate:                req.GSTRate,
		SellerStateCode:        req.SellerStateCode,
		WhatsAppNumber:         req.WhatsAppNumber,
	})
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, updated)
}

// Routes returns public settings routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetPublic)
	return r
}

// AdminRoutes returns admin settings routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Get("/", h.GetAdmin)
	r.Put("/", h.Update)
	return r
}
