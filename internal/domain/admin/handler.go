package admin

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/innovative-archive/shop-api/internal/domain/order"
	"github.com/innovative-archive/shop-api/internal/pkg/response"
)

// OrderStats is the slice of order data the dashboard reads.
type OrderStats interface {
	CountByStatus(ctx context.Context) (map[order.Status]int, error)
	List(ctx context.Context, status string, limit, offset int) ([]*order.Order, error)
}

// WithdrawalStats counts the processing backlog.
type WithdrawalStats interface {
	CountPending(ctx context.Context) (int, error)
}

// Dashboard is the back-office landing summary.
type Dashboard struct {
	Orders             map[order.Status]int `json:"orders"`
	PendingWithdrawals int                  `json:"pending_withdrawals"`
	RecentOrders       []*order.Order       `json:"recent_orders"`
}

// Handler serves the admin dashboard
type Handler struct {
	orders      OrderStats
	withdrawals WithdrawalStats
}

// NewHandler creates admin handler
func NewHandler(orders OrderStats, withdrawals WithdrawalStats) *Handler {
	return &Handler{orders: orders, withdrawals: withdrawals}
}

// GetDashboard handles GET /admin/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.orders.CountByStatus(ctx)
	if err != nil {
		response.InternalError(w)
		return
	}
	pending, err := h.withdrawals.CountPending(ctx)
	if err != nil {
		response.InternalError(w)
		return
	}
	recent, err := h.orders.List(ctx, "", 10, 0)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, &Dashboard{
		Orders:             counts,
		PendingWithdrawals: pending,
		RecentOrders:       recent,
	})
}

// Routes returns admin dashboard routes
func (h *Handler) Routes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Get("/", h.GetDashboard)
	return r
}
