package admin

import (
	"net/http"

	"github.com/innovative-archive/shop-api/internal/middleware"
	"github.com/innovative-archive/shop-api/internal/pkg/response"
)

// Permission represents a back-office capability
type Permission string

const (
	PermManageOrders       Permission = "orders.manage"
	PermProcessWithdrawals Permission = "withdrawals.process"
	PermManageProducts     Permission = "products.manage"
	PermManageSettings     Permission = "settings.manage"
	PermManageReferrals    Permission = "referrals.manage"
	PermViewUsers          Permission = "users.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[string][]Permission{
	"admin": {
		PermManageOrders,
		PermProcessWithdrawals,
		PermManageProducts,
		PermManageSettings,
		PermManageReferrals,
		PermViewUsers,
	},
	"customer": {},
}

// HasPermission checks whether the role carries the permission
func HasPermission(role string, p Permission) bool {
	for _, granted := range RolePermissions[role] {
		if granted == p {
			return true
		}
	}
	return false
}

// RequirePermission returns middleware that gates a route on a capability
func RequirePermission(p Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := middleware.GetRole(r.Context())
			if !HasPermission(role, p) {
				response.Forbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
