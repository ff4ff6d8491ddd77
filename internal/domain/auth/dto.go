package auth

import "github.com/innovative-archive/shop-api/internal/domain/user"

// RegisterRequest for POST /auth/register
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	DisplayName  string `json:"display_name" validate:"required,min=2,max=100"`
	ReferralCode string `json:"referral_code" validate:"omitempty,len=6"`
}

// LoginRequest for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest for POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest for POST /auth/logout
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// PaymentDetailsRequest for PUT /auth/me/payment-details
type PaymentDetailsRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,min=10,max=15"`
	UpiID    string `json:"upi_id" validate:"required,upi"`
}

// TokenPair is the issued token set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned from register, login and refresh.
type AuthResponse struct {
	User   *UserResponse `json:"user"`
	Tokens TokenPair     `json:"tokens"`
}

// UserResponse is the public user shape.
type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	Role         string `json:"role"`
	ReferralCode string `json:"referral_code,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	UpiID        string `json:"upi_id,omitempty"`
}

func toUserResponse(u *user.User) *UserResponse {
	resp := &UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
	if u.ReferralCode.Valid {
		resp.ReferralCode = u.ReferralCode.String
	}
	if u.FullName.Valid {
		resp.FullName = u.FullName.String
	}
	if u.Phone.Valid {
		resp.Phone = u.Phone.String
	}
	if u.UpiID.Valid {
		resp.UpiID = u.UpiID.String
	}
	return resp
}
