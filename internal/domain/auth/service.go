package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/innovative-archive/shop-api/internal/domain/user"
	"github.com/innovative-archive/shop-api/internal/pkg/jwt"
	"github.com/innovative-archive/shop-api/internal/pkg/password"
)

// ReferralAttacher links a new user to the referrer whose code they
// signed up with. Failures must not block registration.
type ReferralAttacher interface {
	Attach(ctx context.Context, userID uuid.UUID, code string) error
}

// Service handles authentication business logic
type Service struct {
	users      user.Repository
	jwtService *jwt.Service
	redis      *redis.Client
	referrals  ReferralAttacher
}

// NewService creates auth service. referrals may be nil.
func NewService(users user.Repository, jwtService *jwt.Service, rdb *redis.Client, referrals ReferralAttacher) *Service {
	return &Service{
		users:      users,
		jwtService: jwtService,
		redis:      rdb,
		referrals:  referrals,
	}
}

// Register creates a customer account. A referral code, when present,
// is attached best effort after the account exists.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         user.RoleCustomer,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	if req.ReferralCode != "" && s.referrals != nil {
		if err := s.referrals.Attach(ctx, u.ID, req.ReferralCode); err != nil {
			log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("referral attach failed during registration")
		}
	}

	log.Info().Str("user_id", u.ID.String()).Msg("user registered")
	return s.issueTokens(ctx, u)
}

// Login authenticates by email and password.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if u == nil || !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(ctx, u)
}

// Refresh rotates the refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// The stored hash arbitrates: a rotated-out token validates as a
	// JWT but is no longer in Redis.
	hash := jwt.HashRefreshToken(refreshToken)
	storedID, err := s.redis.Get(ctx, refreshKey(hash)).Result()
	if err != nil || storedID != claims.UserID.String() {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidRefreshToken
	}

	if err := s.redis.Del(ctx, refreshKey(hash)).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to delete rotated refresh token")
	}
	return s.issueTokens(ctx, u)
}

// Logout invalidates the refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrRefreshTokenRequired
	}
	return s.redis.Del(ctx, refreshKey(jwt.HashRefreshToken(refreshToken))).Err()
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

// UpdatePaymentDetails stores the payout identity used by withdrawals.
func (s *Service) UpdatePaymentDetails(ctx context.Context, userID uuid.UUID, req *PaymentDetailsRequest) (*user.User, error) {
	err := s.users.UpdatePaymentDetails(ctx, userID, strings.TrimSpace(req.FullName), strings.TrimSpace(req.Phone), strings.TrimSpace(req.UpiID))
	if err != nil {
		return nil, err
	}
	return s.Me(ctx, userID)
}

func (s *Service) issueTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	refreshToken, _, _, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}

	hash := jwt.HashRefreshToken(refreshToken)
	if err := s.redis.Set(ctx, refreshKey(hash), u.ID.String(), s.jwtService.GetRefreshTTL()).Err(); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User: toUserResponse(u),
		Tokens: TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
	}, nil
}

func refreshKey(hash string) string {
	return "refresh:" + hash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
