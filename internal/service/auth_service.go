package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const maxAddressLength = 300

// AuthService coordinates registration, login and profile flows.
type AuthService struct {
	users       repository.UserRepository
	tokenMgr    *auth.TokenManager
	throttle    LoginThrottle
	bcryptCost  int
	maxAttempts int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Throttle LoginThrottle
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
	Address  *string
}

// ProfileUpdateInput is a partial profile patch; nil fields are left
// unchanged.
type ProfileUpdateInput struct {
	Name    *string
	Phone   *string
	Address *string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	throttle := deps.Throttle
	if throttle == nil {
		throttle = NewNoopLoginThrottle()
	}
	return &AuthService{
		users:       deps.UserRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		throttle:    throttle,
		bcryptCost:  cfg.Auth.BcryptCost,
		maxAttempts: cfg.Auth.LoginMaxAttempts,
	}
}

// Register creates a new citizen account and issues a token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, time.Time, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if details := validateRegistration(input); len(details) > 0 {
		return nil, "", time.Time{}, apperrors.NewValidationError("Validation failed", details)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleCitizen,
		Active:       true,
		Phone:        input.Phone,
		Address:      input.Address,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Login authenticates an account and issues a fresh token. Once the
// failure counter exceeds the window limit the email is blocked outright,
// correct password included, until the window expires.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.maxAttempts > 0 {
		if count, err := s.throttle.Count(ctx, email); err == nil && count > s.maxAttempts {
			return nil, "", time.Time{}, apperrors.NewAuthError("too many failed login attempts, try again later")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, s.failedAttempt(ctx, email)
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, "", time.Time{}, apperrors.NewAuthError("account deactivated")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, s.failedAttempt(ctx, email)
	}

	_ = s.throttle.Reset(ctx, email)

	now := time.Now()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	user.LastLoginAt = &now

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

func (s *AuthService) failedAttempt(ctx context.Context, email string) error {
	count, err := s.throttle.Hit(ctx, email)
	if err == nil && s.maxAttempts > 0 && count > s.maxAttempts {
		return apperrors.NewAuthError("too many failed login attempts, try again later")
	}
	return apperrors.NewAuthError("invalid credentials")
}

// GetProfile loads the caller's account.
func (s *AuthService) GetProfile(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateProfile applies a partial name/phone/address patch.
func (s *AuthService) UpdateProfile(ctx context.Context, identity domain.Identity, input ProfileUpdateInput) (*domain.User, error) {
	details := map[string]any{}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if len(trimmed) < 2 || len(trimmed) > 100 {
			details["name"] = "Name must be between 2 and 100 characters"
		}
		input.Name = &trimmed
	}
	if input.Address != nil && len(strings.TrimSpace(*input.Address)) > maxAddressLength {
		details["address"] = "Address cannot exceed 300 characters"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("Validation failed", details)
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.Address != nil {
		user.Address = input.Address
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ChangePassword verifies the current password before rotating to the new
// one. The new password must satisfy the registration strength rule and
// must differ from the current one.
func (s *AuthService) ChangePassword(ctx context.Context, identity domain.Identity, currentPassword, newPassword string) error {
	if reason := auth.CheckPasswordStrength(newPassword); reason != "" {
		return apperrors.NewValidationError("Validation failed", map[string]any{"newPassword": reason})
	}
	if newPassword == currentPassword {
		return apperrors.NewValidationError("Validation failed", map[string]any{"newPassword": "New password must differ from the current password"})
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewAuthError("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Authorize is a pure role-membership check with no side effects.
func (s *AuthService) Authorize(identity domain.Identity, allowed ...domain.Role) bool {
	return identity.HasRole(allowed...)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func validateRegistration(input RegisterInput) map[string]any {
	details := map[string]any{}
	if len(input.Name) < 2 || len(input.Name) > 100 {
		details["name"] = "Name must be between 2 and 100 characters"
	}
	if !emailPattern.MatchString(input.Email) {
		details["email"] = "Please provide a valid email"
	}
	if reason := auth.CheckPasswordStrength(input.Password); reason != "" {
		details["password"] = reason
	}
	if input.Address != nil && len(strings.TrimSpace(*input.Address)) > maxAddressLength {
		details["address"] = "Address cannot exceed 300 characters"
	}
	return details
}
