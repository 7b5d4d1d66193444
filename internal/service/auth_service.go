package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/config"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

// AuthService coordinates login and self-service password flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	dispatcher events.Dispatcher
	now        Clock
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Clock      Clock
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		dispatcher: deps.Dispatcher,
		now:        clockOrNow(deps.Clock),
	}
}

// TokenManager exposes the token manager for the HTTP middleware.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates an active user by email and password. Every failure
// looks the same to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := apperrors.NewUnauthorized("invalid credentials")
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, invalid
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, invalid
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, invalid
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoErr(err, "user", user.ID)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       events.EventUserLoggedIn,
		TenantID:   user.TenantID,
		ResourceID: user.ID,
		Actor:      events.ActorOf(user),
	})
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

// Logout currently no-ops for stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ *domain.User) error {
	return nil
}

// ChangeOwnPassword lets any authenticated user rotate their password.
func (s *AuthService) ChangeOwnPassword(ctx context.Context, actor *domain.User, current, next string) error {
	if err := authenticated(actor); err != nil {
		return err
	}
	if len(next) < auth.MinPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": auth.MinPasswordLength})
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return mapRepoErr(err, "user", actor.ID)
	}
	if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}
	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return mapRepoErr(err, "user", user.ID)
	}
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       events.EventPasswordChanged,
		TenantID:   user.TenantID,
		ResourceID: user.ID,
		Actor:      events.ActorOf(actor),
	})
	return nil
}
