package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

const msgInvalidCredentials = "Invalid credentials"

// AuthService coordinates registration, login and the user directory.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	adminKey   string
	bcryptCost int
}

// NewAuthService builds the service. The admin key and token secret are
// fixed for the lifetime of the process.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret),
		adminKey:   cfg.AdminKey,
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	AdminKey string
}

// AuthResult carries the user and the session issued for it.
type AuthResult struct {
	User    *domain.User
	Token   string
	Session *domain.Session
}

// RegisterUser creates an account and opens a session for it.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("All fields are required")
	}
	role, ok := domain.ParseRole(strings.TrimSpace(input.Role))
	if !ok {
		return nil, apperrors.NewValidationError("Invalid role")
	}
	if role == domain.RoleAdmin && !s.adminKeyMatches(input.AdminKey) {
		return nil, apperrors.NewForbidden("Invalid admin key")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewValidationError("User already exists. Please login.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewValidationError("User already exists. Please login.")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return s.openSession(user)
}

// LoginUser authenticates by email and password. Unknown emails and wrong
// passwords produce the same error.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("All fields are required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	return s.openSession(user)
}

// ListUsers returns a page of the user directory without credentials.
func (s *AuthService) ListUsers(ctx context.Context, page repository.Page) ([]domain.Identity, int64, error) {
	users, total, err := s.users.CountAndPage(ctx, page)
	if err != nil {
		return nil, 0, apperrors.NewInternalError(err)
	}
	identities := make([]domain.Identity, 0, len(users))
	for i := range users {
		identities = append(identities, *users[i].Identity())
	}
	return identities, total, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) openSession(user *domain.User) (*AuthResult, error) {
	token, session, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, Session: session}, nil
}

// adminKeyMatches never accepts when no admin key is configured.
func (s *AuthService) adminKeyMatches(candidate string) bool {
	if s.adminKey == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.adminKey), []byte(candidate)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
