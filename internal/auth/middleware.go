package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// AccessGuard resolves a request's session token into an Identity.
type AccessGuard struct {
	tokens      *TokenManager
	users       repository.UserRepository
	revocations RevocationStore
	cookieName  string
	logger      *zap.Logger
}

// NewAccessGuard constructs the guard. revocations may be nil.
func NewAccessGuard(tokens *TokenManager, users repository.UserRepository, revocations RevocationStore, cookieName string, logger *zap.Logger) *AccessGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessGuard{
		tokens:      tokens,
		users:       users,
		revocations: revocations,
		cookieName:  cookieName,
		logger:      logger,
	}
}

// Authenticate verifies the token and loads the user it names.
func (g *AccessGuard) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorized("Not authorized, token missing")
	}
	session, err := g.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("Not authorized, token invalid")
	}
	if g.revoked(ctx, session.TokenID) {
		return nil, apperrors.NewUnauthorized("Not authorized, token invalid")
	}

	user, err := g.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("Not authorized, user not found")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user.Identity(), nil
}

// Handle enforces authentication for protected routes.
func (g *AccessGuard) Handle(c *fiber.Ctx) error {
	identity, err := g.Authenticate(c.UserContext(), g.TokenFromRequest(c))
	if err != nil {
		return err
	}
	c.Locals(identityKey, identity)
	return c.Next()
}

// TokenFromRequest reads the session cookie, falling back to a bearer header.
func (g *AccessGuard) TokenFromRequest(c *fiber.Ctx) string {
	if token := c.Cookies(g.cookieName); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Revoke invalidates a token before its expiry. Failures are logged and swallowed.
func (g *AccessGuard) Revoke(ctx context.Context, token string) {
	if g.revocations == nil || token == "" {
		return
	}
	session, err := g.tokens.Verify(token)
	if err != nil {
		return
	}
	if err := g.revocations.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		g.logger.Warn("session revocation failed", zap.String("user_id", session.UserID), zap.Error(err))
	}
}

// revoked fails open: an unreachable store must not lock every user out.
func (g *AccessGuard) revoked(ctx context.Context, tokenID string) bool {
	if g.revocations == nil || tokenID == "" {
		return false
	}
	revoked, err := g.revocations.IsRevoked(ctx, tokenID)
	if err != nil {
		g.logger.Warn("revocation check failed, allowing session", zap.String("token_id", tokenID), zap.Error(err))
		return false
	}
	return revoked
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*domain.Identity)
	return identity, ok && identity != nil
}
