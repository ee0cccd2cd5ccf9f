package auth

import (
	"github.com/spec-kit/task-service/internal/domain"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

// RequireRole is a pure membership check on an already authenticated identity.
func RequireRole(identity *domain.Identity, role domain.Role) error {
	if identity == nil {
		return apperrors.NewUnauthorized("Not authorized")
	}
	if identity.Role != role {
		return apperrors.NewForbidden("Access denied: " + string(role) + "s only")
	}
	return nil
}
