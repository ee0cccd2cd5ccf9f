package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/domain"
)

// CookieSettings controls how the session cookie is written.
type CookieSettings struct {
	Name     string
	Secure   bool
	SameSite string
}

// SetSessionCookie delivers the token as an HTTP-only cookie living as long as the session.
func (s CookieSettings) SetSessionCookie(c *fiber.Ctx, token string, session *domain.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     s.Name,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(domain.SessionTTL / time.Second),
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
	})
}

// ClearSessionCookie overwrites the cookie with an already expired empty value.
func (s CookieSettings) ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
	})
}
