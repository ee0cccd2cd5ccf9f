package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-service/internal/api/dto"
	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/service"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

// UsersHandler exposes registration, session and directory endpoints.
type UsersHandler struct {
	auth    *service.AuthService
	guard   *auth.AccessGuard
	cookies auth.CookieSettings
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, guard *auth.AccessGuard, cookies auth.CookieSettings) *UsersHandler {
	return &UsersHandler{auth: authService, guard: guard, cookies: cookies}
}

// Register handles POST /user/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}

	result, err := h.auth.RegisterUser(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		AdminKey: req.AdminKey,
	})
	if err != nil {
		return err
	}
	h.cookies.SetSessionCookie(c, result.Token, result.Session)

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"user":    dto.NewUserResponse(result.User.Identity()),
	})
}

// Login handles POST /user/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body")
	}

	result, err := h.auth.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.cookies.SetSessionCookie(c, result.Token, result.Session)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"user":    dto.NewUserResponse(result.User.Identity()),
	})
}

// Logout handles POST /user/logout. It succeeds without a session too.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	h.guard.Revoke(c.UserContext(), h.guard.TokenFromRequest(c))
	h.cookies.ClearSessionCookie(c)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

// Profile handles GET /user/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    dto.NewUserResponse(identity),
	})
}

// List handles GET /user/list.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	users, total, err := h.auth.ListUsers(c.UserContext(), page)
	if err != nil {
		return err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"users":   items,
		"pagination": dto.UserPagination{
			TotalUsers:  total,
			CurrentPage: page.Number,
			TotalPages:  page.TotalPages(total),
			PageSize:    page.Size,
		},
	})
}
