package handlers

import (
	"planboard/internal/models"
	"planboard/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles account registration and token endpoints
type AuthHandler struct {
	users *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register creates an account
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	tokens, err := h.users.Register(c.Context(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tokens)
}

// Login verifies credentials and issues tokens
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	tokens, err := h.users.Login(c.Context(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(tokens)
}

// Refresh exchanges a refresh token for a fresh pair
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	tokens, err := h.users.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(tokens)
}

// Logout revokes the user's outstanding refresh tokens
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.users.Logout(c.Context(), userID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me returns the authenticated user's profile
// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.users.GetByID(c.Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user.Summary())
}
