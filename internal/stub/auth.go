package stub

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/lureclo-storefront/internal/config"
)

// AuthHandler issues and refreshes credentials.
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// AnonymousToken auto-issues a credential for a fresh visitor.
func (h *AuthHandler) AnonymousToken(c *fiber.Ctx) error {
	subject := "anon_" + uuid.NewString()
	token, err := generateToken(h.cfg.JWTSecret, subject, "anonymous", h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(fiber.Map{
		"token":   token,
		"message": "Anonymous token generated successfully",
	})
}

type loginRequest struct {
	ProviderToken string `json:"provider_token"`
}

// Login exchanges an identity-provider token for a session credential. The
// stub accepts any non-empty provider token and mints a fresh user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.ProviderToken == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid provider token")
	}

	subject := "user_" + uuid.NewString()
	token, err := generateToken(h.cfg.JWTSecret, subject, "authenticated", h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(fiber.Map{"token": token})
}

// Refresh replaces a still-valid credential with a fresh one of the same
// class.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	subject, ok := currentSubject(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	token, err := generateToken(h.cfg.JWTSecret, subject, currentKind(c), h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
	}

	return c.JSON(fiber.Map{"token": token})
}
