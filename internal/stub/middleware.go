package stub

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/lureclo-storefront/internal/config"
)

const (
	subjectContextKey = "currentSubject"
	kindContextKey    = "credentialKind"
)

// AuthMiddleware validates bearer tokens and loads the credential's subject
// into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		subject, kind, err := parseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(subjectContextKey, subject)
		c.Locals(kindContextKey, kind)
		return c.Next()
	}
}

// currentSubject extracts the authenticated subject from context.
func currentSubject(c *fiber.Ctx) (string, bool) {
	value, ok := c.Locals(subjectContextKey).(string)
	return value, ok && value != ""
}

func currentKind(c *fiber.Ctx) string {
	value, _ := c.Locals(kindContextKey).(string)
	return value
}
